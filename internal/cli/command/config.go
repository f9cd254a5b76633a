// Package command provides CLI command definitions for linkgate-cli.
package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/linkgate-go/internal/cli/config"
	"github.com/yndnr/linkgate-go/internal/cli/output"
	serverconfig "github.com/yndnr/linkgate-go/internal/server/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the resolved CLI settings",
				Action: configShow,
			},
			{
				Name:   "validate",
				Usage:  "Validate the CLI configuration file",
				Action: configValidate,
			},
			{
				Name:  "profile",
				Usage: "Manage CLI profiles",
				Subcommands: []*cli.Command{
					{
						Name:      "set",
						Usage:     "Create or update a profile",
						ArgsUsage: "NAME",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "server", Usage: "Server URL"},
							&cli.StringFlag{Name: "key-id", Usage: "Issuer key ID"},
							&cli.StringFlag{Name: "key-secret", Usage: "Issuer key secret"},
							&cli.BoolFlag{Name: "use", Usage: "Make it the current profile"},
						},
						Action: configProfileSet,
					},
					{
						Name:      "use",
						Usage:     "Select the current profile",
						ArgsUsage: "NAME",
						Action:    configProfileUse,
					},
				},
			},
			{
				Name:      "check-server",
				Usage:     "Check a server configuration file offline",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "env-file", Usage: ".env file read before the environment"},
				},
				Action: configCheckServer,
			},
		},
	}
}

// resolvedSettings is what config show prints.
type resolvedSettings struct {
	ConfigFile string `json:"config_file"`
	Profile    string `json:"profile"`
	Server     string `json:"server"`
	KeyID      string `json:"key_id"`
	KeySecret  string `json:"key_secret"`
	Output     string `json:"output"`
	Timeout    string `json:"timeout"`
}

func configShow(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	settings := resolvedSettings{
		ConfigFile: c.String("config"),
		Profile:    flags.Profile,
		Server:     flags.Server,
		KeyID:      flags.KeyID,
		KeySecret:  maskSecret(flags.KeySecret),
		Output:     string(flags.Output),
		Timeout:    flags.Timeout.String(),
	}
	return render(c, flags, settings)
}

func configValidate(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	fmt.Fprintf(stdout(c), "CLI configuration is valid (%d profile(s)).\n", len(cfg.Profiles))
	return nil
}

func configProfileSet(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("profile name required")
	}

	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	p := cfg.Profiles[name]
	if v := c.String("server"); v != "" {
		p.Server = v
	}
	if v := c.String("key-id"); v != "" {
		p.KeyID = v
	}
	if v := c.String("key-secret"); v != "" {
		p.KeySecret = v
	}
	cfg.Profiles[name] = p
	if c.Bool("use") {
		cfg.CurrentProfile = name
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg, path); err != nil {
		return err
	}
	fmt.Fprintf(stdout(c), "Profile %q saved to %s\n", name, path)
	return nil
}

func configProfileUse(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("profile name required")
	}

	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if _, err := cfg.Profile(name); err != nil {
		return err
	}
	cfg.CurrentProfile = name
	if err := config.Save(cfg, path); err != nil {
		return err
	}
	fmt.Fprintf(stdout(c), "Using profile %q\n", name)
	return nil
}

// serverSummary is what check-server prints for a valid file.
type serverSummary struct {
	Addr            string `json:"addr"`
	PublicBaseURL   string `json:"public_base_url"`
	ResourceDir     string `json:"resource_dir"`
	DeliveryMode    string `json:"delivery_mode"`
	AmbiguousPolicy string `json:"ambiguous_policy"`
	IssuerKeys      int    `json:"issuer_keys"`
	AuditEnabled    bool   `json:"audit_enabled"`
}

func configCheckServer(c *cli.Context) error {
	file := c.Args().First()
	if file == "" {
		return fmt.Errorf("configuration file path required")
	}

	cfg, err := serverconfig.Load(serverconfig.LoadOptions{File: file, DotEnv: c.StringSlice("env-file")})
	if err != nil {
		return err
	}
	cfg = serverconfig.Sanitize(cfg)

	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	summary := serverSummary{
		Addr:            cfg.Server.HTTP.Addr,
		PublicBaseURL:   cfg.Server.HTTP.PublicBaseURL,
		ResourceDir:     cfg.Resource.Dir,
		DeliveryMode:    cfg.Delivery.Mode,
		AmbiguousPolicy: cfg.Gate.AmbiguousPolicy,
		IssuerKeys:      len(cfg.Security.IssuerKeys),
		AuditEnabled:    cfg.Audit.Enabled,
	}
	if flags.Output == output.FormatTable {
		fmt.Fprintf(stdout(c), "%s is valid.\n\n", file)
	}
	return render(c, flags, summary)
}

// maskSecret keeps only the ends of a secret.
func maskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "****"
	default:
		return s[:4] + "****" + s[len(s)-2:]
	}
}
