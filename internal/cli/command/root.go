// Package command provides CLI command definitions for linkgate-cli.
package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/linkgate-go/internal/cli/config"
	"github.com/yndnr/linkgate-go/internal/cli/connection"
	"github.com/yndnr/linkgate-go/internal/cli/output"
	"github.com/yndnr/linkgate-go/internal/infra/buildinfo"
)

// metaConfig is the App.Metadata key holding the loaded *config.CLIConfig.
const metaConfig = "cliConfig"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "linkgate-cli",
		Usage:   "LinkGate command-line tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			LinkCommand(),
			VerifyCommand(),
			KeyCommand(),
			SystemCommand(),
			ConfigCommand(),
		},
		Before: loadConfig,
	}
}

// loadConfig reads the CLI config file into App.Metadata.
func loadConfig(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[metaConfig] = cfg
	return nil
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI configuration file",
			EnvVars: []string{"LINKGATE_CLI_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "Profile from the CLI configuration",
			EnvVars: []string{"LINKGATE_PROFILE"},
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "LinkGate server URL (e.g., http://127.0.0.1:8080)",
			EnvVars: []string{"LINKGATE_SERVER"},
		},
		&cli.StringFlag{
			Name:    "key-id",
			Aliases: []string{"k"},
			Usage:   "Issuer key ID",
			EnvVars: []string{"LINKGATE_KEY_ID"},
		},
		&cli.StringFlag{
			Name:    "key-secret",
			Aliases: []string{"K"},
			Usage:   "Issuer key secret",
			EnvVars: []string{"LINKGATE_KEY_SECRET"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout",
			Value: connection.DefaultTimeout,
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable verbose output",
		},
	}
}

// GlobalFlags holds the resolved global options.
type GlobalFlags struct {
	Profile   string
	Server    string
	KeyID     string
	KeySecret string

	Output  output.Format
	Wide    bool
	Timeout time.Duration
	Verbose bool
}

// cliConfig returns the loaded CLI config, or the defaults.
func cliConfig(c *cli.Context) *config.CLIConfig {
	if c.App != nil {
		if cfg, ok := c.App.Metadata[metaConfig].(*config.CLIConfig); ok {
			return cfg
		}
	}
	return config.Default()
}

// ParseGlobalFlags resolves global options. Flags and environment
// variables override the selected profile.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg := cliConfig(c)

	profileName := c.String("profile")
	profile, err := cfg.Profile(profileName)
	if err != nil {
		return nil, err
	}
	if profileName == "" {
		profileName = cfg.CurrentProfile
	}

	flags := &GlobalFlags{
		Profile:   profileName,
		Server:    profile.Server,
		KeyID:     profile.KeyID,
		KeySecret: profile.KeySecret,
		Wide:      c.Bool("wide"),
		Timeout:   c.Duration("timeout"),
		Verbose:   c.Bool("verbose"),
	}
	if c.IsSet("server") {
		flags.Server = c.String("server")
	}
	if c.IsSet("key-id") {
		flags.KeyID = c.String("key-id")
	}
	if c.IsSet("key-secret") {
		flags.KeySecret = c.String("key-secret")
	}
	if flags.Timeout <= 0 {
		flags.Timeout = connection.DefaultTimeout
	}

	format := cfg.Output
	if c.IsSet("output") {
		format = c.String("output")
	}
	if flags.Output, err = output.ParseFormat(format); err != nil {
		return nil, err
	}
	return flags, nil
}

// EnsureConnected returns an HTTP client for the resolved server.
func EnsureConnected(c *cli.Context) (*connection.HTTPClient, *GlobalFlags, error) {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return nil, nil, err
	}
	client := connection.NewHTTPClient(flags.Server, flags.KeyID, flags.KeySecret)
	if flags.Verbose {
		fmt.Fprintf(stderr(c), "server: %s (profile %s)\n", client.BaseURL(), flags.Profile)
	}
	return client, flags, nil
}

// EnsureAuthenticated is EnsureConnected for commands that need an issuer key.
func EnsureAuthenticated(c *cli.Context) (*connection.HTTPClient, *GlobalFlags, error) {
	client, flags, err := EnsureConnected(c)
	if err != nil {
		return nil, nil, err
	}
	if !client.HasCredentials() {
		return nil, nil, fmt.Errorf("issuer key required: set --key-id and --key-secret or configure a profile")
	}
	return client, flags, nil
}

// requestContext bounds a command's server calls.
func requestContext(c *cli.Context, flags *GlobalFlags) (context.Context, context.CancelFunc) {
	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, flags.Timeout)
}

// render writes data in the selected format.
func render(c *cli.Context, flags *GlobalFlags, data any) error {
	return output.NewFormatter(flags.Output, flags.Wide).Format(stdout(c), data)
}

func stdout(c *cli.Context) io.Writer {
	if c.App != nil && c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

func stderr(c *cli.Context) io.Writer {
	if c.App != nil && c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
