// Package command provides CLI command definitions for linkgate-cli.
package command

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/urfave/cli/v2"
	"go.yaml.in/yaml/v3"

	"github.com/yndnr/linkgate-go/internal/cli/output"
	"github.com/yndnr/linkgate-go/internal/core/domain"
)

// KeyCommand returns the key subcommand group. Issuer keys live in the
// server configuration, so these commands run locally.
func KeyCommand() *cli.Command {
	return &cli.Command{
		Name:  "key",
		Usage: "Create and hash issuer keys (offline)",
		Subcommands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Generate an issuer key and its configuration entry",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Key ID (generated when empty)",
					},
					&cli.StringFlag{
						Name:  "role",
						Usage: "Role: issuer, admin or metrics",
						Value: string(domain.RoleIssuer),
					},
					&cli.IntFlag{
						Name:  "rate-limit",
						Usage: "Requests per second allowed for the key (0 = unlimited)",
					},
				},
				Action: keyGenerate,
			},
			{
				Name:      "hash",
				Usage:     "Hash an existing secret (reads stdin when SECRET is omitted)",
				ArgsUsage: "[SECRET]",
				Action:    keyHash,
			},
			{
				Name:      "check",
				Usage:     "Check a secret against a configured hash",
				ArgsUsage: "SECRET HASH",
				Action:    keyCheck,
			},
		},
	}
}

// keyEntry is one element of security.issuer_keys.
type keyEntry struct {
	ID         string `yaml:"id" json:"id"`
	SecretHash string `yaml:"secret_hash" json:"secret_hash"`
	Role       string `yaml:"role" json:"role"`
	RateLimit  int    `yaml:"rate_limit,omitempty" json:"rate_limit,omitempty"`
}

// generatedKey is the machine-readable result of key generate.
type generatedKey struct {
	keyEntry
	Secret string `json:"secret"`
}

func keyGenerate(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	role := c.String("role")
	if !domain.IsValidRole(role) {
		return fmt.Errorf("invalid role %q", role)
	}
	if c.Int("rate-limit") < 0 {
		return fmt.Errorf("--rate-limit must not be negative")
	}

	id := c.String("id")
	if id == "" {
		id = "lgk-" + strings.ToLower(ulid.Make().String())
	}

	secret, hash, err := domain.GenerateIssuerSecret()
	if err != nil {
		return err
	}
	key := generatedKey{
		keyEntry: keyEntry{ID: id, SecretHash: hash, Role: role, RateLimit: c.Int("rate-limit")},
		Secret:   secret,
	}

	if flags.Output != output.FormatTable {
		return render(c, flags, key)
	}

	snippet, err := yaml.Marshal(map[string]any{
		"security": map[string]any{"issuer_keys": []keyEntry{key.keyEntry}},
	})
	if err != nil {
		return err
	}

	w := stdout(c)
	fmt.Fprintf(w, "Key ID: %s\n", key.ID)
	fmt.Fprintf(w, "Secret: %s\n", key.Secret)
	fmt.Fprintln(w, "\nThe secret is shown once. Add this to the server configuration:")
	fmt.Fprintf(w, "\n%s", snippet)
	fmt.Fprintf(w, "\nClients authenticate with: Authorization: Bearer %s:<secret>\n", key.ID)
	return nil
}

func keyHash(c *cli.Context) error {
	secret := c.Args().First()
	if secret == "" {
		var err error
		if secret, err = readLine(c.App.Reader); err != nil {
			return err
		}
	}
	if secret == "" {
		return fmt.Errorf("secret required")
	}

	hash, err := domain.HashIssuerSecret(secret)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout(c), hash)
	return nil
}

func keyCheck(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: key check SECRET HASH")
	}
	if !domain.VerifyIssuerSecret(c.Args().Get(0), c.Args().Get(1)) {
		return cli.Exit("secret does not match", 1)
	}
	fmt.Fprintln(stdout(c), "secret matches")
	return nil
}

// readLine reads one trimmed line from r, or stdin when r is nil.
func readLine(r io.Reader) (string, error) {
	if r == nil {
		r = os.Stdin
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}
