// Package config defines the CLI configuration structure.
package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// DefaultServer is the server used when nothing else is configured.
const DefaultServer = "http://127.0.0.1:8080"

// DefaultProfile is the profile name used when none is selected.
const DefaultProfile = "default"

// CLIConfig is the configuration for linkgate-cli.
type CLIConfig struct {
	// CurrentProfile selects the profile used when --profile is absent.
	CurrentProfile string `yaml:"current_profile"`

	// Output is the default output format: table, json or yaml.
	Output string `yaml:"output"`

	Profiles map[string]Profile `yaml:"profiles"`
}

// Profile stores connection details for one server.
type Profile struct {
	Server    string `yaml:"server"`
	KeyID     string `yaml:"key_id,omitempty"`
	KeySecret string `yaml:"key_secret,omitempty"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		CurrentProfile: DefaultProfile,
		Output:         "table",
		Profiles: map[string]Profile{
			DefaultProfile: {Server: DefaultServer},
		},
	}
}

// Profile returns the named profile, or the current one when name is empty.
func (c *CLIConfig) Profile(name string) (Profile, error) {
	if name == "" {
		name = c.CurrentProfile
	}
	if name == "" {
		name = DefaultProfile
	}
	p, ok := c.Profiles[name]
	if !ok {
		if name == DefaultProfile {
			return Profile{Server: DefaultServer}, nil
		}
		return Profile{}, fmt.Errorf("profile %q not found", name)
	}
	if p.Server == "" {
		p.Server = DefaultServer
	}
	return p, nil
}

// ProfileNames returns the configured profile names in order.
func (c *CLIConfig) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Validate checks the configuration for obvious mistakes.
func (c *CLIConfig) Validate() error {
	var errs []string

	switch c.Output {
	case "", "table", "json", "yaml":
	default:
		errs = append(errs, fmt.Sprintf("output: unknown format %q", c.Output))
	}

	if c.CurrentProfile != "" && c.CurrentProfile != DefaultProfile {
		if _, ok := c.Profiles[c.CurrentProfile]; !ok {
			errs = append(errs, fmt.Sprintf("current_profile: %q is not defined", c.CurrentProfile))
		}
	}

	for _, name := range c.ProfileNames() {
		p := c.Profiles[name]
		if p.Server != "" {
			u, err := url.Parse(p.Server)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				errs = append(errs, fmt.Sprintf("profiles.%s.server: %q is not an http(s) URL", name, p.Server))
			}
		}
		if (p.KeyID == "") != (p.KeySecret == "") {
			errs = append(errs, fmt.Sprintf("profiles.%s: key_id and key_secret must be set together", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid cli config:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
