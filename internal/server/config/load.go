// Package config defines the server configuration structure.
package config

import (
	"fmt"

	"github.com/yndnr/linkgate-go/internal/core/domain"
	"github.com/yndnr/linkgate-go/internal/infra/confloader"
)

// LoadOptions selects the sources read by Load.
type LoadOptions struct {
	// File is the YAML configuration file (optional).
	File string

	// DotEnv lists .env files exported before the environment is read.
	DotEnv []string

	// EnvPrefix overrides confloader.DefaultEnvPrefix.
	EnvPrefix string
}

// Load builds a verified configuration from defaults, the YAML file,
// .env files and LINKGATE_* environment variables, in that order. Issuer
// keys from security.issuer_keys_file are appended to the inline list.
func Load(opts LoadOptions) (*ServerConfig, error) {
	cfg := Default()

	loaderOpts := []confloader.Option{confloader.WithDotEnv(opts.DotEnv...)}
	if opts.File != "" {
		loaderOpts = append(loaderOpts, confloader.WithConfigFile(opts.File))
	}
	if opts.EnvPrefix != "" {
		loaderOpts = append(loaderOpts, confloader.WithEnvPrefix(opts.EnvPrefix))
	}

	if err := confloader.NewLoader(loaderOpts...).Load(cfg); err != nil {
		return nil, err
	}

	if cfg.Security.IssuerKeysFile != "" {
		keys, err := LoadIssuerKeys(cfg.Security.IssuerKeysFile)
		if err != nil {
			return nil, err
		}
		cfg.Security.IssuerKeys = append(cfg.Security.IssuerKeys, keys...)
	}

	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// issuerKeysDoc is the layout of an issuer keys file.
type issuerKeysDoc struct {
	IssuerKeys []domain.IssuerKey `koanf:"issuer_keys"`
}

// LoadIssuerKeys reads the issuer_keys list from a YAML file.
func LoadIssuerKeys(path string) ([]domain.IssuerKey, error) {
	l := confloader.NewLoader()
	if err := l.LoadFile(path); err != nil {
		return nil, fmt.Errorf("load issuer keys: %w", err)
	}

	var doc issuerKeysDoc
	if err := l.Unmarshal(&doc); err != nil {
		return nil, fmt.Errorf("parse issuer keys %s: %w", path, err)
	}
	for i := range doc.IssuerKeys {
		if err := doc.IssuerKeys[i].Validate(); err != nil {
			return nil, fmt.Errorf("%s: issuer_keys[%d]: %w", path, i, err)
		}
	}
	return doc.IssuerKeys, nil
}
