// Package confloader provides configuration loading mechanism.
//
// It uses Koanf to layer configuration sources with priority
// Env > .env > File > Default.
//
// @req RQ-0502
// @design DS-0502
package confloader

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "LINKGATE_"

// EnvNestingSeparator separates nested keys in environment variable names.
// A single underscore stays part of the key name.
const EnvNestingSeparator = "__"

// Loader loads configuration from multiple sources.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	dotEnv    []string
}

// Option is a function that configures the Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the configuration file path.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithDotEnv preloads variables from .env files before reading the
// environment. Variables already set in the process win.
func WithDotEnv(paths ...string) Option {
	return func(l *Loader) {
		l.dotEnv = append(l.dotEnv, paths...)
	}
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load reads the file, .env files and environment in that order and
// unmarshals over target. Fields no source sets keep their value, so
// callers pass a struct already holding defaults.
func (l *Loader) Load(target any) error {
	if l.filePath != "" {
		if err := l.LoadFile(l.filePath); err != nil {
			return fmt.Errorf("load config file: %w", err)
		}
	}

	if err := l.LoadDotEnv(); err != nil {
		return fmt.Errorf("load dotenv: %w", err)
	}

	if err := l.LoadEnv(); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	if err := l.Unmarshal(target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	return nil
}

// LoadFile loads configuration from a YAML file.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}

	provider := file.Provider(path)
	if err := l.k.Load(provider, yaml.Parser()); err != nil {
		return fmt.Errorf("load file %s: %w", path, err)
	}

	return nil
}

// LoadDotEnv exports variables from the configured .env files into the
// process environment. Missing files are skipped.
func (l *Loader) LoadDotEnv() error {
	for _, path := range l.dotEnv {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// LoadEnv loads configuration from environment variables.
// Environment variables use the format: LINKGATE_SECTION__KEY (uppercase,
// double underscore between levels).
// Example: LINKGATE_LINKS__DEFAULT_TTL=24h
func (l *Loader) LoadEnv() error {
	// LINKGATE_SERVER__HTTP__ADDRESS -> server.http.address
	envTransformer := func(s string) string {
		s = strings.TrimPrefix(s, l.envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, EnvNestingSeparator, ".")
	}

	provider := env.Provider(l.envPrefix, ".", envTransformer)
	if err := l.k.Load(provider, nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	return nil
}

// Unmarshal decodes everything loaded so far into target using koanf tags.
// Duration strings such as "45s" decode into time.Duration fields.
func (l *Loader) Unmarshal(target any) error {
	return l.k.Unmarshal("", target)
}
