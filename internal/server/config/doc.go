// Package config provides server configuration for LinkGate.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Business validation (addresses, durations, keys, patterns)
//   - sanitize.go: Log sanitization (hide sensitive values)
//
// Configuration is loaded via internal/infra/confloader and supports
// multiple sources: files, .env files, environment variables, and flags.
//
// @req RQ-0502
// @design DS-0502
package config
