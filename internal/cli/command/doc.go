// Package command provides CLI command definitions for LinkGate.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: root command, global flags and profile resolution
//   - link.go: link subcommand group (issue, stats, sweep)
//   - verify.go: submit a verification code
//   - key.go: issuer key generation and hashing, run locally
//   - system.go: health and readiness probes
//   - config.go: CLI profiles and offline server config checks
//
// Commands parse flags, call the server through the connection package
// and render results with the output package.
//
// @design DS-0601
package command
