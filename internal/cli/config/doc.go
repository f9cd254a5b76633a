// Package config provides the linkgate-cli configuration file.
//
//   - spec.go: CLIConfig and Profile (~/.linkgate/cli.yaml)
//   - loader.go: loading, saving and profile resolution
//
// A profile names a server and the issuer key used against it. Command
// line flags and LINKGATE_* environment variables override the profile.
package config
