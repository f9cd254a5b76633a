// Package buildinfo provides build information for LinkGate.
//
// This package exposes build-time information injected via ldflags,
// falling back to the module and VCS data embedded by the Go toolchain:
//
//   - Version: Semantic version (e.g., "1.0.0")
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go runtime version
//
// Usage:
//
//	go build -ldflags "-X buildinfo.Version=1.0.0 -X buildinfo.Commit=abc123"
//
// @design DS-0501
package buildinfo
