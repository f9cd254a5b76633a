// Package main provides the entry point for linkgate-server.
//
// The server hands out single-use resource links and gates them:
//
//   - POST /tokens issues a link for an upstream component
//   - GET /resource/{secret}/{resourceId} lets previews through, grants the
//     first human visit and challenges later ones with a delivered code
//   - POST /verify accepts the code and opens a bypass window
//   - /health, /ready and /metrics for operators
//
// Usage:
//
//	linkgate-server [flags]
//	linkgate-server -config /etc/linkgate/linkgate.yaml -env-file .env
//
// Configuration comes from defaults, the YAML file, .env files and
// LINKGATE_* variables. SIGHUP or a change to the config or issuer keys
// file reloads issuer keys and the log level.
//
// @design DS-0501
package main
