// Package main provides the entry point for linkgate-cli.
//
// The CLI talks to a LinkGate server for:
//
//   - Link issuance, store statistics and manual sweeps
//   - Submitting verification codes
//   - Health and readiness probes
//
// and works offline for issuer key generation and configuration checks.
//
// Usage:
//
//	linkgate-cli [global flags] command [flags]
//	linkgate-cli -k lgk-shop -K "$SECRET" link issue -r products_a.html -c 905551112233
//	linkgate-cli key generate --role admin
//
// @design DS-0601
package main
