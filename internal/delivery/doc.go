// Package delivery sends verification codes to link owners out of band.
//
//   - relay.go: HTTP relay client (POST {to, message}), throttled with
//     golang.org/x/time/rate and tagged with an idempotency key per send
//   - log.go: log-only deliverer for development
//
// Both implement service.Deliverer. Callers treat delivery as
// fire-and-forget; errors are returned for logging and metrics only.
//
// @design DS-0205
package delivery
