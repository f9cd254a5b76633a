// Package httpserver provides the HTTP/HTTPS server for LinkGate.
//
// This package implements the external API using stdlib net/http:
//
//   - Issuer endpoints: POST /tokens
//   - Admin endpoints: GET /tokens/stats, POST /tokens/sweep
//   - Public endpoints: GET /resource/{secret}/{resourceId}, POST /verify
//   - Health endpoints: /health, /ready, /metrics
//
// Every route group gets its own middleware chain. Recover and RequestID
// wrap everything; CORS, per-IP rate limits (httprate), Audit, IssuerAuth
// and NetworkACL are added where the group needs them.
//
// @req RQ-0301
// @design DS-0301
package httpserver
