// Package handler provides HTTP request handlers for LinkGate.
//
// This package contains handlers for all HTTP endpoints:
//
//   - link.go: Link issuance, diagnostics and manual sweep
//   - access.go: Gated resource access and challenge pages
//   - verify.go: Verification code submission
//   - health.go: Health and readiness checks
//
// All JSON handlers follow a consistent pattern:
//
//   - Parse and validate request
//   - Call the gatekeeper
//   - Format and return response in the standard envelope
//   - Handle errors with appropriate HTTP status codes
//
// The resource route answers with HTML, never with the envelope.
//
// @req RQ-0301
// @design DS-0301
package handler
