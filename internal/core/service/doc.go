// Package service provides domain services for LinkGate.
//
// Domain services contain the access-control logic and orchestrate
// operations on domain models. They define interfaces for storage,
// delivery, audit and metrics dependencies, allowing for dependency
// injection and testability.
//
// This package contains:
//
//   - Classifier: pure request classification from header signatures
//   - VerificationService: code issuance, checking and out-of-band delivery
//   - Gatekeeper: the per-request access decision (grant, challenge, deny)
//   - Sweeper: periodic removal of expired links
//   - AuthService: issuer key authentication, roles and rate limiting
//
// All services take a Clock so time can be driven explicitly in tests.
// Network IO (code delivery) never runs while a link is locked.
//
// @req RQ-0203
// @design DS-0203
package service
