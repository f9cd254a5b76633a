// Package domain defines the core domain models for LinkGate.
//
// Domain models are pure value objects and entities without any
// IO dependencies or framework coupling. This package contains:
//
//   - Link: a secret-keyed, time-boxed grant to one resource
//   - Challenge: a short-lived numeric code bound to a link
//   - ClientCategory: the classifier's verdict on a request
//   - IssuerKey: credentials of upstream link issuers
//   - Errors: Domain-specific error definitions
//
// The logical state of a link (fresh, consumed, awaiting challenge,
// verified bypass, expired) is derived from its fields on every call
// and never stored.
//
// @req RQ-0201
// @design DS-0201
package domain
