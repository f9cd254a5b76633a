// Package memory provides the in-memory link store for LinkGate.
//
// Links are kept in a sharded concurrent map keyed by the hash of their
// secret. Every read-modify-write on a link runs under its shard's write
// lock, so concurrent requests for the same link are serialized while
// unrelated links proceed in parallel.
//
// Expiry is enforced lazily: any lookup that finds an expired link deletes
// it and reports it as expired. Sweep removes the rest in bulk.
//
// Nothing is persisted; a restart invalidates every outstanding link.
//
// @design DS-0202
package memory
