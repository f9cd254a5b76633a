// Package token provides secret generation and hashing utilities.
//
// Secrets are opaque bearer strings made of a short type prefix and a
// Base64 RawURL body drawn from crypto/rand. Only their SHA-256 digests are
// ever stored.
//
// Format:
//
//   - Secret: <prefix><43 chars of Base64 RawURL> for 32 random bytes
//   - Hash:   <prefix><64 chars of hex SHA-256>
//
// LinkGate uses lgs_/lgh_ for link secrets and lgk_ for issuer keys.
//
// @design DS-0201
package token
