// Package token provides secret generation and hashing utilities.
package token

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash computes the hex SHA-256 hash of a secret.
func Hash(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}

// HashPrefixed computes prefix followed by the hex SHA-256 hash of secret.
// The result is used as a storage key.
func HashPrefixed(prefix, secret string) string {
	return prefix + Hash(secret)
}
