// Package domain defines the core domain models for LinkGate.
package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/linkgate-go/pkg/token"
)

// Link secret constants.
const (
	// SecretPrefix is the prefix for link secrets (sensitive, uses underscore).
	SecretPrefix = "lgs_"

	// SecretHashPrefix is the prefix for secret hashes.
	SecretHashPrefix = "lgh_"

	// SecretBytesLength is the number of random bytes behind a secret (256 bits).
	SecretBytesLength = 32

	// SecretBodyLength is the Base64 RawURL encoded length (32 bytes -> 43 chars).
	SecretBodyLength = 43

	// SecretLength is the total secret length (prefix + body).
	SecretLength = 4 + SecretBodyLength // lgs_ + 43 = 47

	// SecretHintLength is how much of a secret survives redaction in snapshots.
	SecretHintLength = 8

	// LinkIDPrefix is the prefix for diagnostic link IDs.
	LinkIDPrefix = "lnk_"
)

// GenerateSecret generates a link secret and its hash.
// The plaintext is handed to the issuer once and never stored.
//
// @design DS-0201
func GenerateSecret() (plaintext string, hash string, err error) {
	plaintext, err = token.GeneratePrefixed(SecretPrefix)
	if err != nil {
		return "", "", ErrEntropyExhausted.WithCause(err)
	}
	return plaintext, HashSecret(plaintext), nil
}

// HashSecret computes the storage key for a secret.
// Format: lgh_{hex_sha256}.
func HashSecret(plaintext string) string {
	return token.HashPrefixed(SecretHashPrefix, plaintext)
}

// ValidateSecretFormat checks if a string has valid link secret format.
func ValidateSecretFormat(secret string) bool {
	if len(secret) != SecretLength || !strings.HasPrefix(secret, SecretPrefix) {
		return false
	}
	return token.IsBody(secret[len(SecretPrefix):], SecretBytesLength)
}

// SecretHint returns the short prefix of a secret that is safe to show in
// diagnostics.
func SecretHint(secret string) string {
	if len(secret) <= SecretHintLength {
		return "***"
	}
	return secret[:SecretHintLength] + "..."
}

// GenerateLinkID generates a new link ID using ULID.
// Format: lnk_{ulid_lowercase}.
func GenerateLinkID(now time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		return "", ErrEntropyExhausted.WithCause(err)
	}
	return LinkIDPrefix + strings.ToLower(id.String()), nil
}
