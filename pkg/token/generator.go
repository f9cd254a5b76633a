// Package token provides secret generation and hashing utilities.
package token

import (
	"crypto/rand"
	"encoding/base64"
)

// DefaultLength is the default secret length in bytes (256 bits).
const DefaultLength = 32

// Generate generates a cryptographically secure random secret body.
//
// The returned value is Base64 RawURL encoded for safe use in URL paths.
func Generate() (string, error) {
	return GenerateWithLength(DefaultLength)
}

// GenerateWithLength generates a secret body from length random bytes.
func GenerateWithLength(length int) (string, error) {
	b, err := GenerateBytes(length)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GeneratePrefixed generates prefix followed by a DefaultLength body.
func GeneratePrefixed(prefix string) (string, error) {
	body, err := Generate()
	if err != nil {
		return "", err
	}
	return prefix + body, nil
}

// GenerateBytes generates random bytes.
func GenerateBytes(length int) ([]byte, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// IsBody reports whether s decodes as a Base64 RawURL body of length bytes.
func IsBody(s string, length int) bool {
	if len(s) != base64.RawURLEncoding.EncodedLen(length) {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(s)
	return err == nil
}
