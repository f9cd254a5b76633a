// Package domain defines the core domain models for LinkGate.
package domain

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/yndnr/linkgate-go/pkg/token"
)

// Issuer key constants.
const (
	// IssuerKeySecretPrefix is the prefix for issuer key secrets.
	IssuerKeySecretPrefix = "lgk_"

	// IssuerKeySecretBytes is the random length of a generated secret (256 bits).
	IssuerKeySecretBytes = 32
)

// Argon2 parameters for issuer key secret hashing.
const (
	// Argon2Memory is the memory parameter in KB (16 MB).
	Argon2Memory uint32 = 16384

	// Argon2Time is the iteration count.
	Argon2Time uint32 = 2

	// Argon2Parallelism is the parallelism factor.
	Argon2Parallelism uint8 = 2

	// Argon2KeyLen is the output hash length in bytes.
	Argon2KeyLen uint32 = 32

	// Argon2SaltLen is the salt length in bytes.
	Argon2SaltLen = 16
)

// Role defines what an issuer key may do.
type Role string

const (
	// RoleMetrics may only read /metrics.
	RoleMetrics Role = "metrics"

	// RoleIssuer may issue links.
	RoleIssuer Role = "issuer"

	// RoleAdmin may additionally read link stats and trigger sweeps.
	RoleAdmin Role = "admin"
)

// IsValidRole checks if a string is a valid role.
func IsValidRole(r string) bool {
	switch Role(r) {
	case RoleMetrics, RoleIssuer, RoleAdmin:
		return true
	}
	return false
}

// RoleHierarchy returns the rank of a role; higher ranks include lower ones.
func RoleHierarchy(role Role) int {
	switch role {
	case RoleMetrics:
		return 1
	case RoleIssuer:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

// IsRoleAtLeast reports whether role includes the permissions of required.
func IsRoleAtLeast(role, required Role) bool {
	return RoleHierarchy(role) >= RoleHierarchy(required)
}

// IssuerKey is a credential held by an upstream component that issues links.
// Keys are declared in configuration; only the Argon2id hash of the secret is
// kept.
type IssuerKey struct {
	ID         string `json:"id" koanf:"id"`
	SecretHash string `json:"-" koanf:"secret_hash"`
	Role       Role   `json:"role" koanf:"role"`

	// RateLimit is the allowed requests per second for this key (0 = unlimited).
	RateLimit int `json:"rate_limit" koanf:"rate_limit"`
}

// Validate checks the key declaration.
func (k *IssuerKey) Validate() error {
	if k.ID == "" {
		return ErrInvalidArgument.WithDetails("issuer key id is required")
	}
	if !strings.HasPrefix(k.SecretHash, "$argon2id$") {
		return ErrInvalidArgument.WithDetails(fmt.Sprintf("issuer key %s: secret_hash must be an argon2id hash", k.ID))
	}
	if !IsValidRole(string(k.Role)) {
		return ErrInvalidArgument.WithDetails(fmt.Sprintf("issuer key %s: invalid role %q", k.ID, k.Role))
	}
	if k.RateLimit < 0 {
		return ErrInvalidArgument.WithDetails(fmt.Sprintf("issuer key %s: rate_limit must not be negative", k.ID))
	}
	return nil
}

// GenerateIssuerSecret returns a new plaintext issuer secret and its hash.
func GenerateIssuerSecret() (plaintext, hash string, err error) {
	plaintext, err = token.GeneratePrefixed(IssuerKeySecretPrefix)
	if err != nil {
		return "", "", ErrEntropyExhausted.WithCause(err)
	}
	hash, err = HashIssuerSecret(plaintext)
	if err != nil {
		return "", "", err
	}
	return plaintext, hash, nil
}

// HashIssuerSecret computes an Argon2id hash of the secret.
// Format: $argon2id$v=19$m=16384,t=2,p=2$<salt>$<hash>
func HashIssuerSecret(secret string) (string, error) {
	salt, err := token.GenerateBytes(Argon2SaltLen)
	if err != nil {
		return "", ErrEntropyExhausted.WithCause(err)
	}

	hash := argon2.IDKey([]byte(secret), salt, Argon2Time, Argon2Memory, Argon2Parallelism, Argon2KeyLen)

	saltB64 := base64.RawStdEncoding.EncodeToString(salt)
	hashB64 := base64.RawStdEncoding.EncodeToString(hash)

	return "$argon2id$v=19$m=16384,t=2,p=2$" + saltB64 + "$" + hashB64, nil
}

// VerifyIssuerSecret verifies a secret against an Argon2id hash.
func VerifyIssuerSecret(secret, hash string) bool {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(secret), salt, Argon2Time, Argon2Memory, Argon2Parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1
}
