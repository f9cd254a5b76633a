// Package domain defines the core domain models for LinkGate.
package domain

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Challenge constants.
const (
	// ChallengeCodeLength is the number of decimal digits in a code.
	ChallengeCodeLength = 6

	// ChallengeTTL is how long an issued code stays valid.
	ChallengeTTL = 5 * time.Minute

	// MaxChallengeAttempts is the number of checks allowed per challenge.
	// The check that pushes the count past this value destroys the link.
	MaxChallengeAttempts = 3
)

var codeSpace = big.NewInt(1_000_000)

// Challenge is a pending verification code bound to a link.
//
// @design DS-0203
type Challenge struct {
	// Code is the 6-digit code, leading zeros preserved.
	Code string `json:"-"`

	// ExpiresAt is the code expiry (Unix milliseconds).
	ExpiresAt int64 `json:"expires_at"`

	// Attempts counts every check made against this code.
	Attempts int `json:"attempts"`
}

// NewChallenge creates a challenge with a fresh code that expires after ttl.
func NewChallenge(now time.Time, ttl time.Duration) (*Challenge, error) {
	code, err := GenerateCode()
	if err != nil {
		return nil, err
	}
	return &Challenge{
		Code:      code,
		ExpiresAt: now.Add(ttl).UnixMilli(),
	}, nil
}

// GenerateCode returns a uniformly random 6-digit decimal code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", ErrEntropyExhausted.WithCause(err)
	}
	return fmt.Sprintf("%0*d", ChallengeCodeLength, n.Int64()), nil
}

// IsExpired reports whether the code is past its expiry at now.
func (c *Challenge) IsExpired(now time.Time) bool {
	return now.UnixMilli() > c.ExpiresAt
}

// Matches compares a submitted code after trimming surrounding whitespace.
func (c *Challenge) Matches(submitted string) bool {
	submitted = strings.TrimSpace(submitted)
	return subtle.ConstantTimeCompare([]byte(c.Code), []byte(submitted)) == 1
}

// AttemptsRemaining returns how many more checks are allowed.
func (c *Challenge) AttemptsRemaining(max int) int {
	if left := max - c.Attempts; left > 0 {
		return left
	}
	return 0
}

// Clone returns a copy of the challenge.
func (c *Challenge) Clone() *Challenge {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
