// Package domain defines the core domain models for LinkGate.
package domain

import (
	"testing"
	"time"
)

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode() error = %v", err)
		}
		if len(code) != ChallengeCodeLength {
			t.Fatalf("len(code) = %d, want %d (code %q)", len(code), ChallengeCodeLength, code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("code %q contains non-digit %q", code, r)
			}
		}
	}
}

func TestNewChallenge(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c, err := NewChallenge(now, ChallengeTTL)
	if err != nil {
		t.Fatalf("NewChallenge() error = %v", err)
	}
	if c.Attempts != 0 {
		t.Errorf("Attempts = %d, want 0", c.Attempts)
	}
	if want := now.Add(5 * time.Minute).UnixMilli(); c.ExpiresAt != want {
		t.Errorf("ExpiresAt = %d, want %d", c.ExpiresAt, want)
	}
	if c.IsExpired(now.Add(5 * time.Minute)) {
		t.Error("IsExpired at exact expiry = true, want false")
	}
	if !c.IsExpired(now.Add(5*time.Minute + time.Millisecond)) {
		t.Error("IsExpired after expiry = false, want true")
	}
}

func TestChallenge_Matches(t *testing.T) {
	c := &Challenge{Code: "012345"}

	tests := []struct {
		submitted string
		want      bool
	}{
		{"012345", true},
		{"  012345\n", true},
		{"12345", false},
		{"012346", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.submitted, func(t *testing.T) {
			if got := c.Matches(tt.submitted); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.submitted, got, tt.want)
			}
		})
	}
}

func TestChallenge_AttemptsRemaining(t *testing.T) {
	c := &Challenge{}
	for attempts, want := range []int{3, 2, 1, 0, 0} {
		c.Attempts = attempts
		if got := c.AttemptsRemaining(MaxChallengeAttempts); got != want {
			t.Errorf("AttemptsRemaining() with %d attempts = %d, want %d", attempts, got, want)
		}
	}
}

func TestChallenge_CloneNil(t *testing.T) {
	var c *Challenge
	if c.Clone() != nil {
		t.Error("Clone() of nil challenge should be nil")
	}
}
