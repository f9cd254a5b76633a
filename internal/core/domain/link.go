// Package domain defines the core domain models for LinkGate.
package domain

import (
	"strings"
	"time"
)

// Link constraints.
const (
	MaxResourceIDLength   = 255
	MaxOwnerContactLength = 128
	MaxOriginLength       = 45 // IPv6 max length

	// DefaultLinkTTL is the lifetime of a link when the issuer does not ask for one.
	DefaultLinkTTL = 10 * time.Minute

	// MaxLinkTTL caps the lifetime an issuer can request.
	MaxLinkTTL = 24 * time.Hour

	// DefaultBypassWindow is how long after a successful verification access
	// is granted without a new challenge.
	DefaultBypassWindow = 30 * time.Second

	// DefaultSweepInterval is the period between background removals of
	// expired links.
	DefaultSweepInterval = 5 * time.Minute
)

// Link is a single-resource, time-boxed access grant.
// The plaintext secret is never stored; the link is keyed by its hash.
//
// @req RQ-0201
// @design DS-0201
type Link struct {
	// ID is a diagnostic identifier (lnk_...). It is not a credential.
	ID string `json:"id"`

	// SecretHash is the SHA-256 hash of the secret (lgh_...).
	SecretHash string `json:"-"`

	// SecretHint is the redacted secret prefix shown in snapshots.
	SecretHint string `json:"secret_hint"`

	// ResourceID is the resource this link grants. Immutable.
	ResourceID string `json:"resource_id"`

	// OwnerContact is the out-of-band destination for verification codes.
	OwnerContact string `json:"-"`

	// CreatedAt and ExpiresAt are Unix milliseconds. ExpiresAt is never extended.
	CreatedAt int64 `json:"created_at"`
	ExpiresAt int64 `json:"expires_at"`

	// Access counters, updated on every successful resolution.
	AccessCount   uint64 `json:"access_count"`
	FirstAccessAt int64  `json:"first_access_at"`
	LastAccessAt  int64  `json:"last_access_at"`

	// FirstHumanAccessGranted is set once the single unchallenged human access
	// has been used.
	FirstHumanAccessGranted bool `json:"first_human_access_granted"`

	// FirstHumanAccessOrigin is the client address at that moment (diagnostic only).
	FirstHumanAccessOrigin string `json:"-"`

	// PendingChallenge is the live challenge, if any.
	PendingChallenge *Challenge `json:"pending_challenge,omitempty"`

	// LastVerifiedAt is the time of the most recent successful challenge.
	LastVerifiedAt int64 `json:"last_verified_at"`
}

// NewLink creates a link bound to resourceID that expires ttl after now.
func NewLink(secret, resourceID, ownerContact string, now time.Time, ttl time.Duration) (*Link, error) {
	id, err := GenerateLinkID(now)
	if err != nil {
		return nil, err
	}

	l := &Link{
		ID:           id,
		SecretHash:   HashSecret(secret),
		SecretHint:   SecretHint(secret),
		ResourceID:   resourceID,
		OwnerContact: ownerContact,
		CreatedAt:    now.UnixMilli(),
		ExpiresAt:    now.Add(ttl).UnixMilli(),
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate checks issuance input.
func (l *Link) Validate() error {
	if strings.TrimSpace(l.ResourceID) == "" {
		return ErrLinkValidation.WithDetails("resource_id is required")
	}
	if len(l.ResourceID) > MaxResourceIDLength {
		return ErrLinkValidation.WithDetails("resource_id too long")
	}
	if strings.TrimSpace(l.OwnerContact) == "" {
		return ErrLinkValidation.WithDetails("owner_contact is required")
	}
	if len(l.OwnerContact) > MaxOwnerContactLength {
		return ErrLinkValidation.WithDetails("owner_contact too long")
	}
	if l.ExpiresAt <= l.CreatedAt {
		return ErrLinkValidation.WithDetails("ttl must be positive")
	}
	return nil
}

// IsExpired reports whether the link is past its expiry at now.
func (l *Link) IsExpired(now time.Time) bool {
	return now.UnixMilli() > l.ExpiresAt
}

// RecordAccess updates the access counters for a successful resolution.
func (l *Link) RecordAccess(now time.Time) {
	ms := now.UnixMilli()
	l.AccessCount++
	if l.FirstAccessAt == 0 {
		l.FirstAccessAt = ms
	}
	l.LastAccessAt = ms
}

// InBypassWindow reports whether now falls within window of the last
// successful verification.
func (l *Link) InBypassWindow(now time.Time, window time.Duration) bool {
	if l.LastVerifiedAt == 0 {
		return false
	}
	return now.UnixMilli()-l.LastVerifiedAt < window.Milliseconds()
}

// MarkFirstHumanAccess consumes the unchallenged human access.
// It returns false if the access was already consumed.
func (l *Link) MarkFirstHumanAccess(origin string) bool {
	if l.FirstHumanAccessGranted {
		return false
	}
	if len(origin) > MaxOriginLength {
		origin = origin[:MaxOriginLength]
	}
	l.FirstHumanAccessGranted = true
	l.FirstHumanAccessOrigin = origin
	return true
}

// Clone creates a deep copy of the link.
func (l *Link) Clone() *Link {
	if l == nil {
		return nil
	}
	clone := *l
	clone.PendingChallenge = l.PendingChallenge.Clone()
	return &clone
}

// LinkState is the logical state of a link, derived from its fields.
type LinkState string

// Link states.
const (
	LinkStateFresh             LinkState = "fresh"
	LinkStateConsumed          LinkState = "consumed"
	LinkStateAwaitingChallenge LinkState = "awaiting_challenge"
	LinkStateVerifiedBypass    LinkState = "verified_bypass"
	LinkStateExpired           LinkState = "expired"
)

// State derives the logical state at now. The result is never stored.
func (l *Link) State(now time.Time, bypass time.Duration) LinkState {
	switch {
	case l.IsExpired(now):
		return LinkStateExpired
	case l.InBypassWindow(now, bypass):
		return LinkStateVerifiedBypass
	case l.PendingChallenge != nil && !l.PendingChallenge.IsExpired(now):
		return LinkStateAwaitingChallenge
	case l.FirstHumanAccessGranted:
		return LinkStateConsumed
	default:
		return LinkStateFresh
	}
}

// LinkSummary is the redacted view of a link used in diagnostics.
type LinkSummary struct {
	ID                      string    `json:"id"`
	SecretHint              string    `json:"secret_hint"`
	ResourceID              string    `json:"resource_id"`
	State                   LinkState `json:"state"`
	AccessCount             uint64    `json:"access_count"`
	FirstHumanAccessGranted bool      `json:"first_human_access_granted"`
	ChallengePending        bool      `json:"challenge_pending"`
	CreatedAt               time.Time `json:"created_at"`
	ExpiresAt               time.Time `json:"expires_at"`
	Expired                 bool      `json:"expired"`
}

// Summary builds the redacted diagnostic view of the link at now.
func (l *Link) Summary(now time.Time, bypass time.Duration) LinkSummary {
	return LinkSummary{
		ID:                      l.ID,
		SecretHint:              l.SecretHint,
		ResourceID:              l.ResourceID,
		State:                   l.State(now, bypass),
		AccessCount:             l.AccessCount,
		FirstHumanAccessGranted: l.FirstHumanAccessGranted,
		ChallengePending:        l.PendingChallenge != nil,
		CreatedAt:               time.UnixMilli(l.CreatedAt),
		ExpiresAt:               time.UnixMilli(l.ExpiresAt),
		Expired:                 l.IsExpired(now),
	}
}
