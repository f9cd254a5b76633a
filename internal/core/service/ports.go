// Package service provides domain services for LinkGate.
package service

import (
	"context"
	"time"

	"github.com/yndnr/linkgate-go/internal/core/domain"
)

// Clock returns the current time. Services and the store take one so tests
// can drive time explicitly.
type Clock func() time.Time

// LinkRepository defines the storage interface for links.
//
// All mutating operations are serialized by the implementation; fn passed to
// Update runs under that serialization and must not block.
//
// @design DS-0202
type LinkRepository interface {
	// Issue creates a link and returns its plaintext secret.
	Issue(ctx context.Context, resourceID, ownerContact string, ttl time.Duration) (string, *domain.Link, error)

	// Resolve returns the live link for secret and records an access.
	// Expired links are deleted and reported as domain.ErrLinkExpired.
	Resolve(ctx context.Context, secret string) (*domain.Link, error)

	// Update applies fn to the live link for secret atomically.
	// It does not count as an access.
	Update(ctx context.Context, secret string, fn func(*domain.Link) error) (*domain.Link, error)

	// Discard removes the link for secret.
	Discard(ctx context.Context, secret string) error

	// Sweep removes every link that expired before now and returns the count.
	Sweep(now time.Time) int

	// Snapshot returns redacted summaries of all links.
	Snapshot() []domain.LinkSummary

	// Stats returns store counters.
	Stats() StoreStats
}

// StoreStats holds link store counters.
type StoreStats struct {
	Live      int    `json:"live"`
	Issued    uint64 `json:"issued_total"`
	Swept     uint64 `json:"swept_total"`
	Discarded uint64 `json:"discarded_total"`
	Expired   uint64 `json:"lazily_expired_total"`
	LastSweep int64  `json:"last_sweep_at"`
}

// Deliverer sends a text message to an out-of-band contact.
type Deliverer interface {
	Send(ctx context.Context, to, text string) error
}

// EventPublisher publishes access audit events.
type EventPublisher interface {
	PublishAccess(ctx context.Context, event *AccessEvent) error
}

// AccessEvent describes one gatekeeper decision for the audit trail.
type AccessEvent struct {
	LinkID     string                `json:"link_id,omitempty"`
	ResourceID string                `json:"resource_id"`
	Outcome    Outcome               `json:"outcome"`
	DenyReason DenyReason            `json:"deny_reason,omitempty"`
	Category   domain.ClientCategory `json:"category,omitempty"`
	Reason     string                `json:"reason,omitempty"`
	ClientIP   string                `json:"client_ip,omitempty"`
	UserAgent  string                `json:"user_agent,omitempty"`
	Anomaly    bool                  `json:"anomaly,omitempty"`
	OccurredAt time.Time             `json:"occurred_at"`
}

// MetricsRecorder receives counters from the services.
type MetricsRecorder interface {
	RecordLinkIssued()
	RecordAccessDecision(outcome, category string)
	RecordChallengeIssued()
	RecordChallengeCheck(result string)
	RecordDelivery(result string)
	AddLinksSwept(n int)
	SetLinksActive(n int)
}

type nopRecorder struct{}

func (nopRecorder) RecordLinkIssued() {}
func (nopRecorder) RecordAccessDecision(string, string) {}
func (nopRecorder) RecordChallengeIssued() {}
func (nopRecorder) RecordChallengeCheck(string) {}
func (nopRecorder) RecordDelivery(string) {}
func (nopRecorder) AddLinksSwept(int) {}
func (nopRecorder) SetLinksActive(int) {}

type nopPublisher struct{}

func (nopPublisher) PublishAccess(context.Context, *AccessEvent) error { return nil }
