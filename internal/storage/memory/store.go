// Package memory provides the in-memory link store for LinkGate.
package memory

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/yndnr/linkgate-go/internal/core/domain"
	"github.com/yndnr/linkgate-go/internal/core/service"
	"github.com/yndnr/linkgate-go/pkg/cmap"
)

// DefaultMaxLinks is the default cap on live links.
const DefaultMaxLinks = 100000

// issueRetries bounds regeneration after a secret hash collision.
const issueRetries = 3

// Store provides in-memory link storage.
type Store struct {
	// Primary index: SecretHash -> Link
	links *cmap.Map[string, *domain.Link]

	clock    service.Clock
	bypass   time.Duration
	maxLinks int

	issued    atomic.Uint64
	swept     atomic.Uint64
	discarded atomic.Uint64
	expired   atomic.Uint64
	lastSweep atomic.Int64
}

var _ service.LinkRepository = (*Store)(nil)

// Option configures the Store.
type Option func(*Store)

// WithClock sets the time source.
func WithClock(clock service.Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithBypassWindow sets the window used to derive link state in snapshots.
func WithBypassWindow(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.bypass = d
		}
	}
}

// WithMaxLinks sets the maximum number of live links (0 = unlimited).
func WithMaxLinks(max int) Option {
	return func(s *Store) {
		s.maxLinks = max
	}
}

// WithShards sets the shard count of the underlying map.
func WithShards(n int) Option {
	return func(s *Store) {
		s.links = cmap.NewWithShards[string, *domain.Link](n)
	}
}

// New creates a new in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		links:    cmap.New[string, *domain.Link](),
		clock:    time.Now,
		bypass:   domain.DefaultBypassWindow,
		maxLinks: DefaultMaxLinks,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue creates a link and returns its plaintext secret with a copy of the
// stored link.
func (s *Store) Issue(_ context.Context, resourceID, ownerContact string, ttl time.Duration) (string, *domain.Link, error) {
	now := s.clock()

	if s.maxLinks > 0 && s.links.Count() >= s.maxLinks {
		// Reclaim expired entries before refusing.
		s.Sweep(now)
		if s.links.Count() >= s.maxLinks {
			return "", nil, domain.ErrLinkCapacity
		}
	}

	for i := 0; i < issueRetries; i++ {
		secret, _, err := domain.GenerateSecret()
		if err != nil {
			return "", nil, err
		}

		link, err := domain.NewLink(secret, resourceID, ownerContact, now, ttl)
		if err != nil {
			return "", nil, err
		}

		if s.links.SetIfAbsent(link.SecretHash, link) {
			s.issued.Add(1)
			return secret, link.Clone(), nil
		}
	}

	return "", nil, domain.ErrEntropyExhausted.WithDetails("secret collision")
}

// Resolve returns the live link for secret and records an access on it.
func (s *Store) Resolve(_ context.Context, secret string) (*domain.Link, error) {
	now := s.clock()
	var (
		out    *domain.Link
		resErr error
	)

	s.links.Compute(domain.HashSecret(secret), func(l *domain.Link, ok bool) (*domain.Link, cmap.Op) {
		if !ok {
			resErr = domain.ErrLinkInvalid
			return nil, cmap.Keep
		}
		if l.IsExpired(now) {
			s.expired.Add(1)
			resErr = domain.ErrLinkExpired
			return nil, cmap.Remove
		}

		l.RecordAccess(now)
		out = l.Clone()
		return l, cmap.Store
	})

	return out, resErr
}

// Update applies fn to a copy of the live link and stores the copy only if
// fn returns nil. fn's error is returned unchanged. It does not count as an
// access.
func (s *Store) Update(_ context.Context, secret string, fn func(*domain.Link) error) (*domain.Link, error) {
	now := s.clock()
	var (
		out    *domain.Link
		resErr error
	)

	s.links.Compute(domain.HashSecret(secret), func(l *domain.Link, ok bool) (*domain.Link, cmap.Op) {
		if !ok {
			resErr = domain.ErrLinkInvalid
			return nil, cmap.Keep
		}
		if l.IsExpired(now) {
			s.expired.Add(1)
			resErr = domain.ErrLinkExpired
			return nil, cmap.Remove
		}

		next := l.Clone()
		if err := fn(next); err != nil {
			resErr = err
			return l, cmap.Keep
		}
		out = next.Clone()
		return next, cmap.Store
	})

	return out, resErr
}

// Discard removes the link for secret.
func (s *Store) Discard(_ context.Context, secret string) error {
	if _, ok := s.links.Pop(domain.HashSecret(secret)); !ok {
		return domain.ErrLinkInvalid
	}
	s.discarded.Add(1)
	return nil
}

// Sweep removes every link expired at now and returns the count.
func (s *Store) Sweep(now time.Time) int {
	n := s.links.DeleteIf(func(_ string, l *domain.Link) bool {
		return l.IsExpired(now)
	})
	s.swept.Add(uint64(n))
	s.lastSweep.Store(now.UnixMilli())
	return n
}

// Snapshot returns redacted summaries of all links, oldest first.
// Expired links that have not been swept yet are included and marked.
func (s *Store) Snapshot() []domain.LinkSummary {
	now := s.clock()
	out := make([]domain.LinkSummary, 0, s.links.Count())
	s.links.Range(func(_ string, l *domain.Link) bool {
		out = append(out, l.Summary(now, s.bypass))
		return true
	})

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Count returns the number of stored links, including expired ones not
// yet swept.
func (s *Store) Count() int {
	return s.links.Count()
}

// Stats returns store counters.
func (s *Store) Stats() service.StoreStats {
	return service.StoreStats{
		Live:      s.links.Count(),
		Issued:    s.issued.Load(),
		Swept:     s.swept.Load(),
		Discarded: s.discarded.Load(),
		Expired:   s.expired.Load(),
		LastSweep: s.lastSweep.Load(),
	}
}
