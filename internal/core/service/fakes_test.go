package service

import (
	"context"
	"sync"
	"time"

	"github.com/yndnr/linkgate-go/internal/core/domain"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: testNow} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeRepo is a single-mutex LinkRepository.
type fakeRepo struct {
	mu    sync.Mutex
	clock Clock
	links map[string]*domain.Link
	swept int
}

func newFakeRepo(clock Clock) *fakeRepo {
	return &fakeRepo{clock: clock, links: make(map[string]*domain.Link)}
}

func (r *fakeRepo) Issue(_ context.Context, resourceID, ownerContact string, ttl time.Duration) (string, *domain.Link, error) {
	secret, _, err := domain.GenerateSecret()
	if err != nil {
		return "", nil, err
	}
	link, err := domain.NewLink(secret, resourceID, ownerContact, r.clock(), ttl)
	if err != nil {
		return "", nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.links[link.SecretHash] = link
	return secret, link.Clone(), nil
}

func (r *fakeRepo) live(secret string) (*domain.Link, error) {
	h := domain.HashSecret(secret)
	l, ok := r.links[h]
	if !ok {
		return nil, domain.ErrLinkInvalid
	}
	if l.IsExpired(r.clock()) {
		delete(r.links, h)
		return nil, domain.ErrLinkExpired
	}
	return l, nil
}

func (r *fakeRepo) Resolve(_ context.Context, secret string) (*domain.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, err := r.live(secret)
	if err != nil {
		return nil, err
	}
	l.RecordAccess(r.clock())
	return l.Clone(), nil
}

func (r *fakeRepo) Update(_ context.Context, secret string, fn func(*domain.Link) error) (*domain.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, err := r.live(secret)
	if err != nil {
		return nil, err
	}
	next := l.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	r.links[l.SecretHash] = next
	return next.Clone(), nil
}

func (r *fakeRepo) Discard(_ context.Context, secret string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := domain.HashSecret(secret)
	if _, ok := r.links[h]; !ok {
		return domain.ErrLinkInvalid
	}
	delete(r.links, h)
	return nil
}

func (r *fakeRepo) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for h, l := range r.links {
		if l.IsExpired(now) {
			delete(r.links, h)
			n++
		}
	}
	r.swept += n
	return n
}

func (r *fakeRepo) Snapshot() []domain.LinkSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.LinkSummary, 0, len(r.links))
	for _, l := range r.links {
		out = append(out, l.Summary(r.clock(), domain.DefaultBypassWindow))
	}
	return out
}

func (r *fakeRepo) Stats() StoreStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return StoreStats{Live: len(r.links), Swept: uint64(r.swept)}
}

// peek returns a copy of the stored link without touching it.
func (r *fakeRepo) peek(secret string) *domain.Link {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.links[domain.HashSecret(secret)].Clone()
}

// recordingDeliverer captures sent messages.
type recordingDeliverer struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

type sentMessage struct {
	To   string
	Text string
}

func (d *recordingDeliverer) Send(_ context.Context, to, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, sentMessage{To: to, Text: text})
	return d.err
}

func (d *recordingDeliverer) messages() []sentMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]sentMessage(nil), d.sent...)
}

// blockingDeliverer blocks until released.
type blockingDeliverer struct {
	release chan struct{}
}

func (d *blockingDeliverer) Send(ctx context.Context, _, _ string) error {
	select {
	case <-d.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// recordingMetrics counts recorder calls.
type recordingMetrics struct {
	mu        sync.Mutex
	issued    int
	decisions map[string]int
	checks    map[string]int
	delivery  map[string]int
	swept     int
	active    int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		decisions: make(map[string]int),
		checks:    make(map[string]int),
		delivery:  make(map[string]int),
	}
}

func (m *recordingMetrics) RecordLinkIssued() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issued++
}

func (m *recordingMetrics) RecordAccessDecision(outcome, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions[outcome]++
}

func (m *recordingMetrics) RecordChallengeIssued() {}

func (m *recordingMetrics) RecordChallengeCheck(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[result]++
}

func (m *recordingMetrics) RecordDelivery(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delivery[result]++
}

func (m *recordingMetrics) AddLinksSwept(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.swept += n
}

func (m *recordingMetrics) SetLinksActive(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = n
}

// recordingPublisher captures access events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []AccessEvent
}

func (p *recordingPublisher) PublishAccess(_ context.Context, e *AccessEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *e)
	return nil
}

func (p *recordingPublisher) last() AccessEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}
