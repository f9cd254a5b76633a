// Package service provides domain services for LinkGate.
package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/linkgate-go/internal/core/domain"
)

// Sweeper periodically removes expired links so unvisited links do not
// accumulate. Lazy expiry on lookup remains the primary mechanism.
type Sweeper struct {
	repo     LinkRepository
	interval time.Duration
	clock    Clock
	metrics  MetricsRecorder
	logger   *slog.Logger

	started atomic.Bool
	once    sync.Once
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSweeper creates a sweeper. A non-positive interval uses the default.
func NewSweeper(repo LinkRepository, interval time.Duration, opts ...Option) *Sweeper {
	if interval <= 0 {
		interval = domain.DefaultSweepInterval
	}
	o := applyOptions(opts)

	return &Sweeper{
		repo:     repo,
		interval: interval,
		clock:    o.clock,
		metrics:  o.metrics,
		logger:   o.logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background loop. It returns immediately.
func (s *Sweeper) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.loop(ctx)
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.SweepNow()
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// SweepNow runs one sweep synchronously and returns the number removed.
func (s *Sweeper) SweepNow() int {
	n := s.repo.Sweep(s.clock())

	s.metrics.AddLinksSwept(n)
	s.metrics.SetLinksActive(s.repo.Stats().Live)
	if n > 0 {
		s.logger.Info("expired links swept", "count", n)
	}
	return n
}

// Stop halts the loop and waits for it to exit. Safe to call more than once.
func (s *Sweeper) Stop() {
	s.once.Do(func() {
		close(s.stopCh)
	})
	if s.started.Load() {
		<-s.doneCh
	}
}
