// Package shutdown provides graceful shutdown handling.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

type hook struct {
	name string
	fn   func(context.Context) error
}

// Handler coordinates graceful shutdown and SIGHUP reloads.
type Handler struct {
	timeout   time.Duration
	hooks     []hook
	reloads   []func()
	mu        sync.Mutex
	trigger   chan struct{}
	trigOnce  sync.Once
	done      chan struct{}
	logger    *slog.Logger
	notifySig func(chan<- os.Signal, ...os.Signal)
}

// NewHandler creates a new shutdown handler.
func NewHandler(timeout time.Duration, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		timeout:   timeout,
		hooks:     make([]hook, 0),
		trigger:   make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger,
		notifySig: signal.Notify,
	}
}

// OnShutdown registers a named shutdown hook.
// Hooks are called in reverse order of registration.
func (h *Handler) OnShutdown(name string, fn func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook{name: name, fn: fn})
}

// OnReload registers a callback run on SIGHUP.
func (h *Handler) OnReload(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reloads = append(h.reloads, fn)
}

// Trigger starts shutdown without a signal.
func (h *Handler) Trigger() {
	h.trigOnce.Do(func() { close(h.trigger) })
}

// Wait blocks until SIGINT, SIGTERM, Trigger or ctx cancellation, then runs
// every hook within the timeout. All hook errors are joined.
func (h *Handler) Wait(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	h.notifySig(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

wait:
	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				h.runReloads()
				continue
			}
			h.logger.Info("shutdown signal received", "signal", sig.String())
			break wait
		case <-h.trigger:
			h.logger.Info("shutdown triggered")
			break wait
		case <-ctx.Done():
			h.logger.Info("shutdown on context cancel")
			break wait
		}
	}

	return h.runHooks()
}

// Done returns a channel that closes when shutdown is complete.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

func (h *Handler) runReloads() {
	h.mu.Lock()
	reloads := make([]func(), len(h.reloads))
	copy(reloads, h.reloads)
	h.mu.Unlock()

	h.logger.Info("reload signal received", "callbacks", len(reloads))
	for _, fn := range reloads {
		fn()
	}
}

func (h *Handler) runHooks() error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	defer close(h.done)

	h.mu.Lock()
	hooks := make([]hook, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		start := time.Now()
		if err := hooks[i].fn(ctx); err != nil {
			h.logger.Error("shutdown hook failed", "hook", hooks[i].name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", hooks[i].name, err))
			continue
		}
		h.logger.Debug("shutdown hook done", "hook", hooks[i].name, "duration", time.Since(start))
	}
	return errors.Join(errs...)
}
