// Package service provides domain services for LinkGate.
package service

import (
	"log/slog"
	"time"
)

// Option configures a service.
type Option func(*options)

type options struct {
	clock     Clock
	metrics   MetricsRecorder
	publisher EventPublisher
	logger    *slog.Logger
}

// WithClock sets the time source.
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithPublisher sets the audit event publisher.
func WithPublisher(p EventPublisher) Option {
	return func(o *options) {
		if p != nil {
			o.publisher = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{
		clock:     time.Now,
		metrics:   nopRecorder{},
		publisher: nopPublisher{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
