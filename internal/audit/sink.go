// Package audit carries gatekeeper access events over an in-process bus.
package audit

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yndnr/linkgate-go/internal/core/service"
)

// LogSink writes access events to the structured log.
type LogSink struct {
	logger *slog.Logger
	done   chan struct{}
}

// NewLogSink creates a sink logging through logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{
		logger: logger.With("component", "audit"),
		done:   make(chan struct{}),
	}
}

// Start subscribes to the bus and consumes until ctx ends or the bus closes.
func (s *LogSink) Start(ctx context.Context, bus *Bus) error {
	msgs, err := bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	go s.run(msgs)
	return nil
}

// Done closes when the sink has stopped consuming.
func (s *LogSink) Done() <-chan struct{} {
	return s.done
}

func (s *LogSink) run(msgs <-chan *message.Message) {
	defer close(s.done)
	for msg := range msgs {
		s.handle(msg)
		msg.Ack()
	}
}

func (s *LogSink) handle(msg *message.Message) {
	ev, err := DecodeAccess(msg)
	if err != nil {
		s.logger.Error("dropping malformed audit event", "error", err)
		return
	}

	attrs := []any{
		"event_id", msg.UUID,
		"link_id", ev.LinkID,
		"resource_id", ev.ResourceID,
		"outcome", ev.Outcome,
		"category", ev.Category,
		"client_ip", ev.ClientIP,
		"occurred_at", ev.OccurredAt,
	}
	if ev.DenyReason != "" {
		attrs = append(attrs, "deny_reason", ev.DenyReason)
	}
	if ev.Reason != "" {
		attrs = append(attrs, "reason", ev.Reason)
	}

	switch {
	case ev.Anomaly:
		s.logger.Warn("access anomaly", append(attrs, "user_agent", ev.UserAgent)...)
	case ev.Outcome == service.OutcomeDenied:
		s.logger.Info("access denied", attrs...)
	default:
		s.logger.Debug("access decided", attrs...)
	}
}
