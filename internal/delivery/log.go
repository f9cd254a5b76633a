// Package delivery sends verification codes to link owners out of band.
package delivery

import (
	"context"
	"log/slog"

	"github.com/yndnr/linkgate-go/internal/core/service"
)

// LogDeliverer writes messages to the log instead of sending them.
// The contact is redacted by the logger; the text is logged verbatim,
// so use it only where codes may be read from logs.
type LogDeliverer struct {
	logger *slog.Logger
}

// NewLogDeliverer creates a log-only deliverer.
func NewLogDeliverer(logger *slog.Logger) *LogDeliverer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDeliverer{logger: logger}
}

// Send logs the message.
func (d *LogDeliverer) Send(ctx context.Context, to, text string) error {
	if to == "" {
		return ErrEmptyContact
	}
	d.logger.InfoContext(ctx, "delivery (log mode)", "to", to, "message", text)
	return nil
}

var _ service.Deliverer = (*LogDeliverer)(nil)
