// Package delivery sends verification codes to link owners out of band.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/yndnr/linkgate-go/internal/core/service"
	"github.com/yndnr/linkgate-go/internal/infra/buildinfo"
)

// IdempotencyHeader carries a unique key per message so a relay can drop
// duplicates caused by client retries.
const IdempotencyHeader = "Idempotency-Key"

// Relay errors.
var (
	ErrEmptyContact  = errors.New("delivery: empty contact")
	ErrEmptyMessage  = errors.New("delivery: empty message")
	ErrRelayRejected = errors.New("delivery: relay rejected message")
)

// RelayConfig configures the relay client.
type RelayConfig struct {
	// URL is the relay endpoint, e.g. http://127.0.0.1:3001/send-message.
	URL string

	// AuthToken is sent as a bearer token when set.
	AuthToken string

	// Timeout bounds a single request (default 10s).
	Timeout time.Duration

	// RatePerSecond throttles outbound sends; 0 disables throttling.
	RatePerSecond float64
	Burst         int

	// ContactSuffix is appended to contacts without "@".
	ContactSuffix string
}

// RelayClient posts messages to an HTTP relay.
type RelayClient struct {
	cfg     RelayConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// RelayOption configures a RelayClient.
type RelayOption func(*RelayClient)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) RelayOption {
	return func(r *RelayClient) {
		r.client = c
	}
}

// WithRelayLogger sets the logger.
func WithRelayLogger(l *slog.Logger) RelayOption {
	return func(r *RelayClient) {
		r.logger = l
	}
}

// NewRelayClient creates a relay client.
func NewRelayClient(cfg RelayConfig, opts ...RelayOption) *RelayClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	r := &RelayClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: slog.Default(),
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type relayRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

type relayResponse struct {
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Send delivers text to the contact through the relay.
func (r *RelayClient) Send(ctx context.Context, to, text string) error {
	chatID := NormalizeContact(to, r.cfg.ContactSuffix)
	if chatID == "" {
		return ErrEmptyContact
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("delivery: throttle: %w", err)
		}
	}

	body, err := json.Marshal(relayRequest{To: chatID, Message: text})
	if err != nil {
		return fmt.Errorf("delivery: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("delivery: create request: %w", err)
	}
	key := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	req.Header.Set(IdempotencyHeader, key)
	if r.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.AuthToken)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("delivery: post: %w", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d: %s", ErrRelayRejected, resp.StatusCode, relayError(raw))
	}
	// A cut-off body cannot confirm the relay accepted the message.
	if readErr != nil {
		return fmt.Errorf("delivery: read response: %w", readErr)
	}

	// A 2xx with an explicit success=false is still a rejection.
	var out relayResponse
	if len(raw) > 0 && json.Unmarshal(raw, &out) == nil && out.Success != nil && !*out.Success {
		return fmt.Errorf("%w: %s", ErrRelayRejected, out.Error)
	}

	r.logger.DebugContext(ctx, "relay accepted message",
		"idempotency_key", key,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	return nil
}

func relayError(raw []byte) string {
	var out relayResponse
	if json.Unmarshal(raw, &out) == nil && out.Error != "" {
		return out.Error
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// NormalizeContact trims the contact and appends suffix when it carries
// no "@". An empty suffix leaves the contact unchanged.
func NormalizeContact(to, suffix string) string {
	to = strings.TrimSpace(to)
	if to == "" || suffix == "" || strings.Contains(to, "@") {
		return to
	}
	return strings.TrimPrefix(to, "+") + suffix
}

var _ service.Deliverer = (*RelayClient)(nil)
