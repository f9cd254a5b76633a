// Package service provides domain services for LinkGate.
//
// VerificationService issues and checks the one-time numeric codes that a
// repeat visitor must present before a link is served again.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/linkgate-go/internal/core/domain"
)

// DefaultCodeMessage is the text sent with a verification code. The single
// %s verb receives the code.
const DefaultCodeMessage = "Your verification code is %s. It expires in 5 minutes. Do not share it."

// DefaultDeliveryTimeout bounds a single outbound delivery.
const DefaultDeliveryTimeout = 10 * time.Second

// CheckOutcome is the result of a code check.
type CheckOutcome string

// Check outcomes.
const (
	CheckVerified        CheckOutcome = "verified"
	CheckInvalid         CheckOutcome = "invalid"
	CheckExpired         CheckOutcome = "expired"
	CheckTooManyAttempts CheckOutcome = "too_many_attempts"
	CheckNoChallenge     CheckOutcome = "no_challenge"
)

// CheckResult is returned by CheckChallenge together with a typed error for
// every outcome except CheckVerified.
type CheckResult struct {
	Outcome           CheckOutcome
	AttemptsRemaining int
}

// VerificationConfig holds VerificationService settings.
type VerificationConfig struct {
	// CodeTTL is how long a code stays valid (default 5m).
	CodeTTL time.Duration

	// MaxAttempts is the number of checks allowed per code (default 3).
	MaxAttempts int

	// MessageTemplate formats the delivered text; must contain one %s.
	MessageTemplate string

	// DeliveryTimeout bounds each outbound delivery.
	DeliveryTimeout time.Duration
}

// DefaultVerificationConfig returns default configuration.
func DefaultVerificationConfig() *VerificationConfig {
	return &VerificationConfig{
		CodeTTL:         domain.ChallengeTTL,
		MaxAttempts:     domain.MaxChallengeAttempts,
		MessageTemplate: DefaultCodeMessage,
		DeliveryTimeout: DefaultDeliveryTimeout,
	}
}

// VerificationService manages challenges bound to links.
//
// @req RQ-0203
// @design DS-0203
type VerificationService struct {
	repo      LinkRepository
	deliverer Deliverer
	clock     Clock
	cfg       VerificationConfig
	metrics   MetricsRecorder
	logger    *slog.Logger

	// inflight tracks deliveries so shutdown can wait for them.
	inflight sync.WaitGroup
}

// NewVerificationService creates a new VerificationService.
func NewVerificationService(repo LinkRepository, deliverer Deliverer, cfg *VerificationConfig, opts ...Option) *VerificationService {
	if cfg == nil {
		cfg = DefaultVerificationConfig()
	}
	o := applyOptions(opts)

	s := &VerificationService{
		repo:      repo,
		deliverer: deliverer,
		clock:     o.clock,
		cfg:       *cfg,
		metrics:   o.metrics,
		logger:    o.logger,
	}
	if s.cfg.CodeTTL <= 0 {
		s.cfg.CodeTTL = domain.ChallengeTTL
	}
	if s.cfg.MaxAttempts <= 0 {
		s.cfg.MaxAttempts = domain.MaxChallengeAttempts
	}
	if !strings.Contains(s.cfg.MessageTemplate, "%s") {
		s.cfg.MessageTemplate = DefaultCodeMessage
	}
	if s.cfg.DeliveryTimeout <= 0 {
		s.cfg.DeliveryTimeout = DefaultDeliveryTimeout
	}
	return s
}

// ============================================================================
// Issue
// ============================================================================

// IssueChallenge creates a new code for the link, replacing any pending one,
// and hands it to the deliverer. Delivery runs after the record is committed
// and its failure never fails the call.
func (s *VerificationService) IssueChallenge(ctx context.Context, secret string) (string, error) {
	var (
		code    string
		contact string
	)

	link, err := s.repo.Update(ctx, secret, func(l *domain.Link) error {
		c, err := domain.NewChallenge(s.clock(), s.cfg.CodeTTL)
		if err != nil {
			return err
		}
		l.PendingChallenge = c
		code = c.Code
		contact = l.OwnerContact
		return nil
	})
	if err != nil {
		return "", err
	}

	s.metrics.RecordChallengeIssued()
	s.logger.InfoContext(ctx, "challenge issued",
		"link_id", link.ID,
		"expires_at", time.UnixMilli(link.PendingChallenge.ExpiresAt).UTC().Format(time.RFC3339),
	)

	s.dispatch(ctx, link.ID, contact, fmt.Sprintf(s.cfg.MessageTemplate, code))
	return code, nil
}

// dispatch delivers text in the background with its own timeout. The
// delivery outlives the request but keeps its values for logging.
func (s *VerificationService) dispatch(reqCtx context.Context, linkID, contact, text string) {
	if s.deliverer == nil {
		s.logger.WarnContext(reqCtx, "no deliverer configured, code not sent", "link_id", linkID)
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(reqCtx), s.cfg.DeliveryTimeout)
		defer cancel()

		if err := s.deliverer.Send(ctx, contact, text); err != nil {
			s.metrics.RecordDelivery("failed")
			s.logger.ErrorContext(ctx, "verification code delivery failed",
				"link_id", linkID,
				"error", domain.ErrDeliveryFailure.WithCause(err),
			)
			return
		}
		s.metrics.RecordDelivery("sent")
		s.logger.DebugContext(ctx, "verification code delivered", "link_id", linkID)
	}()
}

// Wait blocks until in-flight deliveries finish or ctx is done.
func (s *VerificationService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ============================================================================
// Check
// ============================================================================

// CheckChallenge checks a submitted code. Every check counts as an attempt.
// Exceeding the attempt limit destroys the link.
func (s *VerificationService) CheckChallenge(ctx context.Context, secret, submitted string) (CheckResult, error) {
	var result CheckResult
	now := s.clock()

	_, err := s.repo.Update(ctx, secret, func(l *domain.Link) error {
		c := l.PendingChallenge
		if c == nil {
			result.Outcome = CheckNoChallenge
			return domain.ErrChallengeNotFound
		}
		if c.IsExpired(now) {
			result.Outcome = CheckExpired
			return domain.ErrChallengeExpired
		}

		c.Attempts++
		if c.Attempts > s.cfg.MaxAttempts {
			result.Outcome = CheckTooManyAttempts
			return domain.ErrChallengeExhausted
		}

		if c.Matches(submitted) {
			l.PendingChallenge = nil
			l.LastVerifiedAt = now.UnixMilli()
			result.Outcome = CheckVerified
			return nil
		}

		result.Outcome = CheckInvalid
		result.AttemptsRemaining = c.AttemptsRemaining(s.cfg.MaxAttempts)
		return nil
	})

	switch {
	case err == nil && result.Outcome == CheckInvalid:
		// The attempt must persist, so the mismatch is reported after commit.
		err = domain.ErrChallengeInvalid.WithDetails(fmt.Sprintf("%d attempts remaining", result.AttemptsRemaining))
	case domain.IsDomainError(err, domain.ErrChallengeExhausted.Code):
		if derr := s.repo.Discard(ctx, secret); derr != nil && !domain.IsDomainError(derr, domain.ErrLinkInvalid.Code) {
			s.logger.ErrorContext(ctx, "failed to discard exhausted link", "error", derr)
		}
		s.logger.WarnContext(ctx, "challenge attempts exhausted, link destroyed")
	case err != nil && result.Outcome == "":
		// Link lookup failed before reaching the challenge.
		return result, err
	}

	s.metrics.RecordChallengeCheck(string(result.Outcome))
	return result, err
}
