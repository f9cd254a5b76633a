// Package service provides domain services for LinkGate.
//
// Gatekeeper decides, per request, whether a link's resource is served,
// a verification challenge is required, or access is denied. It is the
// only component that talks to the link store and the verification
// service on behalf of the transport layer.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/yndnr/linkgate-go/internal/core/domain"
)

// Outcome is the terminal result of one gatekeeper evaluation.
type Outcome string

// Outcomes.
const (
	OutcomeGranted           Outcome = "granted"
	OutcomeChallengeRequired Outcome = "challenge_required"
	OutcomeDenied            Outcome = "denied"
)

// DenyReason qualifies OutcomeDenied.
type DenyReason string

// Deny reasons.
const (
	DenyInvalid     DenyReason = "invalid"
	DenyExpired     DenyReason = "expired"
	DenyChannelOnly DenyReason = "channel_only"
)

// AmbiguousPolicy controls how ambiguous (copy-pasted) access is treated.
type AmbiguousPolicy string

const (
	// PolicyPermissive treats ambiguous access like a human and logs it.
	PolicyPermissive AmbiguousPolicy = "permissive"

	// PolicyStrict denies ambiguous access outside the bypass window.
	PolicyStrict AmbiguousPolicy = "strict"
)

// Grant reasons reported in decisions and audit events.
const (
	GrantAutomated      = "automated_fetch"
	GrantBypass         = "verified_bypass"
	GrantFirstHuman     = "first_human_access"
	ChallengeRepeat     = "repeat_access"
	DenyReasonMismatch  = "resource_mismatch"
	DenyReasonMalformed = "malformed_secret"
)

// errAlreadyConsumed aborts the first-human update when another request won.
var errAlreadyConsumed = errors.New("first human access already consumed")

// GatekeeperConfig holds Gatekeeper settings.
type GatekeeperConfig struct {
	// BypassWindow is how long after verification access is granted freely.
	BypassWindow time.Duration

	// AmbiguousPolicy is permissive or strict.
	AmbiguousPolicy AmbiguousPolicy

	// DefaultTTL applies when an issuer does not ask for a lifetime.
	DefaultTTL time.Duration

	// MaxTTL caps requested lifetimes.
	MaxTTL time.Duration
}

// DefaultGatekeeperConfig returns default configuration.
func DefaultGatekeeperConfig() *GatekeeperConfig {
	return &GatekeeperConfig{
		BypassWindow:    domain.DefaultBypassWindow,
		AmbiguousPolicy: PolicyPermissive,
		DefaultTTL:      domain.DefaultLinkTTL,
		MaxTTL:          domain.MaxLinkTTL,
	}
}

// Gatekeeper orchestrates the store, classifier and verification service.
//
// @req RQ-0204
// @design DS-0204
type Gatekeeper struct {
	repo       LinkRepository
	classifier *Classifier
	verifier   *VerificationService
	cfg        GatekeeperConfig
	clock      Clock
	metrics    MetricsRecorder
	publisher  EventPublisher
	logger     *slog.Logger
}

// NewGatekeeper creates a new Gatekeeper.
func NewGatekeeper(repo LinkRepository, classifier *Classifier, verifier *VerificationService, cfg *GatekeeperConfig, opts ...Option) *Gatekeeper {
	if cfg == nil {
		cfg = DefaultGatekeeperConfig()
	}
	o := applyOptions(opts)

	g := &Gatekeeper{
		repo:       repo,
		classifier: classifier,
		verifier:   verifier,
		cfg:        *cfg,
		clock:      o.clock,
		metrics:    o.metrics,
		publisher:  o.publisher,
		logger:     o.logger,
	}
	if g.cfg.BypassWindow <= 0 {
		g.cfg.BypassWindow = domain.DefaultBypassWindow
	}
	if g.cfg.AmbiguousPolicy != PolicyStrict {
		g.cfg.AmbiguousPolicy = PolicyPermissive
	}
	if g.cfg.DefaultTTL <= 0 {
		g.cfg.DefaultTTL = domain.DefaultLinkTTL
	}
	if g.cfg.MaxTTL <= 0 {
		g.cfg.MaxTTL = domain.MaxLinkTTL
	}
	return g
}

// ============================================================================
// Issue
// ============================================================================

// IssueRequest contains parameters for link issuance.
type IssueRequest struct {
	ResourceID   string        // Required
	OwnerContact string        // Required
	TTL          time.Duration // Optional, defaults to DefaultTTL
	IssuedBy     string        // Issuer key ID
}

// IssueResponse contains the result of link issuance.
type IssueResponse struct {
	Secret    string // Plaintext secret, only returned once
	LinkID    string
	ExpiresAt time.Time
	TTL       time.Duration
}

// Issue creates a new link.
func (g *Gatekeeper) Issue(ctx context.Context, req *IssueRequest) (*IssueResponse, error) {
	ttl := req.TTL
	if ttl <= 0 {
		ttl = g.cfg.DefaultTTL
	}
	if ttl > g.cfg.MaxTTL {
		return nil, domain.ErrLinkValidation.WithDetails("ttl exceeds maximum of " + g.cfg.MaxTTL.String())
	}

	secret, link, err := g.repo.Issue(ctx, req.ResourceID, req.OwnerContact, ttl)
	if err != nil {
		return nil, err
	}

	g.metrics.RecordLinkIssued()
	g.logger.InfoContext(ctx, "link issued",
		"link_id", link.ID,
		"resource_id", link.ResourceID,
		"issued_by", req.IssuedBy,
		"ttl", ttl.String(),
	)

	return &IssueResponse{
		Secret:    secret,
		LinkID:    link.ID,
		ExpiresAt: time.UnixMilli(link.ExpiresAt),
		TTL:       ttl,
	}, nil
}

// ============================================================================
// Evaluate
// ============================================================================

// AccessRequest describes one attempt to open a link.
type AccessRequest struct {
	Secret     string
	ResourceID string
	Meta       domain.RequestMeta
}

// Decision is the result of an evaluation. Exactly one Outcome is set.
type Decision struct {
	Outcome    Outcome
	DenyReason DenyReason
	Category   domain.ClientCategory
	Reason     string

	// Err is the domain error behind a denial.
	Err error

	// Link is the redacted view of the link when it was resolved.
	Link *domain.LinkSummary
}

// Evaluate runs the access state machine for one request. An error is
// returned only for internal failures; every policy result is a Decision.
func (g *Gatekeeper) Evaluate(ctx context.Context, req *AccessRequest) (*Decision, error) {
	d, err := g.evaluate(ctx, req)
	if err != nil {
		return nil, err
	}

	g.metrics.RecordAccessDecision(string(d.Outcome), string(d.Category))
	g.publish(ctx, req, d)
	return d, nil
}

func (g *Gatekeeper) evaluate(ctx context.Context, req *AccessRequest) (*Decision, error) {
	if !domain.ValidateSecretFormat(req.Secret) {
		return deny(DenyInvalid, DenyReasonMalformed, domain.ErrLinkMalformed), nil
	}

	// 1. Resolve (counts as an access)
	link, err := g.repo.Resolve(ctx, req.Secret)
	if err != nil {
		return g.denyForLookup(err)
	}

	// 2. Resource binding
	if link.ResourceID != req.ResourceID {
		g.logger.WarnContext(ctx, "resource mismatch on valid link",
			"link_id", link.ID,
			"requested_resource", req.ResourceID,
			"client_ip", req.Meta.ClientIP(),
			"user_agent", req.Meta.UserAgent,
		)
		return deny(DenyInvalid, DenyReasonMismatch, domain.ErrResourceMismatch), nil
	}

	// 3. Classify
	class := g.classifier.Classify(req.Meta)
	now := g.clock()
	d := &Decision{Category: class.Category}

	// 4. Decide
	switch {
	case class.Category == domain.CategoryAutomatedFetch:
		d.Outcome, d.Reason = OutcomeGranted, GrantAutomated

	case link.InBypassWindow(now, g.cfg.BypassWindow):
		d.Outcome, d.Reason = OutcomeGranted, GrantBypass

	case class.Category == domain.CategoryAmbiguous && g.cfg.AmbiguousPolicy == PolicyStrict:
		d.Outcome, d.DenyReason, d.Reason, d.Err = OutcomeDenied, DenyChannelOnly, class.Reason, domain.ErrChannelOnly

	default:
		if class.Category == domain.CategoryAmbiguous {
			g.logger.InfoContext(ctx, "ambiguous access allowed by policy",
				"link_id", link.ID,
				"reason", class.Reason,
				"client_ip", req.Meta.ClientIP(),
				"user_agent", req.Meta.UserAgent,
			)
		}
		granted, err := g.consumeFirstHuman(ctx, req, link)
		if err != nil {
			return g.denyForLookup(err)
		}
		if granted {
			d.Outcome, d.Reason = OutcomeGranted, GrantFirstHuman
			link.FirstHumanAccessGranted = true
			break
		}

		if _, err := g.verifier.IssueChallenge(ctx, req.Secret); err != nil {
			if isLinkLookupError(err) {
				return g.denyForLookup(err)
			}
			return nil, err
		}
		d.Outcome, d.Reason = OutcomeChallengeRequired, ChallengeRepeat
	}

	summary := link.Summary(now, g.cfg.BypassWindow)
	d.Link = &summary
	return d, nil
}

// consumeFirstHuman marks the single unchallenged human access. It reports
// false when the access was already used, including by a concurrent request.
func (g *Gatekeeper) consumeFirstHuman(ctx context.Context, req *AccessRequest, link *domain.Link) (bool, error) {
	if link.FirstHumanAccessGranted {
		return false, nil
	}

	_, err := g.repo.Update(ctx, req.Secret, func(l *domain.Link) error {
		if !l.MarkFirstHumanAccess(req.Meta.ClientIP()) {
			return errAlreadyConsumed
		}
		return nil
	})
	if errors.Is(err, errAlreadyConsumed) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (g *Gatekeeper) denyForLookup(err error) (*Decision, error) {
	switch {
	case domain.IsDomainError(err, domain.ErrLinkExpired.Code):
		return deny(DenyExpired, "expired", err), nil
	case isLinkLookupError(err):
		return deny(DenyInvalid, "unknown_secret", err), nil
	default:
		return nil, err
	}
}

func isLinkLookupError(err error) bool {
	return domain.IsDomainError(err, domain.ErrLinkInvalid.Code) ||
		domain.IsDomainError(err, domain.ErrLinkExpired.Code)
}

func deny(reason DenyReason, detail string, err error) *Decision {
	return &Decision{
		Outcome:    OutcomeDenied,
		DenyReason: reason,
		Reason:     detail,
		Err:        err,
	}
}

func (g *Gatekeeper) publish(ctx context.Context, req *AccessRequest, d *Decision) {
	event := &AccessEvent{
		ResourceID: req.ResourceID,
		Outcome:    d.Outcome,
		DenyReason: d.DenyReason,
		Category:   d.Category,
		Reason:     d.Reason,
		ClientIP:   req.Meta.ClientIP(),
		UserAgent:  req.Meta.UserAgent,
		Anomaly:    d.Reason == DenyReasonMismatch,
		OccurredAt: g.clock().UTC(),
	}
	if d.Link != nil {
		event.LinkID = d.Link.ID
	}
	if err := g.publisher.PublishAccess(ctx, event); err != nil {
		g.logger.WarnContext(ctx, "failed to publish access event", "error", err)
	}
}

// ============================================================================
// Verify / Stats / Sweep
// ============================================================================

// Verify checks a submitted code for the link.
func (g *Gatekeeper) Verify(ctx context.Context, secret, code string) (CheckResult, error) {
	if !domain.ValidateSecretFormat(secret) {
		return CheckResult{}, domain.ErrLinkInvalid
	}
	return g.verifier.CheckChallenge(ctx, secret, code)
}

// Stats is the diagnostic view of all links.
type Stats struct {
	Store StoreStats           `json:"store"`
	Links []domain.LinkSummary `json:"links"`
}

// Stats returns a redacted snapshot of the store.
func (g *Gatekeeper) Stats() *Stats {
	return &Stats{
		Store: g.repo.Stats(),
		Links: g.repo.Snapshot(),
	}
}

// StoreStats returns the store counters without copying links.
func (g *Gatekeeper) StoreStats() StoreStats {
	return g.repo.Stats()
}

// Sweep removes expired links now.
func (g *Gatekeeper) Sweep() int {
	return g.repo.Sweep(g.clock())
}

// BypassWindow returns the configured bypass window.
func (g *Gatekeeper) BypassWindow() time.Duration {
	return g.cfg.BypassWindow
}
