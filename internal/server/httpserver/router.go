// Package httpserver provides the HTTP/HTTPS server for LinkGate.
package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/linkgate-go/internal/core/domain"
	"github.com/yndnr/linkgate-go/internal/core/service"
	"github.com/yndnr/linkgate-go/internal/server/httpserver/handler"
	"github.com/yndnr/linkgate-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Gatekeeper runs issuance, access and verification.
	Gatekeeper *service.Gatekeeper

	// AuthService authenticates issuer keys.
	AuthService *service.AuthService

	// Resources serves granted resources.
	Resources handler.ResourceProvider

	// Metrics receives request metrics and serves /metrics. Nil uses the
	// global registry.
	Metrics *metric.Registry

	// Logger for request logging.
	Logger *slog.Logger

	// PublicBaseURL prefixes issued links.
	PublicBaseURL string

	// ChallengeTTL is shown on the challenge page.
	ChallengeTTL time.Duration

	// AdminAllowList is the IP/CIDR allowlist for stats and sweep (empty = no restriction).
	AdminAllowList []string

	// MetricsAuthRequired indicates if /metrics endpoint requires authentication.
	MetricsAuthRequired bool

	// CORSAllowedOrigins is the list of allowed CORS origins (empty = allow all).
	CORSAllowedOrigins []string

	// VerifyLimit bounds POST /verify per client IP.
	VerifyLimit RateLimitConfig

	// VerifySecretLimit bounds POST /verify per link secret. Its Key is
	// always KeyByLinkSecret.
	VerifySecretLimit RateLimitConfig

	// IssueLimit bounds the issuer routes per client IP.
	IssueLimit RateLimitConfig

	// EnableAudit enables request logging for all routes.
	EnableAudit bool
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
//
// @design DS-0301, DS-0302
func NewRouter(cfg *RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	registry := cfg.Metrics
	if registry == nil {
		registry = metric.Global()
	}

	h := handler.New(&handler.Config{
		Gatekeeper:    cfg.Gatekeeper,
		Resources:     cfg.Resources,
		Logger:        cfg.Logger,
		PublicBaseURL: cfg.PublicBaseURL,
		ChallengeTTL:  cfg.ChallengeTTL,
	})

	var audit Middleware = func(next http.Handler) http.Handler { return next }
	if cfg.EnableAudit {
		audit = Audit(cfg.Logger, registry)
	}
	cfg.VerifyLimit.Logger = cfg.Logger
	cfg.VerifySecretLimit.Logger = cfg.Logger
	cfg.VerifySecretLimit.Key = KeyByLinkSecret
	cfg.IssueLimit.Logger = cfg.Logger

	mux := http.NewServeMux()

	// Health endpoints - no authentication required
	health := Chain(h, Recover(cfg.Logger), RequestID())
	mux.Handle("GET /health", health)
	mux.Handle("GET /ready", health)

	// Metrics endpoint - configurable authentication
	mux.Handle("GET /metrics", Chain(
		registry.Handler(),
		Recover(cfg.Logger),
		RequestID(),
		MetricsAuth(cfg.AuthService, cfg.MetricsAuthRequired),
	))

	// Public endpoints - the secret is the credential
	mux.Handle("GET /resource/{secret}/{resourceId}", Chain(h,
		Recover(cfg.Logger),
		RequestID(),
		audit,
	))
	mux.Handle("POST /verify", Chain(h,
		Recover(cfg.Logger),
		RequestID(),
		CORS(cfg.CORSAllowedOrigins),
		RateLimit(cfg.VerifyLimit),
		RateLimit(cfg.VerifySecretLimit),
		audit,
	))

	// Issuer endpoints
	issueLimit := RateLimit(cfg.IssueLimit)
	mux.Handle("POST /tokens", Chain(h,
		Recover(cfg.Logger),
		RequestID(),
		CORS(cfg.CORSAllowedOrigins),
		issueLimit,
		audit,
		IssuerAuth(cfg.AuthService, domain.RoleIssuer),
	))

	// Admin endpoints - admin role + optional network ACL
	admin := Chain(h,
		Recover(cfg.Logger),
		RequestID(),
		issueLimit,
		audit,
		IssuerAuth(cfg.AuthService, domain.RoleAdmin),
		NetworkACL(&NetworkACLConfig{
			AllowList: cfg.AdminAllowList,
			Logger:    cfg.Logger,
		}),
	)
	mux.Handle("GET /tokens/stats", admin)
	mux.Handle("POST /tokens/sweep", admin)

	return mux
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		ChallengeTTL:        domain.ChallengeTTL,
		MetricsAuthRequired: false,
		VerifyLimit:         RateLimitConfig{Requests: 10, Window: time.Minute},
		VerifySecretLimit:   RateLimitConfig{Requests: 6, Window: 5 * time.Minute},
		IssueLimit:          RateLimitConfig{Requests: 120, Window: time.Minute},
		EnableAudit:         true,
	}
}
