// Package handler provides HTTP request handlers for LinkGate.
//
// @req RQ-0301
// @design DS-0301
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/linkgate-go/internal/core/domain"
	"github.com/yndnr/linkgate-go/internal/core/service"
	"github.com/yndnr/linkgate-go/internal/resource"
	"github.com/yndnr/linkgate-go/internal/telemetry/logger"
)

// ResourceProvider reads the resources links point at.
type ResourceProvider interface {
	List() ([]resource.Info, error)
	ValidID(id string) bool
	Stat(id string) (resource.Info, error)
	Open(id string) (resource.Content, resource.Info, error)
}

// Config holds Handler dependencies.
type Config struct {
	Gatekeeper *service.Gatekeeper
	Resources  ResourceProvider
	Logger     *slog.Logger

	// PublicBaseURL prefixes the links returned by POST /tokens.
	PublicBaseURL string

	// ChallengeTTL is shown on the challenge page. Defaults to domain.ChallengeTTL.
	ChallengeTTL time.Duration

	// Now is the clock used for uptime. Defaults to time.Now.
	Now func() time.Time
}

// Handler is the main HTTP handler that routes requests to appropriate handlers.
//
// @design DS-0301
type Handler struct {
	gate      *service.Gatekeeper
	resources ResourceProvider
	logger    *slog.Logger
	baseURL   string
	codeTTL   time.Duration
	now       func() time.Time
	startedAt time.Time
	mux       *http.ServeMux
}

// New creates a new Handler with the given dependencies.
//
// @design DS-0301
func New(cfg *Config) *Handler {
	h := &Handler{
		gate:      cfg.Gatekeeper,
		resources: cfg.Resources,
		logger:    cfg.Logger,
		baseURL:   strings.TrimRight(cfg.PublicBaseURL, "/"),
		codeTTL:   cfg.ChallengeTTL,
		now:       cfg.Now,
		mux:       http.NewServeMux(),
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.codeTTL <= 0 {
		h.codeTTL = domain.ChallengeTTL
	}
	if h.now == nil {
		h.now = time.Now
	}
	h.startedAt = h.now()

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// registerRoutes registers all HTTP routes.
func (h *Handler) registerRoutes() {
	// Health endpoints (no auth required)
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	// Link endpoints
	h.mux.HandleFunc("POST /tokens", h.handleIssueLink)
	h.mux.HandleFunc("GET /tokens/stats", h.handleStats)
	h.mux.HandleFunc("POST /tokens/sweep", h.handleSweep)

	// Public access endpoints
	h.mux.HandleFunc("GET /resource/{secret}/{resourceId}", h.handleAccess)
	h.mux.HandleFunc("POST /verify", h.handleVerify)
}

// ============================================================================
// Request context
// ============================================================================

type contextKey string

const issuerKeyContextKey contextKey = "issuer_key"

// WithIssuerKey stores the authenticated issuer key in ctx.
func WithIssuerKey(ctx context.Context, key *domain.IssuerKey) context.Context {
	return context.WithValue(ctx, issuerKeyContextKey, key)
}

// IssuerKeyFromContext returns the authenticated issuer key, or nil.
func IssuerKeyFromContext(ctx context.Context) *domain.IssuerKey {
	if key, ok := ctx.Value(issuerKeyContextKey).(*domain.IssuerKey); ok {
		return key
	}
	return nil
}

// ============================================================================
// Response helpers
// ============================================================================

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	requestID := getRequestID(r)
	response := NewErrorResponse(requestID, code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// getRequestID extracts request ID from context or header.
func getRequestID(r *http.Request) string {
	if reqID := logger.RequestIDFromContext(r.Context()); reqID != "" {
		return reqID
	}
	return r.Header.Get("X-Request-ID")
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	h.handleServiceErrorDetails(w, r, err, nil)
}

func (h *Handler) handleServiceErrorDetails(w http.ResponseWriter, r *http.Request, err error, details any) {
	if domain.IsDomainError(err, "") {
		code := domain.GetErrorCode(err)
		status := errorCodeToHTTPStatus(code)
		if status >= http.StatusInternalServerError {
			h.logger.ErrorContext(r.Context(), "request failed", "code", code, "error", err)
		}
		h.writeError(w, r, status, code, err.Error(), details)
		return
	}

	// Generic internal error
	h.logger.ErrorContext(r.Context(), "internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternalServer.Code, "internal server error", nil)
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.ErrChallengeInvalid.Code:
		return http.StatusUnprocessableEntity
	case domain.ErrLinkCapacity.Code:
		return http.StatusServiceUnavailable
	case domain.ErrDeliveryFailure.Code:
		return http.StatusBadGateway
	}

	switch {
	case strings.HasSuffix(code, "-4040"), strings.HasSuffix(code, "-4041"), strings.HasSuffix(code, "-4042"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4100"):
		return http.StatusGone
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"), strings.HasSuffix(code, "-4002"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-4010"), strings.HasSuffix(code, "-4011"):
		return http.StatusUnauthorized
	case strings.HasSuffix(code, "-4030"), strings.HasSuffix(code, "-4031"):
		return http.StatusForbidden
	case strings.HasPrefix(code, "LG-ARG-"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// requestMeta collects the client signals the classifier looks at.
func requestMeta(r *http.Request) domain.RequestMeta {
	return domain.RequestMeta{
		UserAgent:    r.UserAgent(),
		Referer:      r.Referer(),
		Origin:       r.Header.Get("Origin"),
		ForwardedFor: r.Header.Get("X-Forwarded-For"),
		RemoteIP:     remoteHost(r),
		MobileHint:   r.Header.Get("Sec-CH-UA-Mobile"),
		PlatformHint: r.Header.Get("Sec-CH-UA-Platform"),
	}
}

// getClientIP extracts client IP from request.
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return remoteHost(r)
}

// remoteHost returns the peer address without the port.
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
