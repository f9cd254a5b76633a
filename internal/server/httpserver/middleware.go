// Package httpserver provides the HTTP/HTTPS server for LinkGate.
package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/httprate"

	"github.com/yndnr/linkgate-go/internal/core/domain"
	"github.com/yndnr/linkgate-go/internal/core/service"
	"github.com/yndnr/linkgate-go/internal/server/httpserver/handler"
	"github.com/yndnr/linkgate-go/internal/telemetry/logger"
	"github.com/yndnr/linkgate-go/pkg/token"
)

// Context keys for request-scoped values.
type contextKey string

const (
	// ContextKeyStartTime is the context key for request start time.
	ContextKeyStartTime contextKey = "start_time"

	// contextKeyAuditEntry carries the entry Audit logs after the handler runs.
	contextKeyAuditEntry contextKey = "audit_entry"
)

// auditEntry collects facts learned by inner middlewares.
type auditEntry struct {
	key *domain.IssuerKey
}

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain chains multiple middlewares together.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestRecorder receives per-request metrics.
type RequestRecorder interface {
	RecordRequest(route, method string, status int)
	ObserveRequestDuration(route, method string, seconds float64)
}

// RequestID adds a unique request ID to each request.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Check for existing request ID in header
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" || len(requestID) > 64 {
				if id, err := token.GenerateWithLength(16); err == nil {
					requestID = "req-" + id
				} else {
					requestID = "req-unknown"
				}
			}

			w.Header().Set("X-Request-ID", requestID)

			ctx := logger.WithRequestID(r.Context(), requestID)
			ctx = context.WithValue(ctx, ContextKeyStartTime, time.Now())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IssuerAuth authenticates the caller's issuer key and requires at least
// the given role. The key is stored in the request context.
func IssuerAuth(authSvc *service.AuthService, required domain.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			keyID, keySecret := extractIssuerCredentials(r)

			key, err := authSvc.ValidateKey(r.Context(), &service.ValidateKeyRequest{
				KeyID:     keyID,
				KeySecret: keySecret,
				ClientIP:  getClientIP(r),
			})
			if err != nil {
				writeAuthError(w, r, domain.GetErrorCode(err), err.Error())
				return
			}

			if err := authSvc.CheckRole(key, required); err != nil {
				writeAuthError(w, r, domain.ErrPermissionDenied.Code, err.Error())
				return
			}

			if err := authSvc.CheckRateLimit(r.Context(), key); err != nil {
				w.Header().Set("Retry-After", "1")
				writeAuthError(w, r, domain.ErrRateLimited.Code, err.Error())
				return
			}

			if entry, ok := r.Context().Value(contextKeyAuditEntry).(*auditEntry); ok {
				entry.key = key
			}
			next.ServeHTTP(w, r.WithContext(handler.WithIssuerKey(r.Context(), key)))
		})
	}
}

// MetricsAuth creates an authentication middleware for metrics endpoint.
// It can be configured to allow unauthenticated access.
// Reference: DS-0302 Section 2.3.2
func MetricsAuth(authSvc *service.AuthService, authRequired bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authRequired {
				next.ServeHTTP(w, r)
				return
			}

			keyID, keySecret := extractIssuerCredentials(r)
			key, err := authSvc.ValidateKey(r.Context(), &service.ValidateKeyRequest{
				KeyID:     keyID,
				KeySecret: keySecret,
				ClientIP:  getClientIP(r),
			})
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			// Every role includes metrics.
			if authSvc.CheckRole(key, domain.RoleMetrics) != nil {
				w.WriteHeader(http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitConfig holds rate limiting settings for a route group.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Logger   *slog.Logger

	// Key picks the counter a request is charged to. Nil means per client IP.
	Key httprate.KeyFunc
}

// RateLimit limits requests with a sliding window counter.
// A zero Requests disables the limit.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Requests <= 0 || cfg.Window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	key := cfg.Key
	if key == nil {
		key = httprate.KeyByRealIP
	}

	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(key),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("rate limit exceeded",
					"client_ip", getClientIP(r),
					"path", logger.RedactPath(r.URL.Path),
					"method", r.Method,
				)
			}
			writeAuthError(w, r, domain.ErrRateLimited.Code, "too many requests")
		}),
	)
}

// maxVerifyKeyBody bounds how much of a /verify body KeyByLinkSecret reads.
const maxVerifyKeyBody = 4 << 10

// KeyByLinkSecret charges POST /verify to the link named in the body, so
// guesses against one link share a budget whatever address they come
// from. The body is restored for the handler. Requests without a
// secret fall back to the client IP.
func KeyByLinkSecret(r *http.Request) (string, error) {
	if r.Body == nil {
		return httprate.KeyByRealIP(r)
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxVerifyKeyBody))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return httprate.KeyByRealIP(r)
	}

	var secret string
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/x-www-form-urlencoded" {
		if form, err := url.ParseQuery(string(raw)); err == nil {
			secret = form.Get("secret")
		}
	} else {
		var body struct {
			Secret string `json:"secret"`
		}
		if json.Unmarshal(raw, &body) == nil {
			secret = body.Secret
		}
	}

	if !domain.ValidateSecretFormat(secret) {
		return httprate.KeyByRealIP(r)
	}
	return "link:" + domain.HashSecret(secret), nil
}

// Audit logs every request with secrets removed from the path and feeds
// request metrics.
func Audit(log *slog.Logger, metrics RequestRecorder) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			entry := &auditEntry{}

			next.ServeHTTP(wrapped, r.WithContext(context.WithValue(r.Context(), contextKeyAuditEntry, entry)))

			startTime, ok := r.Context().Value(ContextKeyStartTime).(time.Time)
			if !ok {
				startTime = time.Now()
			}
			duration := time.Since(startTime)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			if metrics != nil {
				metrics.RecordRequest(route, r.Method, wrapped.statusCode)
				metrics.ObserveRequestDuration(route, r.Method, duration.Seconds())
			}

			attrs := []any{
				"method", r.Method,
				"path", logger.RedactPath(r.URL.Path),
				"status", wrapped.statusCode,
				"duration_ms", duration.Milliseconds(),
				"client_ip", getClientIP(r),
			}

			if entry.key != nil {
				attrs = append(attrs, "issuer_key_id", entry.key.ID, "role", string(entry.key.Role))
			}

			if wrapped.statusCode >= 500 {
				log.ErrorContext(r.Context(), "request completed with error", attrs...)
			} else if wrapped.statusCode >= 400 {
				log.WarnContext(r.Context(), "request completed with client error", attrs...)
			} else {
				log.InfoContext(r.Context(), "request completed", attrs...)
			}
		})
	}
}

// Recover recovers from panics and returns 500 error.
func Recover(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.ErrorContext(r.Context(), "panic recovered",
						"error", err,
						"path", logger.RedactPath(r.URL.Path),
					)
					writeAuthError(w, r, domain.ErrInternalServer.Code, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// NetworkACLConfig holds configuration for network ACL middleware.
type NetworkACLConfig struct {
	// AllowList is the list of allowed IP/CIDR entries.
	// Empty list means no restriction.
	AllowList []string

	// Logger for logging denied requests.
	Logger *slog.Logger
}

// NetworkACL creates a middleware that checks client IP against an allowlist.
// Reference: DS-0302 Section 2.2 (NetworkACL middleware)
func NetworkACL(cfg *NetworkACLConfig) Middleware {
	var networks []*net.IPNet
	var singleIPs []net.IP

	for _, entry := range cfg.AllowList {
		if strings.Contains(entry, "/") {
			_, ipNet, err := net.ParseCIDR(entry)
			if err != nil {
				if cfg.Logger != nil {
					cfg.Logger.Warn("invalid CIDR in allowlist", "entry", entry, "error", err)
				}
				continue
			}
			networks = append(networks, ipNet)
		} else {
			ip := net.ParseIP(entry)
			if ip == nil {
				if cfg.Logger != nil {
					cfg.Logger.Warn("invalid IP in allowlist", "entry", entry)
				}
				continue
			}
			singleIPs = append(singleIPs, ip)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(networks) == 0 && len(singleIPs) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			clientIP := getClientIP(r)
			ip := net.ParseIP(clientIP)
			if ip == nil {
				writeAuthError(w, r, domain.ErrIPNotAllowed.Code, "invalid client IP")
				return
			}

			for _, allowedIP := range singleIPs {
				if allowedIP.Equal(ip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			for _, network := range networks {
				if network.Contains(ip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			if cfg.Logger != nil {
				cfg.Logger.WarnContext(r.Context(), "request denied by network ACL",
					"client_ip", clientIP,
					"path", logger.RedactPath(r.URL.Path),
				)
			}
			writeAuthError(w, r, domain.ErrIPNotAllowed.Code, "IP not in allowlist")
		})
	}
}

// extractIssuerCredentials extracts issuer key credentials from request headers.
// It supports two formats:
// 1. Authorization: Bearer <key_id>:<key_secret>
// 2. X-API-Key-ID + X-API-Key headers
func extractIssuerCredentials(r *http.Request) (keyID, keySecret string) {
	// Priority 1: Authorization Bearer header
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		parts := strings.SplitN(strings.TrimPrefix(authHeader, "Bearer "), ":", 2)
		if len(parts) == 2 {
			return parts[0], parts[1]
		}
	}

	// Priority 2: X-API-Key header with id:secret
	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		parts := strings.SplitN(apiKey, ":", 2)
		if len(parts) == 2 {
			return parts[0], parts[1]
		}
	}

	// Priority 3: Separate headers
	return r.Header.Get("X-API-Key-ID"), r.Header.Get("X-API-Key")
}

// CORS adds Cross-Origin Resource Sharing headers.
func CORS(allowedOrigins []string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// Empty means allow all
			allowed := len(allowedOrigins) == 0
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					allowed = true
					break
				}
			}

			if allowed && origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key-ID, X-API-Key, X-Request-ID, Authorization")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.Header().Add("Vary", "Origin")
			}

			// Handle preflight
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// writeAuthError writes an error in the standard envelope.
func writeAuthError(w http.ResponseWriter, r *http.Request, code, message string) {
	requestID := logger.RequestIDFromContext(r.Context())

	status := http.StatusUnauthorized
	switch {
	case strings.Contains(code, "-403"):
		status = http.StatusForbidden
	case strings.HasSuffix(code, "-4290"):
		status = http.StatusTooManyRequests
	case strings.Contains(code, "-SYS-5"):
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(handler.NewErrorResponse(requestID, code, message, nil))
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// net.SplitHostPort handles IPv6 addresses like [::1]:8080
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
