// Package handler provides HTTP request handlers for LinkGate.
package handler

import (
	"time"

	"github.com/yndnr/linkgate-go/internal/core/domain"
	"github.com/yndnr/linkgate-go/internal/core/service"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
//
// @design DS-0302 Section 2.1
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"` // Additional error details
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// IssueLinkRequest is the request body for POST /tokens.
//
// @design DS-0301
type IssueLinkRequest struct {
	ResourceID   string `json:"resource_id"`
	OwnerContact string `json:"owner_contact"`
	TTLSeconds   int64  `json:"ttl_seconds,omitempty"`
}

// IssueLinkResponse is the response body for POST /tokens.
// The secret is returned only here.
type IssueLinkResponse struct {
	Secret           string    `json:"secret"`
	LinkID           string    `json:"link_id"`
	URL              string    `json:"url"`
	ExpiresInMinutes int64     `json:"expires_in_minutes"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// VerifyRequest is the request body for POST /verify.
type VerifyRequest struct {
	Secret     string `json:"secret"`
	Code       string `json:"code"`
	ResourceID string `json:"resource_id,omitempty"`
}

// VerifyResponse is the response body for a successful POST /verify.
type VerifyResponse struct {
	Verified      bool  `json:"verified"`
	BypassSeconds int64 `json:"bypass_seconds,omitempty"`
}

// VerifyFailureDetails accompanies a failed verification.
type VerifyFailureDetails struct {
	Outcome           string `json:"outcome"`
	AttemptsRemaining int    `json:"attempts_remaining"`
}

// StatsResponse is the response body for GET /tokens/stats.
type StatsResponse struct {
	Store        service.StoreStats   `json:"store"`
	Links        []domain.LinkSummary `json:"links"`
	BypassWindow string               `json:"bypass_window"`
}

// SweepResponse is the response body for POST /tokens/sweep.
type SweepResponse struct {
	Removed int `json:"removed"`
	Live    int `json:"live"`
}

// HealthResponse is the response body for GET /health and GET /ready.
type HealthResponse struct {
	Status        string    `json:"status"`
	Version       string    `json:"version"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	LiveLinks     int       `json:"live_links"`
	SweptTotal    uint64    `json:"swept_total"`
	LastSweepAt   time.Time `json:"last_sweep_at,omitempty"`
	Resources     int       `json:"resources,omitempty"`
	Time          time.Time `json:"time"`
	Checks        []string  `json:"failed_checks,omitempty"`
}
