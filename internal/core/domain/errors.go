// Package domain defines the core domain models for LinkGate.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
// Error codes follow the format LG-<AREA>-<NNNN>; the last four digits encode
// the HTTP status family the transport layer maps the error to.
//
// @req RQ-0104
// @design DS-0104
type DomainError struct {
	Code    string // Error code (e.g., "LG-LINK-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
//
// @design DS-0104
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
//
// @design DS-0104
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true // Only check if it's a DomainError
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
//
// @design DS-0104
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Link Errors (LINK)
// ============================================================================

var (
	// ErrLinkMalformed indicates the link secret does not have the expected format.
	ErrLinkMalformed = NewDomainError("LG-LINK-4000", "malformed link")

	// ErrLinkInvalid indicates the link secret is unknown.
	ErrLinkInvalid = NewDomainError("LG-LINK-4040", "invalid link")

	// ErrLinkExpired indicates the link passed its expiry time.
	ErrLinkExpired = NewDomainError("LG-LINK-4041", "link expired")

	// ErrResourceMismatch indicates a valid secret was presented for a
	// resource it is not bound to.
	ErrResourceMismatch = NewDomainError("LG-LINK-4042", "resource mismatch")

	// ErrChannelOnly indicates the link may only be opened from the issuing channel.
	ErrChannelOnly = NewDomainError("LG-LINK-4030", "link must be opened from the issuing channel")

	// ErrLinkValidation indicates issuance input failed validation.
	ErrLinkValidation = NewDomainError("LG-LINK-4001", "link validation failed")

	// ErrLinkCapacity indicates the store refused a new link because it is full.
	ErrLinkCapacity = NewDomainError("LG-LINK-5030", "link capacity exhausted")
)

// ============================================================================
// Challenge Errors (CHAL)
// ============================================================================

var (
	// ErrChallengeNotFound indicates no challenge is pending for the link.
	ErrChallengeNotFound = NewDomainError("LG-CHAL-4040", "no pending challenge")

	// ErrChallengeInvalid indicates a wrong code was submitted and attempts remain.
	ErrChallengeInvalid = NewDomainError("LG-CHAL-4010", "invalid verification code")

	// ErrChallengeExpired indicates the pending challenge passed its expiry time.
	ErrChallengeExpired = NewDomainError("LG-CHAL-4100", "verification code expired")

	// ErrChallengeExhausted indicates the attempt limit was exceeded.
	// The link is destroyed when this is returned.
	ErrChallengeExhausted = NewDomainError("LG-CHAL-4290", "too many verification attempts")
)

// ============================================================================
// Delivery Errors (DLVR)
// ============================================================================

var (
	// ErrDeliveryFailure indicates a message could not be handed to the relay.
	// It is logged and never shown to the requester.
	ErrDeliveryFailure = NewDomainError("LG-DLVR-5020", "message delivery failed")

	// ErrDeliveryThrottled indicates the outbound delivery budget was exhausted.
	ErrDeliveryThrottled = NewDomainError("LG-DLVR-4290", "message delivery throttled")
)

// ============================================================================
// Resource Errors (RSRC)
// ============================================================================

var (
	// ErrResourceNotFound indicates the resource provider has no such resource.
	ErrResourceNotFound = NewDomainError("LG-RSRC-4040", "resource not found")

	// ErrResourceNameInvalid indicates the resource id is not an acceptable name.
	ErrResourceNameInvalid = NewDomainError("LG-RSRC-4001", "invalid resource name")
)

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrIssuerKeyMissing indicates no issuer key was provided.
	ErrIssuerKeyMissing = NewDomainError("LG-AUTH-4010", "issuer key not provided")

	// ErrIssuerKeyInvalid indicates the issuer key is unknown or the secret is wrong.
	ErrIssuerKeyInvalid = NewDomainError("LG-AUTH-4011", "invalid issuer key")

	// ErrPermissionDenied indicates the issuer key lacks the required role.
	ErrPermissionDenied = NewDomainError("LG-AUTH-4030", "permission denied")

	// ErrIPNotAllowed indicates the client IP is not in the allowlist.
	ErrIPNotAllowed = NewDomainError("LG-AUTH-4031", "ip not in allowlist")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("LG-SYS-5000", "internal server error")

	// ErrEntropyExhausted indicates the secure random source failed.
	ErrEntropyExhausted = NewDomainError("LG-SYS-5001", "secure random source unavailable")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("LG-SYS-4000", "bad request")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("LG-SYS-4290", "too many requests")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("LG-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("LG-ARG-1002", "missing required argument")
)
