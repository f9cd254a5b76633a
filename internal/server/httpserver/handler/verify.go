// Package handler provides HTTP request handlers for LinkGate.
package handler

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/yndnr/linkgate-go/internal/core/domain"
	"github.com/yndnr/linkgate-go/internal/core/service"
)

// maxVerifyBody bounds POST /verify bodies.
const maxVerifyBody = 4 << 10

// handleVerify handles POST /verify. It accepts JSON from API clients and
// form posts from the challenge page; form posts get HTML back.
//
// @design DS-0301
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxVerifyBody)

	if isFormPost(r) {
		h.handleVerifyForm(w, r)
		return
	}

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.Code, "invalid request body", nil)
		return
	}
	if req.Secret == "" || req.Code == "" {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrMissingArgument.Code, "secret and code are required", nil)
		return
	}

	result, err := h.gate.Verify(r.Context(), req.Secret, strings.TrimSpace(req.Code))
	if err != nil {
		h.handleServiceErrorDetails(w, r, err, VerifyFailureDetails{
			Outcome:           string(result.Outcome),
			AttemptsRemaining: result.AttemptsRemaining,
		})
		return
	}

	h.writeJSON(w, r, http.StatusOK, VerifyResponse{
		Verified:      true,
		BypassSeconds: int64(h.gate.BypassWindow().Seconds()),
	})
}

// handleVerifyForm serves the challenge page round trip.
func (h *Handler) handleVerifyForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderPage(w, http.StatusBadRequest, deniedTmpl, simplePage{Title: "Link unavailable"})
		return
	}
	secret := r.PostForm.Get("secret")
	resourceID := r.PostForm.Get("resource_id")
	code := strings.TrimSpace(r.PostForm.Get("code"))

	if secret == "" || resourceID == "" {
		h.renderPage(w, http.StatusBadRequest, deniedTmpl, simplePage{Title: "Link unavailable"})
		return
	}
	if code == "" {
		h.renderChallenge(w, http.StatusBadRequest, secret, resourceID, "Enter the 6-digit code.", 0)
		return
	}

	result, err := h.gate.Verify(r.Context(), secret, code)
	if err == nil {
		http.Redirect(w, r, resourcePath(secret, resourceID), http.StatusSeeOther)
		return
	}

	status := http.StatusInternalServerError
	if domain.IsDomainError(err, "") {
		status = errorCodeToHTTPStatus(domain.GetErrorCode(err))
	} else {
		h.logger.ErrorContext(r.Context(), "verification failed", "error", err)
	}

	switch result.Outcome {
	case service.CheckInvalid:
		msg := "Incorrect code."
		if result.AttemptsRemaining > 0 {
			msg = fmt.Sprintf("Incorrect code. %d attempts remaining.", result.AttemptsRemaining)
		}
		h.renderChallenge(w, status, secret, resourceID, msg, result.AttemptsRemaining)
	case service.CheckExpired:
		h.renderChallenge(w, status, secret, resourceID, "This code has expired. Open the link again to receive a new one.", 0)
	default:
		h.renderPage(w, status, deniedTmpl, simplePage{Title: "Link unavailable"})
	}
}

func isFormPost(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/x-www-form-urlencoded"
}
