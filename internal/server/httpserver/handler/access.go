// Package handler provides HTTP request handlers for LinkGate.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/yndnr/linkgate-go/internal/core/service"
	"github.com/yndnr/linkgate-go/internal/resource"
)

// ChallengeHeader marks responses that carry the challenge page.
const ChallengeHeader = "X-LinkGate-Challenge"

// handleAccess handles GET /resource/{secret}/{resourceId}.
//
// Every denial renders the same page so the response does not reveal
// whether a link existed.
//
// @design DS-0301
func (h *Handler) handleAccess(w http.ResponseWriter, r *http.Request) {
	secret := r.PathValue("secret")
	resourceID := r.PathValue("resourceId")

	d, err := h.gate.Evaluate(r.Context(), &service.AccessRequest{
		Secret:     secret,
		ResourceID: resourceID,
		Meta:       requestMeta(r),
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "access evaluation failed", "resource_id", resourceID, "client_ip", getClientIP(r), "error", err)
		h.renderPage(w, http.StatusInternalServerError, unavailableTmpl, simplePage{Title: "Unavailable"})
		return
	}

	switch d.Outcome {
	case service.OutcomeGranted:
		h.serveResource(w, r, resourceID)

	case service.OutcomeChallengeRequired:
		w.Header().Set(ChallengeHeader, "required")
		h.renderChallenge(w, http.StatusOK, secret, resourceID, "", 0)

	default:
		status := http.StatusNotFound
		if d.DenyReason == service.DenyChannelOnly {
			status = http.StatusForbidden
		}
		h.renderPage(w, status, deniedTmpl, simplePage{Title: "Link unavailable"})
	}
}

// serveResource streams a granted resource.
func (h *Handler) serveResource(w http.ResponseWriter, r *http.Request, id string) {
	if h.resources == nil {
		h.renderPage(w, http.StatusNotFound, deniedTmpl, simplePage{Title: "Link unavailable"})
		return
	}

	content, info, err := h.resources.Open(id)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) || errors.Is(err, resource.ErrInvalidID) {
			h.logger.WarnContext(r.Context(), "granted resource missing", "resource_id", id)
			h.renderPage(w, http.StatusNotFound, deniedTmpl, simplePage{Title: "Link unavailable"})
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to open resource", "resource_id", id, "error", err)
		h.renderPage(w, http.StatusInternalServerError, unavailableTmpl, simplePage{Title: "Unavailable"})
		return
	}
	defer content.Close()

	setPageHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, info.ID, info.ModTime, content)
}

// renderChallenge renders the code entry page.
func (h *Handler) renderChallenge(w http.ResponseWriter, status int, secret, resourceID, msg string, remaining int) {
	h.renderPage(w, status, challengeTmpl, challengePage{
		Title:             "Verification required",
		Secret:            secret,
		ResourceID:        resourceID,
		Error:             msg,
		AttemptsRemaining: remaining,
		CodeMinutes:       int(h.codeTTL / time.Minute),
	})
}
