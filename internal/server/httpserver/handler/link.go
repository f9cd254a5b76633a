// Package handler provides HTTP request handlers for LinkGate.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yndnr/linkgate-go/internal/core/domain"
	"github.com/yndnr/linkgate-go/internal/core/service"
	"github.com/yndnr/linkgate-go/internal/resource"
)

// maxIssueBody bounds POST /tokens bodies.
const maxIssueBody = 16 << 10

// handleIssueLink handles POST /tokens.
//
// @design DS-0301
func (h *Handler) handleIssueLink(w http.ResponseWriter, r *http.Request) {
	var req IssueLinkRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIssueBody)).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.Code, "invalid request body", nil)
		return
	}

	req.ResourceID = strings.TrimSpace(req.ResourceID)
	req.OwnerContact = strings.TrimSpace(req.OwnerContact)
	if req.ResourceID == "" {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrMissingArgument.Code, "resource_id is required", nil)
		return
	}
	if req.OwnerContact == "" {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrMissingArgument.Code, "owner_contact is required", nil)
		return
	}
	if req.TTLSeconds < 0 {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrInvalidArgument.Code, "ttl_seconds must not be negative", nil)
		return
	}

	if err := h.checkResource(req.ResourceID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	issuedBy := ""
	if key := IssuerKeyFromContext(r.Context()); key != nil {
		issuedBy = key.ID
	}

	resp, err := h.gate.Issue(r.Context(), &service.IssueRequest{
		ResourceID:   req.ResourceID,
		OwnerContact: req.OwnerContact,
		TTL:          time.Duration(req.TTLSeconds) * time.Second,
		IssuedBy:     issuedBy,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, IssueLinkResponse{
		Secret:           resp.Secret,
		LinkID:           resp.LinkID,
		URL:              h.linkURL(resp.Secret, req.ResourceID),
		ExpiresInMinutes: int64(resp.TTL / time.Minute),
		ExpiresAt:        resp.ExpiresAt.UTC(),
	})
}

// checkResource rejects links to names outside the whitelist or to
// resources that do not exist.
func (h *Handler) checkResource(id string) error {
	if h.resources == nil {
		return nil
	}
	if !h.resources.ValidID(id) {
		return domain.ErrResourceNameInvalid.WithDetails(id)
	}
	if _, err := h.resources.Stat(id); err != nil {
		if errors.Is(err, resource.ErrNotFound) || errors.Is(err, resource.ErrInvalidID) {
			return domain.ErrResourceNotFound.WithDetails(id)
		}
		return err
	}
	return nil
}

// linkURL builds the shareable URL for a link.
func (h *Handler) linkURL(secret, resourceID string) string {
	return h.baseURL + resourcePath(secret, resourceID)
}

func resourcePath(secret, resourceID string) string {
	return "/resource/" + url.PathEscape(secret) + "/" + url.PathEscape(resourceID)
}

// handleStats handles GET /tokens/stats.
//
// @design DS-0301
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.gate.Stats()
	links := stats.Links
	if links == nil {
		links = []domain.LinkSummary{}
	}

	h.writeJSON(w, r, http.StatusOK, StatsResponse{
		Store:        stats.Store,
		Links:        links,
		BypassWindow: h.gate.BypassWindow().String(),
	})
}

// handleSweep handles POST /tokens/sweep.
//
// @design DS-0301
func (h *Handler) handleSweep(w http.ResponseWriter, r *http.Request) {
	removed := h.gate.Sweep()
	h.logger.InfoContext(r.Context(), "manual sweep triggered", "removed", removed)

	h.writeJSON(w, r, http.StatusOK, SweepResponse{
		Removed: removed,
		Live:    h.gate.StoreStats().Live,
	})
}
