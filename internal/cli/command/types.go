// Package command provides CLI command definitions for linkgate-cli.
package command

import "time"

// Wire types mirror the server's JSON bodies.

type issueLinkRequest struct {
	ResourceID   string `json:"resource_id"`
	OwnerContact string `json:"owner_contact"`
	TTLSeconds   int64  `json:"ttl_seconds,omitempty"`
}

type issuedLink struct {
	LinkID           string    `json:"link_id"`
	Secret           string    `json:"secret"`
	URL              string    `json:"url"`
	ExpiresInMinutes int64     `json:"expires_in_minutes"`
	ExpiresAt        time.Time `json:"expires_at"`
}

type verifyRequest struct {
	Secret     string `json:"secret"`
	Code       string `json:"code"`
	ResourceID string `json:"resource_id,omitempty"`
}

type verifyResult struct {
	Verified      bool  `json:"verified"`
	BypassSeconds int64 `json:"bypass_seconds,omitempty"`
}

type verifyFailure struct {
	Outcome           string `json:"outcome"`
	AttemptsRemaining int    `json:"attempts_remaining"`
}

type storeStats struct {
	Live      int    `json:"live"`
	Issued    uint64 `json:"issued_total"`
	Swept     uint64 `json:"swept_total"`
	Discarded uint64 `json:"discarded_total"`
	Expired   uint64 `json:"lazily_expired_total"`
	LastSweep int64  `json:"last_sweep_at" table:"-"`
}

type linkSummary struct {
	ID                      string    `json:"id"`
	SecretHint              string    `json:"secret_hint"`
	ResourceID              string    `json:"resource_id"`
	State                   string    `json:"state"`
	AccessCount             uint64    `json:"access_count"`
	FirstHumanAccessGranted bool      `json:"first_human_access_granted" table:"wide"`
	ChallengePending        bool      `json:"challenge_pending" table:"wide"`
	CreatedAt               time.Time `json:"created_at" table:"wide"`
	ExpiresAt               time.Time `json:"expires_at"`
	Expired                 bool      `json:"expired"`
}

type statsResult struct {
	Store        storeStats    `json:"store"`
	Links        []linkSummary `json:"links"`
	BypassWindow string        `json:"bypass_window"`
}

type sweepResult struct {
	Removed int `json:"removed"`
	Live    int `json:"live"`
}

type healthResult struct {
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
