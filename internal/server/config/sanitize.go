// Package config defines the server configuration structure.
package config

import (
	"strings"

	"github.com/yndnr/linkgate-go/internal/core/domain"
)

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	if sanitized.Delivery.AuthToken != "" {
		sanitized.Delivery.AuthToken = maskSecret(sanitized.Delivery.AuthToken)
	}

	// The slice is shared with cfg; copy before masking.
	if len(cfg.Security.IssuerKeys) > 0 {
		keys := make([]domain.IssuerKey, len(cfg.Security.IssuerKeys))
		copy(keys, cfg.Security.IssuerKeys)
		for i := range keys {
			keys[i].SecretHash = maskSecret(keys[i].SecretHash)
		}
		sanitized.Security.IssuerKeys = keys
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
