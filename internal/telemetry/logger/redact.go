// Package logger provides structured logging for LinkGate.
package logger

import (
	"log/slog"
	"strings"
)

// Sensitive value prefixes that are partially masked wherever they appear.
var sensitiveValuePrefixes = []string{
	"lgs_", // Link secret (plaintext)
	"lgk_", // Issuer key secret (plaintext)
}

// Sensitive key patterns; matching attributes are fully redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"authorization",
	"bearer",
	"api_key",
}

// Sensitive exact keys; fully redacted.
var sensitiveExactKeys = map[string]struct{}{
	"code":              {},
	"verification_code": {},
	"owner_contact":     {},
	"contact":           {},
	"to":                {},
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive checks if an attribute contains sensitive data
// and redacts it if necessary.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()

		// Known prefixes take priority over key-based detection.
		for _, prefix := range sensitiveValuePrefixes {
			if strings.HasPrefix(strVal, prefix) {
				return slog.String(a.Key, maskValue(strVal, prefix))
			}
		}

		if strVal != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// maskValue partially masks a sensitive value, keeping prefix and hints.
// Format: prefix + first 3 chars + "..." + last 3 chars
func maskValue(value, prefix string) string {
	body := value[len(prefix):]
	if len(body) <= 6 {
		return prefix + "***"
	}
	return prefix + body[:3] + "..." + body[len(body)-3:]
}

// RedactString masks a value if it carries a sensitive prefix.
func RedactString(value string) string {
	for _, prefix := range sensitiveValuePrefixes {
		if strings.HasPrefix(value, prefix) {
			return maskValue(value, prefix)
		}
	}
	return value
}

// RedactPath masks every path segment that carries a sensitive prefix.
// "/resource/lgs_AbC...xyz/products_a.html" keeps only the hint.
func RedactPath(path string) string {
	if !strings.Contains(path, "_") {
		return path
	}
	segments := strings.Split(path, "/")
	changed := false
	for i, seg := range segments {
		if masked := RedactString(seg); masked != seg {
			segments[i] = masked
			changed = true
		}
	}
	if !changed {
		return path
	}
	return strings.Join(segments, "/")
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	if _, ok := sensitiveExactKeys[keyLower]; ok {
		return true
	}
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
