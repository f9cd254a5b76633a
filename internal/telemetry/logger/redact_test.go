package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

const testLinkSecret = "lgs_ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopq"

func newBufferLogger(t *testing.T) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l, &buf
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	return entry
}

func TestRedactSensitive_LinkSecretValue(t *testing.T) {
	l, buf := newBufferLogger(t)

	// Masked even under an innocuous key.
	l.Info("link requested", "path_param", testLinkSecret)

	got, _ := decodeEntry(t, buf)["path_param"].(string)
	if got != "lgs_ABC...opq" {
		t.Errorf("link secret mask = %q, want lgs_ABC...opq", got)
	}
}

func TestRedactSensitive_IssuerSecret(t *testing.T) {
	l, buf := newBufferLogger(t)

	secret := "lgk_ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklm"
	l.Info("issuer key generated", "secret", secret)

	got, _ := decodeEntry(t, buf)["secret"].(string)
	if got != "lgk_ABC...klm" {
		t.Errorf("issuer secret mask = %q, want lgk_ABC...klm", got)
	}
}

func TestRedactSensitive_SensitiveKeyName(t *testing.T) {
	l, buf := newBufferLogger(t)

	tests := []struct {
		key   string
		value string
	}{
		{"password", "mysecret123"},
		{"api_key", "some-key-value"},
		{"auth_token", "bearer-xyz"},
		{"credential", "cred123"},
		{"code", "123456"},
		{"owner_contact", "+15550001"},
		{"to", "15550001@c.us"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			buf.Reset()
			l.Info("test", tt.key, tt.value)

			if got := decodeEntry(t, buf)[tt.key]; got != redactedValue {
				t.Errorf("Key %q should be redacted, got %v", tt.key, got)
			}
		})
	}
}

func TestRedactSensitive_NormalValues(t *testing.T) {
	l, buf := newBufferLogger(t)

	l.Info("access decided",
		"link_id", "lnk_01hq3v8k2m",
		"issuer_key_id", "shop-backend",
		"resource_id", "products_alice_s1_1700000000000.html",
		"status", 200,
	)

	entry := decodeEntry(t, buf)
	for _, key := range []string{"link_id", "issuer_key_id", "resource_id"} {
		if v, _ := entry[key].(string); v == redactedValue || v == "" {
			t.Errorf("%s should not be redacted, got %v", key, entry[key])
		}
	}
}

func TestRedactSensitive_Group(t *testing.T) {
	l, buf := newBufferLogger(t)

	l.Info("grouped", slog.Group("delivery", "to", "+15550001", "attempt", "1"))
	entry := decodeEntry(t, buf)
	group, _ := entry["delivery"].(map[string]any)
	if group["to"] != redactedValue {
		t.Errorf("nested contact should be redacted, got %v", group["to"])
	}
	if group["attempt"] != "1" {
		t.Errorf("nested attempt should be kept, got %v", group["attempt"])
	}
}

func TestRedactString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"link secret", testLinkSecret, "lgs_ABC...opq"},
		{"issuer secret", "lgk_ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklm", "lgk_ABC...klm"},
		{"short secret", "lgs_ABCDEF", "lgs_***"},
		{"normal value", "normalvalue123", "normalvalue123"},
		{"link id", "lnk_01hq3v8k2m", "lnk_01hq3v8k2m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RedactString(tt.input); got != tt.expected {
				t.Errorf("RedactString(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRedactPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/resource/" + testLinkSecret + "/products_a.html", "/resource/lgs_ABC...opq/products_a.html"},
		{"/verify", "/verify"},
		{"/tokens/stats", "/tokens/stats"},
		{"/resource/not-a-secret/x.html", "/resource/not-a-secret/x.html"},
	}

	for _, tt := range tests {
		if got := RedactPath(tt.path); got != tt.want {
			t.Errorf("RedactPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key       string
		sensitive bool
	}{
		{"password", true},
		{"PASSWORD", true},
		{"secret", true},
		{"token", true},
		{"api_key", true},
		{"authorization", true},
		{"code", true},
		{"CODE", true},
		{"owner_contact", true},
		{"link_id", false},
		{"issuer_key_id", false},
		{"error_code", false},
		{"status", false},
		{"request_id", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := IsSensitiveKey(tt.key); got != tt.sensitive {
				t.Errorf("IsSensitiveKey(%q) = %v, want %v", tt.key, got, tt.sensitive)
			}
		})
	}
}

func TestMaskValue(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{"long value", testLinkSecret, "lgs_ABC...opq"},
		{"short value", "lgs_ABCDEF", "lgs_***"},
		{"minimal value", "lgs_AB", "lgs_***"},
		{"prefix only", "lgs_", "lgs_***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := maskValue(tt.value, "lgs_"); got != tt.expected {
				t.Errorf("maskValue(%q) = %q, want %q", tt.value, got, tt.expected)
			}
		})
	}
}
