package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	key := validKey(t, "lgk-file")

	keysFile := writeFile(t, dir, "keys.yaml", "issuer_keys:\n"+
		"  - id: "+key.ID+"\n"+
		"    secret_hash: \""+key.SecretHash+"\"\n"+
		"    role: issuer\n")

	cfgFile := writeFile(t, dir, "linkgate.yaml", `
server:
  http:
    addr: 127.0.0.1:9090
gate:
  ambiguous_policy: strict
resource:
  dir: `+dir+`
security:
  issuer_keys_file: `+keysFile+`
`)

	t.Setenv("LGTEST_LINKS__DEFAULT_TTL", "90m")

	cfg, err := Load(LoadOptions{File: cfgFile, EnvPrefix: "LGTEST_"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTP.Addr != "127.0.0.1:9090" {
		t.Errorf("Addr = %q, want 127.0.0.1:9090", cfg.Server.HTTP.Addr)
	}
	if cfg.Gate.AmbiguousPolicy != "strict" {
		t.Errorf("AmbiguousPolicy = %q, want strict", cfg.Gate.AmbiguousPolicy)
	}
	if cfg.Links.DefaultTTL != 90*time.Minute {
		t.Errorf("DefaultTTL = %v, want 90m from env", cfg.Links.DefaultTTL)
	}
	if cfg.Challenge.MaxAttempts != Default().Challenge.MaxAttempts {
		t.Errorf("unset values should keep defaults, MaxAttempts = %d", cfg.Challenge.MaxAttempts)
	}
	if len(cfg.Security.IssuerKeys) != 1 || cfg.Security.IssuerKeys[0].ID != "lgk-file" {
		t.Errorf("IssuerKeys = %+v, want the key from the keys file", cfg.Security.IssuerKeys)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "LGDOT_GATE__BYPASS_WINDOW=2h\nLGDOT_RESOURCE__DIR="+dir+"\n")
	t.Cleanup(func() {
		os.Unsetenv("LGDOT_GATE__BYPASS_WINDOW")
		os.Unsetenv("LGDOT_RESOURCE__DIR")
	})

	cfg, err := Load(LoadOptions{DotEnv: []string{envFile, filepath.Join(dir, "missing.env")}, EnvPrefix: "LGDOT_"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Gate.BypassWindow != 2*time.Hour {
		t.Errorf("BypassWindow = %v, want 2h", cfg.Gate.BypassWindow)
	}
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad policy", "gate:\n  ambiguous_policy: sometimes\n", "invalid configuration"},
		{"missing keys file", "security:\n  issuer_keys_file: " + filepath.Join(dir, "nope.yaml") + "\n", "issuer keys"},
		{"malformed yaml", "server: [\n", "load config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml", tt.content)
			_, err := Load(LoadOptions{File: path, EnvPrefix: "LGNONE_"})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadIssuerKeys_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "keys.yaml", "issuer_keys:\n  - id: lgk-bad\n    secret_hash: plain\n    role: issuer\n")

	if _, err := LoadIssuerKeys(path); err == nil {
		t.Error("LoadIssuerKeys() should reject a non-argon2 hash")
	}
}
