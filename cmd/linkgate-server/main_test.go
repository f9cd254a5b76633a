package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/linkgate-go/internal/core/domain"
	"github.com/yndnr/linkgate-go/internal/delivery"
	"github.com/yndnr/linkgate-go/internal/server/config"
	"github.com/yndnr/linkgate-go/internal/telemetry/metric"
)

func testConfig(t *testing.T) *config.ServerConfig {
	t.Helper()
	cfg := config.Default()
	cfg.Resource.Dir = t.TempDir()
	cfg.Delivery.Mode = "log"
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewServer(t *testing.T) {
	srv, err := newServer(testConfig(t), discardLogger(), metric.NewRegistry())
	if err != nil {
		t.Fatalf("newServer() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := srv.start(ctx); err != nil {
		t.Fatalf("start() error = %v", err)
	}
	defer func() {
		srv.sweeper.Stop()
		if err := srv.closeAudit(); err != nil {
			t.Errorf("closeAudit() error = %v", err)
		}
	}()

	for _, path := range []string{"/health", "/ready"} {
		rec := httptest.NewRecorder()
		srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "linkgate_store_links") {
		t.Error("store collector not registered")
	}
}

func TestNewServer_AuditDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Audit.Enabled = false
	cfg.RateLimit.Enabled = false

	srv, err := newServer(cfg, discardLogger(), metric.NewRegistry())
	if err != nil {
		t.Fatalf("newServer() error = %v", err)
	}
	if srv.bus != nil {
		t.Error("audit bus created while disabled")
	}
	if err := srv.closeAudit(); err != nil {
		t.Errorf("closeAudit() error = %v", err)
	}
}

func TestNewServer_InvalidResourcePattern(t *testing.T) {
	cfg := testConfig(t)
	cfg.Resource.Pattern = "("

	if _, err := newServer(cfg, discardLogger(), metric.NewRegistry()); err == nil {
		t.Error("expected error for invalid resource pattern")
	}
}

func TestNewDeliverer(t *testing.T) {
	cfg := testConfig(t)
	if _, ok := newDeliverer(cfg, discardLogger()).(*delivery.LogDeliverer); !ok {
		t.Error("log mode should use LogDeliverer")
	}

	cfg.Delivery.Mode = "relay"
	if _, ok := newDeliverer(cfg, discardLogger()).(*delivery.RelayClient); !ok {
		t.Error("relay mode should use RelayClient")
	}
}

func TestServer_Reload(t *testing.T) {
	srv, err := newServer(testConfig(t), discardLogger(), metric.NewRegistry())
	if err != nil {
		t.Fatalf("newServer() error = %v", err)
	}
	if srv.auth.KeyCount() != 0 {
		t.Fatalf("KeyCount() = %d, want 0", srv.auth.KeyCount())
	}

	_, hash, err := domain.GenerateIssuerSecret()
	if err != nil {
		t.Fatalf("GenerateIssuerSecret() error = %v", err)
	}
	next := testConfig(t)
	next.Security.IssuerKeys = []domain.IssuerKey{{ID: "lgk-new", SecretHash: hash, Role: domain.RoleIssuer}}
	next.Log.Level = "debug"

	srv.reload(next)

	if srv.auth.KeyCount() != 1 {
		t.Errorf("KeyCount() after reload = %d, want 1", srv.auth.KeyCount())
	}
}

func TestWatchConfig_NoFiles(t *testing.T) {
	w, err := watchConfig("", "", discardLogger(), func() {})
	if err != nil || w != nil {
		t.Errorf("watchConfig() = %v, %v; want nil, nil", w, err)
	}
}

func TestWatchConfig_Reload(t *testing.T) {
	path := t.TempDir() + "/linkgate.yaml"
	if err := writeFile(path, "log:\n  level: info\n"); err != nil {
		t.Fatalf("write: %v", err)
	}

	reloaded := make(chan struct{}, 1)
	w, err := watchConfig(path, "", discardLogger(), func() {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("watchConfig() error = %v", err)
	}
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	if err := writeFile(path, "log:\n  level: debug\n"); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-reloaded:
	case <-time.After(3 * time.Second):
		t.Error("reload not triggered")
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
