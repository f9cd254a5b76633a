package command

import (
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestSystemCommand(t *testing.T) {
	cmd := SystemCommand()
	if len(cmd.Aliases) == 0 || cmd.Aliases[0] != "sys" {
		t.Error("expected alias sys")
	}
	subs := make(map[string]bool)
	for _, sub := range cmd.Subcommands {
		subs[sub.Name] = true
	}
	for _, want := range []string{"health", "ready", "version"} {
		if !subs[want] {
			t.Errorf("missing subcommand %q", want)
		}
	}
}

func TestSystemHealth(t *testing.T) {
	srv := newMockServer(t)
	srv.handle("GET /health", func(w http.ResponseWriter, r *http.Request) {
		dataResponse(w, http.StatusOK, healthResult{
			Status:        "healthy",
			Version:       "1.2.3",
			UptimeSeconds: 90,
			LiveLinks:     7,
			LastSweepAt:   time.Now(),
			Time:          time.Now(),
		})
	})

	out, err := runCLI(t, "--server", srv.URL, "system", "health")
	if err != nil {
		t.Fatalf("system health error = %v", err)
	}
	for _, want := range []string{"Server is healthy", "1.2.3", "1m30s", "Live links: 7", "Last sweep:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if auth := srv.lastRequest(t).Auth; auth != "" {
		t.Errorf("health sent credentials: %q", auth)
	}

	out, err = runCLI(t, "--server", srv.URL, "-o", "json", "sys", "health")
	if err != nil {
		t.Fatalf("system health -o json error = %v", err)
	}
	if !strings.Contains(out, `"live_links": 7`) {
		t.Errorf("unexpected json:\n%s", out)
	}
}

func TestSystemHealth_Unreachable(t *testing.T) {
	srv := newMockServer(t)
	url := srv.URL
	srv.Close()

	if _, err := runCLI(t, "--server", url, "--timeout", "2s", "system", "health"); err == nil {
		t.Error("expected error for closed server")
	}
}

func TestSystemReady(t *testing.T) {
	var notReady atomic.Bool
	srv := newMockServer(t)
	srv.handle("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		if !notReady.Load() {
			dataResponse(w, http.StatusOK, healthResult{Status: "ready"})
			return
		}
		dataResponse(w, http.StatusServiceUnavailable, healthResult{Status: "not_ready", Checks: []string{"resource_dir"}})
	})

	out, err := runCLI(t, "--server", srv.URL, "system", "ready")
	if err != nil || !strings.Contains(out, "Server is ready") {
		t.Errorf("ready = %q, %v", out, err)
	}

	notReady.Store(true)
	out, err = runCLI(t, "--server", srv.URL, "system", "ready")
	if err == nil {
		t.Error("expected error when not ready")
	}
	if !strings.Contains(out, "failed check: resource_dir") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestSystemVersion(t *testing.T) {
	srv := newMockServer(t)
	srv.handle("GET /health", func(w http.ResponseWriter, r *http.Request) {
		dataResponse(w, http.StatusOK, healthResult{Status: "healthy", Version: "9.9.9"})
	})

	out, err := runCLI(t, "--server", srv.URL, "system", "version")
	if err != nil {
		t.Fatalf("system version error = %v", err)
	}
	if !strings.Contains(out, "Client: ") || !strings.Contains(out, "Server: 9.9.9") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
