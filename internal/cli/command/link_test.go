package command

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/linkgate-go/internal/cli/connection"
)

func TestLinkCommand(t *testing.T) {
	cmd := LinkCommand()
	subs := make(map[string]bool)
	for _, sub := range cmd.Subcommands {
		subs[sub.Name] = true
		if sub.Action == nil {
			t.Errorf("%s has no action", sub.Name)
		}
	}
	for _, want := range []string{"issue", "stats", "sweep"} {
		if !subs[want] {
			t.Errorf("missing subcommand %q", want)
		}
	}
}

func TestLinkIssue(t *testing.T) {
	srv := newMockServer(t)
	srv.handle("POST /tokens", func(w http.ResponseWriter, r *http.Request) {
		dataResponse(w, http.StatusCreated, issuedLink{
			LinkID:           "lnk_01j",
			Secret:           "lgs_abc",
			URL:              "http://links.test/resource/lgs_abc/products_a.html",
			ExpiresInMinutes: 120,
			ExpiresAt:        time.Now().Add(2 * time.Hour),
		})
	})

	args := append(keyFlags(srv.URL), "-o", "json", "link", "issue", "-r", "products_a.html", "-c", "905551112233", "--ttl", "2h")
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("link issue error = %v\n%s", err, out)
	}

	req := srv.lastRequest(t)
	if req.Auth != "Bearer lgk-ops:lgk_testsecret" {
		t.Errorf("Authorization = %q", req.Auth)
	}
	var body issueLinkRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if body.ResourceID != "products_a.html" || body.OwnerContact != "905551112233" || body.TTLSeconds != 7200 {
		t.Errorf("request body = %+v", body)
	}

	var got issuedLink
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got.Secret != "lgs_abc" {
		t.Errorf("secret = %q", got.Secret)
	}
}

func TestLinkIssue_Table(t *testing.T) {
	srv := newMockServer(t)
	srv.handle("POST /tokens", func(w http.ResponseWriter, r *http.Request) {
		dataResponse(w, http.StatusCreated, issuedLink{Secret: "lgs_abc", URL: "http://links.test/resource/lgs_abc/a.html"})
	})

	out, err := runCLI(t, append(keyFlags(srv.URL), "link", "issue", "-r", "a.html", "-c", "x")...)
	if err != nil {
		t.Fatalf("link issue error = %v", err)
	}
	if !strings.Contains(out, "FIELD") || !strings.Contains(out, "http://links.test/resource/lgs_abc/a.html") {
		t.Errorf("unexpected table:\n%s", out)
	}
}

func TestLinkIssue_Errors(t *testing.T) {
	srv := newMockServer(t)
	srv.handle("POST /tokens", func(w http.ResponseWriter, r *http.Request) {
		errorResponse(w, http.StatusNotFound, "LG-RSRC-4040", "resource not found", nil)
	})

	t.Run("needs a key", func(t *testing.T) {
		_, err := runCLI(t, "--server", srv.URL, "link", "issue", "-r", "a.html", "-c", "x")
		if err == nil || !strings.Contains(err.Error(), "issuer key required") {
			t.Errorf("error = %v, want missing key", err)
		}
	})

	t.Run("required flags", func(t *testing.T) {
		if _, err := runCLI(t, append(keyFlags(srv.URL), "link", "issue", "-r", "a.html")...); err == nil {
			t.Error("missing --contact should fail")
		}
	})

	t.Run("sub-second ttl", func(t *testing.T) {
		if _, err := runCLI(t, append(keyFlags(srv.URL), "link", "issue", "-r", "a.html", "-c", "x", "--ttl", "10ms")...); err == nil {
			t.Error("--ttl 10ms should fail")
		}
	})

	t.Run("server error", func(t *testing.T) {
		_, err := runCLI(t, append(keyFlags(srv.URL), "link", "issue", "-r", "a.html", "-c", "x")...)
		var apiErr *connection.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != "LG-RSRC-4040" {
			t.Errorf("error = %v, want LG-RSRC-4040", err)
		}
	})
}

func TestLinkStats(t *testing.T) {
	srv := newMockServer(t)
	srv.handle("GET /tokens/stats", func(w http.ResponseWriter, r *http.Request) {
		dataResponse(w, http.StatusOK, statsResult{
			Store: storeStats{Live: 1, Issued: 3, Swept: 2, LastSweep: time.Now().UnixMilli()},
			Links: []linkSummary{{
				ID:               "lnk_01j",
				SecretHint:       "lgs_abc...xyz",
				ResourceID:       "products_a.html",
				State:            "active",
				ChallengePending: true,
				ExpiresAt:        time.Now().Add(time.Hour),
			}},
			BypassWindow: "1h0m0s",
		})
	})

	out, err := runCLI(t, append(keyFlags(srv.URL), "link", "stats")...)
	if err != nil {
		t.Fatalf("link stats error = %v", err)
	}
	for _, want := range []string{"LIVE", "ISSUED", "1h0m0s", "lnk_01j", "products_a.html", "lgs_abc...xyz"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "CHALLENGE_PENDING") {
		t.Errorf("wide column shown without --wide:\n%s", out)
	}

	out, err = runCLI(t, append(keyFlags(srv.URL), "--wide", "link", "stats")...)
	if err != nil {
		t.Fatalf("link stats --wide error = %v", err)
	}
	if !strings.Contains(out, "CHALLENGE_PENDING") {
		t.Errorf("wide column missing:\n%s", out)
	}

	out, err = runCLI(t, append(keyFlags(srv.URL), "-o", "yaml", "link", "stats")...)
	if err != nil {
		t.Fatalf("link stats -o yaml error = %v", err)
	}
	if !strings.Contains(out, "issued_total: 3") || !strings.Contains(out, "bypass_window: 1h0m0s") {
		t.Errorf("unexpected yaml:\n%s", out)
	}
}

func TestLinkStats_Empty(t *testing.T) {
	srv := newMockServer(t)
	srv.handle("GET /tokens/stats", func(w http.ResponseWriter, r *http.Request) {
		dataResponse(w, http.StatusOK, statsResult{Links: []linkSummary{}, BypassWindow: "1h0m0s"})
	})

	out, err := runCLI(t, append(keyFlags(srv.URL), "link", "stats")...)
	if err != nil {
		t.Fatalf("link stats error = %v", err)
	}
	if !strings.Contains(out, "No live links.") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestLinkSweep(t *testing.T) {
	srv := newMockServer(t)
	srv.handle("POST /tokens/sweep", func(w http.ResponseWriter, r *http.Request) {
		dataResponse(w, http.StatusOK, sweepResult{Removed: 4, Live: 2})
	})

	out, err := runCLI(t, append(keyFlags(srv.URL), "link", "sweep")...)
	if err != nil {
		t.Fatalf("link sweep error = %v", err)
	}
	if !strings.Contains(out, "Removed 4 expired link(s), 2 live.") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if req := srv.lastRequest(t); req.Method != http.MethodPost || req.Body != "" {
		t.Errorf("request = %+v, want empty POST", req)
	}
}
