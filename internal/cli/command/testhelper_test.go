package command

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/urfave/cli/v2"
)

// mockServer serves canned envelopes keyed by "METHOD /path".
type mockServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []recordedRequest
}

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   string
}

func newMockServer(t *testing.T) *mockServer {
	m := &mockServer{handlers: make(map[string]http.HandlerFunc)}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		m.mu.Lock()
		m.requests = append(m.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Auth:   r.Header.Get("Authorization"),
			Body:   string(body),
		})
		h, ok := m.handlers[r.Method+" "+r.URL.Path]
		m.mu.Unlock()
		if !ok {
			errorResponse(w, http.StatusNotFound, "LG-SYS-4040", "not found", nil)
			return
		}
		h(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

func (m *mockServer) handle(pattern string, h http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[pattern] = h
}

func (m *mockServer) lastRequest(t *testing.T) recordedRequest {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		t.Fatal("no request received")
	}
	return m.requests[len(m.requests)-1]
}

// dataResponse writes a success envelope.
func dataResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"code":       "OK",
		"message":    "Success",
		"request_id": "req-test",
		"data":       data,
	})
}

// errorResponse writes an error envelope.
func errorResponse(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"code":       code,
		"message":    message,
		"request_id": "req-test",
		"details":    details,
	})
}

// runCLI runs the app with an isolated config file and captures output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCLIWithConfig(t, filepath.Join(t.TempDir(), "cli.yaml"), "", args...)
}

func runCLIWithConfig(t *testing.T, configPath, stdin string, args ...string) (string, error) {
	t.Helper()

	app := App()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	app.Reader = strings.NewReader(stdin)
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := append([]string{"linkgate-cli", "--config", configPath}, args...)
	err := app.Run(full)
	return out.String(), err
}

// keyFlags are global flags carrying a test issuer key.
func keyFlags(server string) []string {
	return []string{"--server", server, "--key-id", "lgk-ops", "--key-secret", "lgk_testsecret"}
}
