// Package connection provides connection management for linkgate-cli.
package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/linkgate-go/internal/infra/buildinfo"
)

// DefaultTimeout bounds a single CLI request.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// HTTPClient provides HTTP communication with the server.
type HTTPClient struct {
	baseURL   string
	client    *http.Client
	keyID     string
	keySecret string
}

// NewHTTPClient creates a new HTTP client. Servers given without a scheme
// are reached over plain http.
func NewHTTPClient(server, keyID, keySecret string) *HTTPClient {
	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	return &HTTPClient{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		client: &http.Client{
			Timeout: DefaultTimeout,
			// Resource links answer with pages and redirects meant for
			// browsers; the CLI reports them as they are.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.addHeaders(req)
	return c.client.Do(req)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.addHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.client.Do(req)
}

// addHeaders adds authentication and common headers.
func (c *HTTPClient) addHeaders(req *http.Request) {
	if c.keyID != "" && c.keySecret != "" {
		req.Header.Set("Authorization", "Bearer "+c.keyID+":"+c.keySecret)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.Product+"-cli/"+buildinfo.Get().Version)
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// HasCredentials reports whether an issuer key is configured.
func (c *HTTPClient) HasCredentials() bool {
	return c.keyID != "" && c.keySecret != ""
}

// APIError is an error envelope returned by the server.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
	Details   json.RawMessage
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// DecodeDetails decodes the error details into target.
func (e *APIError) DecodeDetails(target any) error {
	if len(e.Details) == 0 {
		return fmt.Errorf("no details")
	}
	return json.Unmarshal(e.Details, target)
}

// envelope mirrors the server response envelope.
type envelope struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
	Details   json.RawMessage `json:"details"`
}

// ParseResponse decodes the envelope of resp and unmarshals its data field
// into target. Error statuses are returned as *APIError; data carried by an
// error response (such as a failed readiness report) is still decoded.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, RequestID: resp.Header.Get("X-Request-ID")}
		if decodeErr == nil {
			apiErr.Code = env.Code
			apiErr.Message = env.Message
			apiErr.Details = env.Details
			if env.RequestID != "" {
				apiErr.RequestID = env.RequestID
			}
			if target != nil && len(env.Data) > 0 {
				_ = json.Unmarshal(env.Data, target)
			}
		}
		if apiErr.Code == "" || apiErr.Code == "OK" {
			apiErr.Code = resp.Header.Get("X-Error-Code")
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if decodeErr != nil {
		return fmt.Errorf("parse response: %w", decodeErr)
	}
	if target != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, target); err != nil {
			return fmt.Errorf("parse response data: %w", err)
		}
	}
	return nil
}
