package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sonarlens/sonarlens/internal/config"
	apperrors "github.com/sonarlens/sonarlens/internal/errors"
	"github.com/sonarlens/sonarlens/internal/pplx"
	"github.com/sonarlens/sonarlens/internal/pplx/transport"
)

type fixedTransport struct {
	status int
	body   string
}

func (f *fixedTransport) Send(ctx context.Context, method, url string, header http.Header, body []byte) (*transport.Result, error) {
	return &transport.Result{StatusCode: f.status, Body: []byte(f.body)}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	client, err := pplx.New(pplx.Config{
		APIKey:            "test-key",
		RateLimitEnabled:  true,
		RequestsPerMinute: 1000,
	}, pplx.WithTransport(&fixedTransport{
		status: 200,
		body:   `{"id":"r","model":"sonar","choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}],"usage":{}}`,
	}))
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}

	return New(config.ServerConfig{Host: "127.0.0.1", Port: 0}, client, "test")
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	var body apperrors.HTTPErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if body.Error.Code != "NOT_FOUND" {
		t.Fatalf("expected error code NOT_FOUND, got %s", body.Error.Code)
	}
}

func TestServerRoutesChatRequests(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat",
		strings.NewReader(`{"model":"sonar","messages":[{"role":"user","content":"hi"}]}`))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"content":"ok"`) {
		t.Fatalf("expected completion content in response, got %s", rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header on response")
	}
}

func TestServerExposesRateLimitStatus(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ratelimit", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"limit":1000`) {
		t.Fatalf("expected limit in body, got %s", rec.Body.String())
	}
}

func TestServerHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200 for %s, got %d", path, rec.Code)
		}
	}
}

func TestServerMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/chat", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
}
