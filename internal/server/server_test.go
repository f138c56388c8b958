package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/information-sharing-networks/oms-authenticator/internal/api"
	"github.com/information-sharing-networks/oms-authenticator/internal/clock"
	"github.com/information-sharing-networks/oms-authenticator/internal/config"
	"github.com/information-sharing-networks/oms-authenticator/internal/result"
	"github.com/information-sharing-networks/oms-authenticator/internal/token"
)

var testStart = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

// stubAdapter issues numbered tokens, or fails with a fixed message.
type stubAdapter struct {
	clock   clock.Clock
	failure string

	mu    sync.Mutex
	count int
}

func (a *stubAdapter) Name() string { return "stub" }

func (a *stubAdapter) Acquire(ctx context.Context, key token.Key) result.Result[token.Token] {
	if a.failure != "" {
		return result.Failure[token.Token](a.failure)
	}
	a.mu.Lock()
	a.count++
	n := a.count
	a.mu.Unlock()
	return result.Success(token.Token{
		Value:     fmt.Sprintf("%s-token-%d", key.Class(), n),
		RequestID: key.RequestID(),
		ExpiresAt: a.clock.Now().Add(time.Hour),
	})
}

func (a *stubAdapter) Sign(ctx context.Context, payload string) result.Result[string] {
	if a.failure != "" {
		return result.Failure[string](a.failure)
	}
	return result.Success("sig(" + payload + ")")
}

func testConfig() *config.ServerEnvironment {
	return &config.ServerEnvironment{
		Environment:           "test",
		Host:                  "localhost",
		Port:                  0,
		LogLevel:              "none",
		ServerShutdownTimeout: time.Second,
		ReadTimeout:           5 * time.Second,
		WriteTimeout:          5 * time.Second,
		IdleTimeout:           5 * time.Second,
		MaxRequestSize:        256,
		CacheCleanupInterval:  time.Minute,
	}
}

type testServer struct {
	server *Server
	clock  *clock.Manual
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	clk := clock.NewManual(testStart)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ok := token.NewBroker("gis", token.NewCache(clk), &stubAdapter{clock: clk}, logger)
	broken := token.NewBroker("broken", token.NewCache(clk), &stubAdapter{clock: clk, failure: "authority unavailable"}, logger)

	return &testServer{
		server: NewServer(testConfig(), []*token.Broker{ok, broken}, logger),
		clock:  clk,
	}
}

func (ts *testServer) do(t *testing.T, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rr, req)
	return rr
}

func decodeToken(t *testing.T, rr *httptest.ResponseRecorder) api.TokenResponse {
	t.Helper()
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}
	var resp api.TokenResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding token response: %v", err)
	}
	return resp
}

func decodeErrors(t *testing.T, rr *httptest.ResponseRecorder) []string {
	t.Helper()
	var resp api.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error response %q: %v", rr.Body.String(), err)
	}
	return resp.Errors
}

func TestSessionToken(t *testing.T) {
	ts := newTestServer(t)

	first := decodeToken(t, ts.do(t, "GET", "/api/v2/gis/oms/token?omsid=o1&connectionid=c1&requestid=r1", ""))
	if first.Token != "session-token-1" || first.RequestID != "r1" {
		t.Errorf("unexpected token %+v", first)
	}
	if !first.Expires.Equal(testStart.Add(time.Hour)) {
		t.Errorf("expires = %v, want %v", first.Expires, testStart.Add(time.Hour))
	}

	again := decodeToken(t, ts.do(t, "GET", "/api/v2/gis/oms/token?omsid=o1&connectionid=c1&requestid=r1", ""))
	if again.Token != first.Token {
		t.Errorf("same request id returned %q, want %q", again.Token, first.Token)
	}

	reused := decodeToken(t, ts.do(t, "GET", "/api/v2/gis/oms/token?omsid=o1&connectionid=c1", ""))
	if reused.Token != first.Token || reused.RequestID != "r1" {
		t.Errorf("request without id got %+v, want the cached token", reused)
	}

	other := decodeToken(t, ts.do(t, "GET", "/api/v2/gis/oms/token?omsid=o1&connectionid=c1&requestid=r2", ""))
	if other.Token == first.Token {
		t.Error("a new request id must acquire a new token")
	}
}

func TestTokenRequestErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantError  string
	}{
		{
			name:       "missing omsid",
			target:     "/api/v2/gis/oms/token?connectionid=c1",
			wantStatus: http.StatusBadRequest,
			wantError:  "Query string parameter 'omsid' is required.",
		},
		{
			name:       "missing connectionid",
			target:     "/api/v2/gis/oms/token?omsid=o1",
			wantStatus: http.StatusBadRequest,
			wantError:  "Query string parameter 'connectionid' is required.",
		},
		{
			name:       "unknown provider",
			target:     "/api/v2/nowhere/oms/token?omsid=o1&connectionid=c1",
			wantStatus: http.StatusNotFound,
			wantError:  "Provider 'nowhere' is not configured.",
		},
		{
			name:       "authority failure",
			target:     "/api/v2/broken/oms/token?omsid=o1&connectionid=c1",
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "authority unavailable",
		},
		{
			name:       "authority token failure",
			target:     "/api/v2/broken/true/token",
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "authority unavailable",
		},
		{
			name:       "no cached token",
			target:     "/api/v2/gis/oms/token/cached?omsid=o1&connectionid=c1",
			wantStatus: http.StatusNotFound,
			wantError:  "Token does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, "GET", tt.target, "")
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body: %s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			errs := decodeErrors(t, rr)
			if len(errs) != 1 || errs[0] != tt.wantError {
				t.Errorf("errors = %q, want [%q]", errs, tt.wantError)
			}
		})
	}
}

func TestCachedSessionToken(t *testing.T) {
	ts := newTestServer(t)
	const cached = "/api/v2/gis/oms/token/cached?omsid=o1&connectionid=c1"

	if rr := ts.do(t, "GET", cached, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("status before acquisition = %d, want 404", rr.Code)
	}

	issued := decodeToken(t, ts.do(t, "GET", "/api/v2/gis/oms/token?omsid=o1&connectionid=c1", ""))
	found := decodeToken(t, ts.do(t, "GET", cached, ""))
	if found.Token != issued.Token {
		t.Errorf("cached lookup returned %q, want %q", found.Token, issued.Token)
	}

	ts.clock.Advance(2 * time.Hour)
	if rr := ts.do(t, "GET", cached, ""); rr.Code != http.StatusNotFound {
		t.Errorf("status after expiry = %d, want 404", rr.Code)
	}
}

func TestAuthorityToken(t *testing.T) {
	ts := newTestServer(t)

	first := decodeToken(t, ts.do(t, "GET", "/api/v2/gis/true/token", ""))
	if first.Token != "authority-token-1" || first.RequestID == "" {
		t.Errorf("unexpected token %+v", first)
	}

	second := decodeToken(t, ts.do(t, "GET", "/api/v2/gis/true/token", ""))
	if second.Token != first.Token {
		t.Errorf("authority token not reused: %q != %q", second.Token, first.Token)
	}

	session := decodeToken(t, ts.do(t, "GET", "/api/v2/gis/oms/token?omsid=o1&connectionid=c1", ""))
	if session.Token == first.Token {
		t.Error("session request was served an authority token")
	}
}

func TestSignature(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name       string
		provider   string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "signs payload",
			provider:   "gis",
			body:       `{"payloadBase64":"cGF5bG9hZA=="}`,
			wantStatus: http.StatusOK,
			wantBody:   `"signature":"sig(cGF5bG9hZA==)"`,
		},
		{
			name:       "missing payload",
			provider:   "gis",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "payloadBase64 body parameter is required.",
		},
		{
			name:       "malformed json",
			provider:   "gis",
			body:       `{"payloadBase64":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Invalid request.",
		},
		{
			name:       "body too large",
			provider:   "gis",
			body:       `{"payloadBase64":"` + strings.Repeat("A", 512) + `"}`,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantBody:   `"errors"`,
		},
		{
			name:       "signer failure",
			provider:   "broken",
			body:       `{"payloadBase64":"cGF5bG9hZA=="}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "authority unavailable",
		},
		{
			name:       "unknown provider",
			provider:   "nowhere",
			body:       `{"payloadBase64":"cGF5bG9hZA=="}`,
			wantStatus: http.StatusNotFound,
			wantBody:   "Provider 'nowhere' is not configured.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, "POST", "/api/v2/"+tt.provider+"/signature", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body: %s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), tt.wantBody) {
				t.Errorf("body %q does not contain %q", rr.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestCommonEndpoints(t *testing.T) {
	ts := newTestServer(t)

	// populate the acquisition metrics
	ts.do(t, "GET", "/api/v2/gis/true/token", "")

	tests := []struct {
		path     string
		wantBody string
	}{
		{"/health", "OK"},
		{"/version", `"service":"oms-authenticator"`},
		{"/docs/doc.json", `"/api/v2/{provider}/oms/token"`},
		{"/metrics", "oms_authenticator_"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := ts.do(t, "GET", tt.path, "")
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), tt.wantBody) {
				t.Errorf("body does not contain %q", tt.wantBody)
			}
			if rr.Header().Get("Cache-Control") != "no-store" {
				t.Error("security headers not applied")
			}
		})
	}
}

func TestProviders(t *testing.T) {
	ts := newTestServer(t)

	got := ts.server.Providers()
	if len(got) != 2 || got[0] != "broken" || got[1] != "gis" {
		t.Errorf("Providers() = %v, want [broken gis]", got)
	}
}

func TestCleanupCaches(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, "GET", "/api/v2/gis/oms/token?omsid=o1&connectionid=c1", "")
	ts.do(t, "GET", "/api/v2/gis/true/token", "")
	cache := ts.server.brokers["gis"].Cache()
	if cache.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", cache.Count())
	}

	ts.server.cleanupCaches()
	if cache.Count() != 2 {
		t.Errorf("live tokens removed: Count() = %d", cache.Count())
	}

	ts.clock.Advance(2 * time.Hour)
	ts.server.cleanupCaches()
	if cache.Count() != 0 {
		t.Errorf("expired tokens kept: Count() = %d", cache.Count())
	}
}
