//go:build integration

package integration

// Test environment setup and server lifecycle management.
//
// The server is configured through environment variables, exactly as in
// production. The providers file and the signer script are written to a
// temporary directory.
//
// By default the server logs are not included in the test output, you can enable them with:
//
//	ENABLE_SERVER_LOGS=true go test -tags=integration -v ./test/integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/information-sharing-networks/oms-authenticator/internal/authority"
	"github.com/information-sharing-networks/oms-authenticator/internal/clock"
	"github.com/information-sharing-networks/oms-authenticator/internal/config"
	"github.com/information-sharing-networks/oms-authenticator/internal/logger"
	"github.com/information-sharing-networks/oms-authenticator/internal/server"
)

// signerScript signs by echoing the certificate and the payload (or the payload file contents).
const signerScript = `#!/bin/sh
if [ -f "$2" ]; then
  printf 'SIG(%s,%s)\n' "$1" "$(cat "$2")"
else
  printf 'SIG(%s,%s)\n' "$1" "$2"
fi
`

// testEnv provides access to the server and the fake authority.
type testEnv struct {
	baseURL   string
	cfg       *config.ServerEnvironment
	authority *fakeAuthority
	shutdown  func()
}

// fakeAuthority implements the gis-v3 handshake and counts the tokens it issues.
type fakeAuthority struct {
	exchanges atomic.Int32

	// exchangeDelay keeps acquisitions in flight long enough to overlap
	exchangeDelay time.Duration

	mu       sync.Mutex
	failNext string
}

func (f *fakeAuthority) failNextExchange(body string) {
	f.mu.Lock()
	f.failNext = body
	f.mu.Unlock()
}

func (f *fakeAuthority) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/v3/auth/cert/key":
		fmt.Fprint(w, `{"uuid":"c-uuid","data":"challenge"}`)

	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/api/v3/auth/"):
		var req struct {
			UUID string `json:"uuid"`
			Data string `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Data != "SIG(CERT-1,challenge)" {
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}

		f.mu.Lock()
		fail := f.failNext
		f.failNext = ""
		f.mu.Unlock()
		if fail != "" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, fail)
			return
		}

		time.Sleep(f.exchangeDelay)
		n := f.exchanges.Add(1)
		fmt.Fprintf(w, `{"token":"gis-token-%d"}`, n)

	default:
		http.NotFound(w, r)
	}
}

// startInProcessServer starts oms-authenticator in-process and returns the test environment.
func startInProcessServer(t *testing.T) *testEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("the signer stand-in is a shell script")
	}

	env := &testEnv{authority: &fakeAuthority{exchangeDelay: 50 * time.Millisecond}}
	authoritySrv := httptest.NewServer(env.authority)
	t.Cleanup(authoritySrv.Close)

	dir := t.TempDir()
	signerPath := filepath.Join(dir, "signer.sh")
	if err := os.WriteFile(signerPath, []byte(signerScript), 0o700); err != nil {
		t.Fatalf("failed to write signer script: %v", err)
	}
	providersPath := filepath.Join(dir, "providers.jsonc")
	providers := fmt.Sprintf(`{
  // one working provider and one that is skipped at startup
  "providers": {
    "gis": {"adapter": "gis-v3", "url": %q, "certificate": "CERT-1", "expiration": "01:00:00"},
    "legacy": {"adapter": "gis-v1", "url": %q},
  },
}`, authoritySrv.URL, authoritySrv.URL)
	if err := os.WriteFile(providersPath, []byte(providers), 0o600); err != nil {
		t.Fatalf("failed to write providers file: %v", err)
	}

	port := findFreePort(t)
	logLevel := "none"
	if os.Getenv("ENABLE_SERVER_LOGS") == "true" {
		logLevel = "debug"
	}

	testEnvVars := map[string]string{
		"ENVIRONMENT":            "test",
		"HOST":                   "localhost",
		"PORT":                   fmt.Sprintf("%d", port),
		"LOG_LEVEL":              logLevel,
		"RATE_LIMIT_RPS":         "0",
		"PROVIDERS_FILE":         providersPath,
		"SIGNER_PATH":            signerPath,
		"SIGNER_INLINE_LIMIT":    "64",
		"CACHE_CLEANUP_INTERVAL": "1m",
	}
	for key, value := range testEnvVars {
		t.Setenv(key, value)
	}

	cfg, err := config.NewServerConfig()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	env.cfg = cfg

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)

	set, err := config.LoadProviders(cfg.ProvidersFile)
	if err != nil {
		t.Fatalf("Failed to load providers: %v", err)
	}
	if len(set.Problems) != 1 {
		t.Fatalf("expected the legacy provider to be skipped, got problems %v", set.Problems)
	}

	brokers, _, err := authority.NewBrokers(cfg, set.Providers, clock.System{}, appLogger)
	if err != nil {
		t.Fatalf("Failed to create brokers: %v", err)
	}

	serverInstance := server.NewServer(cfg, brokers, appLogger)
	serverCtx, serverCancel := context.WithCancel(context.Background())

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := serverInstance.Start(serverCtx); err != nil {
			serverDone <- err
		}
	}()

	env.shutdown = func() {
		serverCancel()
		select {
		case err := <-serverDone:
			if err != nil {
				t.Logf("Server shutdown with error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Log("Server shutdown timeout")
		}
	}
	t.Cleanup(env.shutdown)

	env.baseURL = fmt.Sprintf("http://localhost:%d", port)
	if !waitForServer(t, env.baseURL+"/health", 10*time.Second) {
		t.Fatal("Server failed to start within timeout")
	}
	return env
}

func findFreePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	defer listener.Close()

	addr := listener.Addr().(*net.TCPAddr)
	return addr.Port
}

func waitForServer(t *testing.T, url string, timeout time.Duration) bool {
	t.Helper()

	client := &http.Client{Timeout: 1 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}
