//go:build integration

package integration

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/information-sharing-networks/oms-authenticator/internal/cli"
)

func newClient(env *testEnv) *cli.Client {
	return cli.NewClient(env.baseURL, 10*time.Second)
}

func TestSessionTokenLifecycle(t *testing.T) {
	env := startInProcessServer(t)
	client := newClient(env)
	ctx := context.Background()

	if _, err := client.CachedSessionToken(ctx, "gis", "o1", "c1"); statusOf(err) != http.StatusNotFound {
		t.Fatalf("cached lookup on empty cache: got %v, want 404", err)
	}

	first, err := client.SessionToken(ctx, "gis", "o1", "c1", "r1")
	if err != nil {
		t.Fatalf("SessionToken() error: %v", err)
	}
	if first.Token != "gis-token-1" || first.RequestID != "r1" {
		t.Errorf("unexpected token %+v", first)
	}
	if until := time.Until(first.Expires); until < 50*time.Minute || until > time.Hour {
		t.Errorf("expires in %v, want about one hour", until)
	}

	reused, err := client.SessionToken(ctx, "gis", "o1", "c1", "")
	if err != nil || reused.Token != first.Token {
		t.Errorf("request without id: got %+v (%v), want the cached token", reused, err)
	}

	cached, err := client.CachedSessionToken(ctx, "gis", "o1", "c1")
	if err != nil || cached.Token != first.Token {
		t.Errorf("cached lookup: got %+v (%v)", cached, err)
	}

	fresh, err := client.SessionToken(ctx, "gis", "o1", "c1", "r2")
	if err != nil || fresh.Token == first.Token {
		t.Errorf("new request id: got %+v (%v), want a new token", fresh, err)
	}

	if got := env.authority.exchanges.Load(); got != 2 {
		t.Errorf("authority issued %d tokens, want 2", got)
	}
}

func TestConcurrentRequestsShareOneAcquisition(t *testing.T) {
	env := startInProcessServer(t)
	client := newClient(env)

	const callers = 10
	tokens := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := client.SessionToken(context.Background(), "gis", "o1", "c1", "shared")
			errs[i] = err
			if resp != nil {
				tokens[i] = resp.Token
			}
		}()
	}
	wg.Wait()

	for i := range callers {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if tokens[i] != tokens[0] {
			t.Errorf("caller %d got %q, want %q", i, tokens[i], tokens[0])
		}
	}
	if got := env.authority.exchanges.Load(); got != 1 {
		t.Errorf("authority issued %d tokens, want 1", got)
	}
}

func TestAuthorityFailureIsNotCached(t *testing.T) {
	env := startInProcessServer(t)
	client := newClient(env)
	ctx := context.Background()

	env.authority.failNextExchange("boom")

	_, err := client.AuthorityToken(ctx, "gis", "r1")
	var svcErr *cli.ServiceError
	if !errors.As(err, &svcErr) || svcErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
	if len(svcErr.Errors) != 1 || !strings.Contains(svcErr.Errors[0], "Response content: 'boom'") {
		t.Errorf("unexpected errors %q", svcErr.Errors)
	}

	tok, err := client.AuthorityToken(ctx, "gis", "r1")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if tok.Token != "gis-token-1" {
		t.Errorf("retry got %q", tok.Token)
	}
}

func TestSignature(t *testing.T) {
	env := startInProcessServer(t)
	client := newClient(env)
	ctx := context.Background()

	tests := []struct {
		name    string
		payload string
	}{
		// passed on the command line
		{"inline payload", base64.StdEncoding.EncodeToString([]byte("short"))},
		// above SIGNER_INLINE_LIMIT, passed in a file
		{"file payload", base64.StdEncoding.EncodeToString([]byte(strings.Repeat("long payload ", 10)))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.Sign(ctx, "gis", tt.payload)
			if err != nil {
				t.Fatalf("Sign() error: %v", err)
			}
			if want := "SIG(CERT-1," + tt.payload + ")"; resp.Signature != want {
				t.Errorf("Signature = %q, want %q", resp.Signature, want)
			}
		})
	}

	if got := env.authority.exchanges.Load(); got != 0 {
		t.Errorf("signing contacted the authority %d times", got)
	}
}

func TestSkippedProviderIsNotServed(t *testing.T) {
	env := startInProcessServer(t)

	_, err := newClient(env).AuthorityToken(context.Background(), "legacy", "")
	var svcErr *cli.ServiceError
	if !errors.As(err, &svcErr) || svcErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
	if len(svcErr.Errors) != 1 || svcErr.Errors[0] != "Provider 'legacy' is not configured." {
		t.Errorf("unexpected errors %q", svcErr.Errors)
	}
}

func statusOf(err error) int {
	var svcErr *cli.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.StatusCode
	}
	return 0
}
