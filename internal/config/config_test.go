package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validServerEnvironment() ServerEnvironment {
	return ServerEnvironment{
		Environment:          "dev",
		Port:                 8080,
		MaxRequestSize:       1024,
		RateLimitRPS:         100,
		RateLimitBurst:       200,
		AuthorityHTTPTimeout: 30 * time.Second,
		SignerTimeout:        30 * time.Second,
		SignerInlineLimit:    1000,
		CacheCleanupInterval: 5 * time.Minute,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*ServerEnvironment)
		wantErr string
	}{
		{"valid", func(*ServerEnvironment) {}, ""},
		{"port too low", func(c *ServerEnvironment) { c.Port = 0 }, "PORT"},
		{"port too high", func(c *ServerEnvironment) { c.Port = 70000 }, "PORT"},
		{"unknown environment", func(c *ServerEnvironment) { c.Environment = "qa" }, "ENVIRONMENT"},
		{"zero request size", func(c *ServerEnvironment) { c.MaxRequestSize = 0 }, "MAX_REQUEST_SIZE"},
		{"burst required with rate limit", func(c *ServerEnvironment) { c.RateLimitBurst = 0 }, "RATE_LIMIT_BURST"},
		{"rate limit disabled ignores burst", func(c *ServerEnvironment) { c.RateLimitRPS = 0; c.RateLimitBurst = 0 }, ""},
		{"authority timeout", func(c *ServerEnvironment) { c.AuthorityHTTPTimeout = 0 }, "AUTHORITY_HTTP_TIMEOUT"},
		{"negative signer timeout", func(c *ServerEnvironment) { c.SignerTimeout = -time.Second }, "SIGNER_TIMEOUT"},
		{"zero signer timeout disables the limit", func(c *ServerEnvironment) { c.SignerTimeout = 0 }, ""},
		{"inline limit", func(c *ServerEnvironment) { c.SignerInlineLimit = 0 }, "SIGNER_INLINE_LIMIT"},
		{"cleanup interval", func(c *ServerEnvironment) { c.CacheCleanupInterval = 0 }, "CACHE_CLEANUP_INTERVAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validServerEnvironment()
			tt.modify(&cfg)

			err := validateConfig(&cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %v, want one mentioning %s", err, tt.wantErr)
			}
		})
	}
}

func TestNewServerConfig(t *testing.T) {
	dir := t.TempDir()
	providersFile := filepath.Join(dir, "providers.yaml")
	if err := os.WriteFile(providersFile, []byte("providers: {}"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("required variables missing", func(t *testing.T) {
		t.Setenv("PROVIDERS_FILE", "")
		t.Setenv("SIGNER_PATH", "")
		os.Unsetenv("PROVIDERS_FILE")
		os.Unsetenv("SIGNER_PATH")

		if _, err := NewServerConfig(); err == nil {
			t.Fatal("expected error when required variables are missing")
		}
	})

	t.Run("defaults applied", func(t *testing.T) {
		t.Setenv("PROVIDERS_FILE", providersFile)
		t.Setenv("SIGNER_PATH", "/usr/local/bin/signdata")
		t.Setenv("PORT", "9090")
		t.Setenv("CACHE_CLEANUP_INTERVAL", "30s")

		cfg, err := NewServerConfig()
		if err != nil {
			t.Fatalf("NewServerConfig() error: %v", err)
		}
		if cfg.Port != 9090 {
			t.Errorf("Port = %d, want 9090", cfg.Port)
		}
		if cfg.CacheCleanupInterval != 30*time.Second {
			t.Errorf("CacheCleanupInterval = %v, want 30s", cfg.CacheCleanupInterval)
		}
		if cfg.SignerInlineLimit != 1000 {
			t.Errorf("SignerInlineLimit = %d, want 1000", cfg.SignerInlineLimit)
		}
		if cfg.ProvidersFile != providersFile {
			t.Errorf("ProvidersFile = %q", cfg.ProvidersFile)
		}
	})
}

func TestNewClientConfig(t *testing.T) {
	t.Setenv("OMS_AUTHENTICATOR_URL", "http://authenticator:8080")
	t.Setenv("CLIENT_TIMEOUT", "5s")

	cfg, err := NewClientConfig()
	if err != nil {
		t.Fatalf("NewClientConfig() error: %v", err)
	}
	if cfg.ServerURL != "http://authenticator:8080" || cfg.ClientTimeout != 5*time.Second {
		t.Errorf("unexpected config: %+v", cfg)
	}
}
