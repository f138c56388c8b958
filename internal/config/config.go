package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

// Environment variables with defaults
type ServerEnvironment struct {

	// http server settings
	Environment           string        `env:"ENVIRONMENT,default=dev"`
	Host                  string        `env:"HOST,default=0.0.0.0"`
	Port                  int           `env:"PORT,default=8080"`
	LogLevel              string        `env:"LOG_LEVEL,default=debug"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	ReadTimeout           time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=90s"`
	IdleTimeout           time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	RateLimitRPS          int32         `env:"RATE_LIMIT_RPS,default=100"`
	RateLimitBurst        int32         `env:"RATE_LIMIT_BURST,default=200"`
	MaxRequestSize        int64         `env:"MAX_REQUEST_SIZE,default=1048576"`

	// authority and signer settings
	AuthorityHTTPTimeout time.Duration `env:"AUTHORITY_HTTP_TIMEOUT,default=30s"`
	SignerTimeout        time.Duration `env:"SIGNER_TIMEOUT,default=30s"`
	SignerInlineLimit    int           `env:"SIGNER_INLINE_LIMIT,default=1000"`

	// token cache settings
	CacheCleanupInterval time.Duration `env:"CACHE_CLEANUP_INTERVAL,default=5m"`

	// Required configuration - must be set by environment variables
	ProvidersFile string `env:"PROVIDERS_FILE,required=true"`
	SignerPath    string `env:"SIGNER_PATH,required=true"`
}

// ClientEnvironment configures the oms-client CLI.
type ClientEnvironment struct {
	Environment   string        `env:"ENVIRONMENT,default=dev"`
	LogLevel      string        `env:"LOG_LEVEL,default=info"`
	ServerURL     string        `env:"OMS_AUTHENTICATOR_URL,default=http://localhost:8080"`
	ClientTimeout time.Duration `env:"CLIENT_TIMEOUT,default=60s"`
}

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"prod":    true,
	"staging": true,
}

// NewServerConfig loads environment variables and returns a ServerEnvironment struct that contains the values
func NewServerConfig() (*ServerEnvironment, error) {
	var cfg ServerEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil

}

// NewClientConfig loads the client environment variables.
func NewClientConfig() (*ClientEnvironment, error) {
	var cfg ClientEnvironment

	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}
	if !validEnvs[cfg.Environment] {
		return nil, fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}
	if cfg.ClientTimeout <= 0 {
		return nil, fmt.Errorf("CLIENT_TIMEOUT must be positive")
	}
	return &cfg, nil
}

// validateConfig checks the ranges of the env variables
func validateConfig(cfg *ServerEnvironment) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}

	if cfg.MaxRequestSize < 1 {
		return fmt.Errorf("MAX_REQUEST_SIZE must be at least 1")
	}
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when rate limiting is enabled")
	}

	if cfg.AuthorityHTTPTimeout <= 0 {
		return fmt.Errorf("AUTHORITY_HTTP_TIMEOUT must be positive")
	}
	if cfg.SignerTimeout < 0 {
		return fmt.Errorf("SIGNER_TIMEOUT must be 0 (no limit) or greater")
	}
	if cfg.SignerInlineLimit < 1 {
		return fmt.Errorf("SIGNER_INLINE_LIMIT must be at least 1, got %d", cfg.SignerInlineLimit)
	}

	if cfg.CacheCleanupInterval <= 0 {
		return fmt.Errorf("CACHE_CLEANUP_INTERVAL must be positive")
	}

	return nil
}
