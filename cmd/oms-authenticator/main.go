package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/oms-authenticator/internal/authority"
	"github.com/information-sharing-networks/oms-authenticator/internal/clock"
	"github.com/information-sharing-networks/oms-authenticator/internal/config"
	"github.com/information-sharing-networks/oms-authenticator/internal/logger"
	"github.com/information-sharing-networks/oms-authenticator/internal/server"
	"github.com/information-sharing-networks/oms-authenticator/internal/version"
)

//	@title			oms-authenticator
//	@description	oms-authenticator issues and caches access tokens for the national product-traceability authority
//	@description	and signs payloads with the provider certificates.
//	@description
//	@description	## Providers
//	@description	Each configured provider is served under its own path segment: `/api/v2/{provider}/...`.
//	@description	Unknown providers return `404`.
//	@description
//	@description	## Request ids
//	@description	Token endpoints accept an optional `requestid`. Repeating a request id returns the same token while it is valid.
//	@description	A new request id always acquires a new token. Without a request id any live token of the same scope is reused.
//	@description
//	@description	## Common Error Responses
//	@description	All endpoints may return:
//	@description	- `413` Request body exceeds size limit
//	@description	- `429` Rate limit exceeded
//	@description	- `500` Internal server error
//	@description
//	@description	Error bodies have the form `{"errors": ["..."]}`.
//	@license.name	MIT

//	@servers.url			http://localhost:8080
//	@servers.description	Development server

//	@accept		json
//	@produce	json

//	@tag.name			Tokens
//	@tag.description	Session and authority tokens

//	@tag.name			Signatures
//	@tag.description	Detached signatures with the provider certificate

//	@tag.name			Common
//	@tag.description	Server API endpoints (health, version, metrics, docs)

func main() {
	cmd := &cobra.Command{
		Use:   "oms-authenticator",
		Short: "Token broker for the product-traceability authority",
		Long:  `oms-authenticator acquires, caches and serves authority tokens for order management stations and signs payloads with the provider certificates`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	v := version.Get()
	cmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.NewServerConfig()
	if err != nil {
		log.Printf("failed to load configuration: %v", err.Error())
		os.Exit(1)
	}

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)

	appLogger.Info("Configuration loaded",
		slog.String("ENVIRONMENT", cfg.Environment),
		slog.String("HOST", cfg.Host),
		slog.Int("PORT", cfg.Port),
		slog.String("LOG_LEVEL", cfg.LogLevel),
		slog.String("PROVIDERS_FILE", cfg.ProvidersFile),
		slog.String("SIGNER_PATH", cfg.SignerPath),
		slog.Int("SIGNER_INLINE_LIMIT", cfg.SignerInlineLimit),
		slog.Duration("SIGNER_TIMEOUT", cfg.SignerTimeout),
		slog.Duration("AUTHORITY_HTTP_TIMEOUT", cfg.AuthorityHTTPTimeout),
		slog.Duration("CACHE_CLEANUP_INTERVAL", cfg.CacheCleanupInterval),
	)

	providers, err := config.LoadProviders(cfg.ProvidersFile)
	if err != nil {
		appLogger.Error("Failed to load providers", slog.String("error", err.Error()))
		os.Exit(1)
	}
	for _, problem := range providers.Problems {
		appLogger.Warn("Provider skipped", slog.String("error", problem.Error()))
	}

	brokers, problems, err := authority.NewBrokers(cfg, providers.Providers, clock.System{}, appLogger)
	for _, problem := range problems {
		appLogger.Warn("Provider skipped", slog.String("error", problem.Error()))
	}
	if err != nil {
		appLogger.Error("Failed to configure providers", slog.String("error", err.Error()))
		os.Exit(1)
	}

	appLogger.Info("Starting server", slog.String("version", version.Get().Version))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(cfg, brokers, appLogger)

	if err := srv.Start(ctx); err != nil {
		appLogger.Error("Server error", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("server shutdown complete")
	return nil
}
