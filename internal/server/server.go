package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/information-sharing-networks/oms-authenticator/internal/config"
	"github.com/information-sharing-networks/oms-authenticator/internal/logger"
	"github.com/information-sharing-networks/oms-authenticator/internal/metrics"
	appmiddleware "github.com/information-sharing-networks/oms-authenticator/internal/server/middleware"
	"github.com/information-sharing-networks/oms-authenticator/internal/server/handlers"
	"github.com/information-sharing-networks/oms-authenticator/internal/token"
	"github.com/information-sharing-networks/oms-authenticator/internal/version"
)

type Server struct {
	config  *config.ServerEnvironment
	logger  *slog.Logger
	router  *chi.Mux
	brokers map[string]*token.Broker
}

// NewServer returns a server routing requests for each broker under its provider path segment.
func NewServer(
	cfg *config.ServerEnvironment,
	brokers []*token.Broker,
	logger *slog.Logger,
) *Server {
	server := &Server{
		config:  cfg,
		logger:  logger,
		router:  chi.NewRouter(),
		brokers: make(map[string]*token.Broker, len(brokers)),
	}
	for _, b := range brokers {
		server.brokers[b.Provider()] = b
	}

	server.setupMiddleware()
	server.registerRoutes()

	return server
}

// Router returns the HTTP handler of the server.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logger.RequestLogging(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.config.WriteTimeout))
	s.router.Use(appmiddleware.SecurityHeaders(s.config.Environment))
}

func (s *Server) registerRoutes() {
	s.router.Get("/health", handlers.HandleHealth)
	s.router.Get("/version", handlers.HandleVersion(version.Get()))
	s.router.Get("/docs/doc.json", handlers.HandleDocs)
	s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	s.router.Route("/api/v2/{provider}", func(r chi.Router) {
		r.Use(appmiddleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst))
		r.Use(appmiddleware.RequestSizeLimit(s.config.MaxRequestSize))

		r.Get("/oms/token", s.handleSessionToken)
		r.Get("/oms/token/cached", s.handleCachedSessionToken)
		r.Get("/true/token", s.handleAuthorityToken)
		r.Post("/signature", s.handleSignature)
	})
}

// Providers returns the configured provider path segments, sorted.
func (s *Server) Providers() []string {
	names := make([]string, 0, len(s.brokers))
	for name := range s.brokers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start serves HTTP and sweeps the token caches until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	serverAddr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	httpServer := &http.Server{
		Addr:         serverAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("service listening",
			slog.String("environment", s.config.Environment),
			slog.String("address", serverAddr),
			slog.Any("providers", s.Providers()))

		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
		defer shutdownCancel()

		s.logger.Info("shutting down HTTP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("HTTP server shutdown error",
				slog.String("error", err.Error()))
			return fmt.Errorf("HTTP server shutdown failed: %w", err)
		}

		s.logger.Info("HTTP server shutdown complete")
		return nil
	})

	g.Go(func() error {
		s.runCacheCleanup(gctx, s.config.CacheCleanupInterval)
		return nil
	})

	return g.Wait()
}

// runCacheCleanup removes stale entries from every cache each interval until ctx ends.
func (s *Server) runCacheCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupCaches()
		}
	}
}

func (s *Server) cleanupCaches() {
	for _, provider := range s.Providers() {
		cache := s.brokers[provider].Cache()
		removed := cache.Cleanup()
		remaining := cache.Count()
		metrics.RecordCleanup(provider, removed, remaining)

		if removed > 0 {
			s.logger.Debug("token cache cleaned up",
				slog.String("provider", provider),
				slog.Int("removed", removed),
				slog.Int("remaining", remaining))
		}
	}
}
