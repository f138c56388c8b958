package authority

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/information-sharing-networks/oms-authenticator/internal/clock"
	"github.com/information-sharing-networks/oms-authenticator/internal/config"
	"github.com/information-sharing-networks/oms-authenticator/internal/signer"
	"github.com/information-sharing-networks/oms-authenticator/internal/token"
)

// NewBrokers builds one broker per provider. All brokers share the HTTP client
// and the signer process configured in cfg, and every broker has its own cache.
//
// Providers whose adapter cannot be built are skipped and returned as problems.
// It is an error if no broker could be built.
func NewBrokers(
	cfg *config.ServerEnvironment,
	providers []config.Provider,
	clk clock.Clock,
	logger *slog.Logger,
) ([]*token.Broker, []error, error) {
	deps := Dependencies{
		HTTPClient: &http.Client{Timeout: cfg.AuthorityHTTPTimeout},
		Signer: signer.NewProcessSigner(cfg.SignerPath, logger,
			signer.WithInlineLimit(cfg.SignerInlineLimit),
			signer.WithTimeout(cfg.SignerTimeout)),
		Clock:  clk,
		Logger: logger,
	}

	var (
		brokers  []*token.Broker
		problems []error
	)
	for _, p := range providers {
		adapter, err := NewAdapter(p, deps)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		brokers = append(brokers, token.NewBroker(p.Name, token.NewCache(clk), adapter, logger))
	}

	if len(brokers) == 0 {
		return nil, problems, errors.New("no usable token providers configured")
	}
	return brokers, problems, nil
}
