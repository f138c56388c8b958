package authority

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/information-sharing-networks/oms-authenticator/internal/clock"
	"github.com/information-sharing-networks/oms-authenticator/internal/config"
	"github.com/information-sharing-networks/oms-authenticator/internal/result"
	"github.com/information-sharing-networks/oms-authenticator/internal/token"
)

const dtabacTokenPath = "/gettoken"

// DTABACAdapter acquires session tokens from a dtabac-v0 gateway:
//
//	GET {url}/gettoken?{subjectId} -> {"token"}
//
// The gateway signs on our behalf, so there is no handshake. It issues neither
// authority tokens nor standalone signatures.
type DTABACAdapter struct {
	provider config.Provider
	client   *http.Client
	clock    clock.Clock
	logger   *slog.Logger
}

type dtabacTokenResponse struct {
	Token string `json:"token"`
}

// NewDTABACAdapter returns a dtabac-v0 adapter for provider.
func NewDTABACAdapter(provider config.Provider, deps Dependencies) *DTABACAdapter {
	return &DTABACAdapter{
		provider: provider,
		client:   deps.HTTPClient,
		clock:    deps.Clock,
		logger:   deps.Logger.With(slog.String("adapter", config.AdapterDTABACv0), slog.String("provider", provider.Name)),
	}
}

func (a *DTABACAdapter) Name() string { return config.AdapterDTABACv0 }

func (a *DTABACAdapter) Acquire(ctx context.Context, key token.Key) result.Result[token.Token] {
	session, ok := key.(token.SessionKey)
	if !ok {
		return result.Failure[token.Token](fmt.Sprintf("%s does not issue %s tokens", config.AdapterDTABACv0, key.Class()))
	}

	target := endpoint(a.provider.URL, dtabacTokenPath) + "?" + url.QueryEscape(session.SubjectID)
	r := getJSON[dtabacTokenResponse](ctx, a.client, target)
	return result.Bind(r, func(resp dtabacTokenResponse) result.Result[token.Token] {
		if resp.Token == "" {
			return result.Failure[token.Token](fmt.Sprintf("GET %s returned empty token", target))
		}
		a.logger.Debug("token received", slog.String("subject_id", session.SubjectID))
		return result.Success(token.Token{
			Value:     resp.Token,
			RequestID: key.RequestID(),
			ExpiresAt: a.clock.Now().Add(a.provider.Expiration),
		})
	})
}

func (a *DTABACAdapter) Sign(ctx context.Context, payloadBase64 string) result.Result[string] {
	return result.Failure[string](fmt.Sprintf("%s does not support signing", config.AdapterDTABACv0))
}
