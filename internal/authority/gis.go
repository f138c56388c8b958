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
	"github.com/information-sharing-networks/oms-authenticator/internal/signer"
	"github.com/information-sharing-networks/oms-authenticator/internal/token"
)

const (
	gisChallengePath      = "/api/v3/auth/cert/key"
	gisSessionPathPrefix  = "/api/v3/auth/cert/"
	gisAuthorityTokenPath = "/api/v3/auth/simpleSignIn"
)

// GISAdapter acquires tokens with the gis-v3 signed handshake:
//
//	GET  {url}/api/v3/auth/cert/key              -> {"uuid", "data"}
//	sign(data) with the provider certificate
//	POST {url}/api/v3/auth/cert/{subjectId}      <- {"uuid", "data": signature}  (session)
//	POST {url}/api/v3/auth/simpleSignIn          <- {"uuid", "data": signature}  (authority)
type GISAdapter struct {
	provider config.Provider
	client   *http.Client
	signer   signer.Signer
	clock    clock.Clock
	logger   *slog.Logger
}

// authData is a challenge, before or after signing.
type authData struct {
	UUID string `json:"uuid"`
	Data string `json:"data"`
}

// challengeResponse keeps the fields optional so that missing ones can be reported.
type challengeResponse struct {
	UUID *string `json:"uuid"`
	Data *string `json:"data"`
}

type gisTokenResponse struct {
	Token            *string `json:"token"`
	ErrorCode        *string `json:"code"`
	ErrorMessage     string  `json:"error_message"`
	ErrorDescription string  `json:"description"`
}

// NewGISAdapter returns a gis-v3 adapter for provider.
func NewGISAdapter(provider config.Provider, deps Dependencies) *GISAdapter {
	return &GISAdapter{
		provider: provider,
		client:   deps.HTTPClient,
		signer:   deps.Signer,
		clock:    deps.Clock,
		logger:   deps.Logger.With(slog.String("adapter", config.AdapterGISv3), slog.String("provider", provider.Name)),
	}
}

func (a *GISAdapter) Name() string { return config.AdapterGISv3 }

// Acquire runs challenge, sign and exchange. The first failing step ends the handshake.
func (a *GISAdapter) Acquire(ctx context.Context, key token.Key) result.Result[token.Token] {
	var exchangePath string
	switch k := key.(type) {
	case token.SessionKey:
		exchangePath = gisSessionPathPrefix + url.PathEscape(k.SubjectID)
	case token.AuthorityKey:
		exchangePath = gisAuthorityTokenPath
	default:
		return result.Failure[token.Token](fmt.Sprintf("unsupported token key %T", key))
	}

	challenge := a.challenge(ctx)
	signed := result.Bind(challenge, func(c authData) result.Result[authData] {
		return a.signChallenge(ctx, c)
	})
	return result.Bind(signed, func(d authData) result.Result[token.Token] {
		return a.exchange(ctx, exchangePath, d, key)
	})
}

// Sign signs payloadBase64 with the provider certificate.
func (a *GISAdapter) Sign(ctx context.Context, payloadBase64 string) result.Result[string] {
	return a.signer.Sign(ctx, payloadBase64, a.provider.Certificate)
}

func (a *GISAdapter) challenge(ctx context.Context) result.Result[authData] {
	r := getJSON[challengeResponse](ctx, a.client, endpoint(a.provider.URL, gisChallengePath))
	return result.Bind(r, func(c challengeResponse) result.Result[authData] {
		if c.UUID == nil || c.Data == nil {
			return result.Failure[authData]("Response does not contain uuid or data")
		}
		a.logger.Debug("challenge received", slog.String("uuid", *c.UUID))
		return result.Success(authData{UUID: *c.UUID, Data: *c.Data})
	})
}

func (a *GISAdapter) signChallenge(ctx context.Context, c authData) result.Result[authData] {
	return result.Map(a.Sign(ctx, c.Data), func(signature string) authData {
		return authData{UUID: c.UUID, Data: signature}
	})
}

func (a *GISAdapter) exchange(ctx context.Context, path string, signed authData, key token.Key) result.Result[token.Token] {
	r := postJSON[gisTokenResponse](ctx, a.client, endpoint(a.provider.URL, path), signed)
	return result.Bind(r, func(resp gisTokenResponse) result.Result[token.Token] {
		if resp.Token == nil || resp.ErrorCode != nil {
			return result.Failure[token.Token](fmt.Sprintf(
				"GIS-MT returned status OK, but no token. Error Code: '%s', Error Message: '%s', Error Description: '%s'",
				deref(resp.ErrorCode), resp.ErrorMessage, resp.ErrorDescription))
		}
		return result.Success(token.Token{
			Value:     *resp.Token,
			RequestID: key.RequestID(),
			ExpiresAt: a.clock.Now().Add(a.provider.Expiration),
		})
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
