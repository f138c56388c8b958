// Package authority implements token adapters for the traceability authority's
// authentication APIs.
//
// Two protocols are supported:
//   - gis-v3: a signed challenge/response handshake. The adapter fetches a
//     challenge, has the external signer sign it with the provider certificate
//     and exchanges the signature for a token.
//   - dtabac-v0: a single unauthenticated GET returning a session token.
//
// Every HTTP call goes through the same wrapper, so non-2xx statuses, empty or
// undecodable bodies and transport errors all surface as failures naming the
// method, URL, status and response content.
package authority

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/information-sharing-networks/oms-authenticator/internal/clock"
	"github.com/information-sharing-networks/oms-authenticator/internal/config"
	"github.com/information-sharing-networks/oms-authenticator/internal/signer"
	"github.com/information-sharing-networks/oms-authenticator/internal/token"
)

// Dependencies are the capabilities shared by all adapters.
type Dependencies struct {
	HTTPClient *http.Client
	Signer     signer.Signer
	Clock      clock.Clock
	Logger     *slog.Logger
}

// NewAdapter returns the adapter configured for provider.
func NewAdapter(provider config.Provider, deps Dependencies) (token.Adapter, error) {
	if deps.HTTPClient == nil || deps.Clock == nil || deps.Logger == nil {
		return nil, fmt.Errorf("provider %s: incomplete adapter dependencies", provider.Name)
	}

	switch provider.Adapter {
	case config.AdapterGISv3:
		if deps.Signer == nil {
			return nil, fmt.Errorf("provider %s: adapter %s requires a signer", provider.Name, provider.Adapter)
		}
		return NewGISAdapter(provider, deps), nil
	case config.AdapterDTABACv0:
		return NewDTABACAdapter(provider, deps), nil
	default:
		return nil, fmt.Errorf("provider %s: unsupported adapter %q", provider.Name, provider.Adapter)
	}
}
