// Package token implements the token identity model, the single-flight token
// cache and the broker that decides whether a request reuses a cached token or
// triggers a new acquisition from the authority.
//
// Control flow for a request:
//
//	Broker.SessionToken / Broker.AuthorityToken
//	  -> Cache.FindCompatible (only when no request id was supplied)
//	  -> Cache.GetOrCreate(key, Adapter.Acquire) on a miss
//
// All fallible operations return result.Result values. Failures are never
// memoized: the next request for the same key starts a new acquisition.
package token

import (
	"context"
	"time"

	"github.com/information-sharing-networks/oms-authenticator/internal/result"
)

// Token is a credential issued by the authority. Tokens are immutable.
type Token struct {
	// Value is the opaque credential string.
	Value string

	// RequestID is the discriminator the token was acquired for. It is always
	// set, even when the caller did not supply one.
	RequestID string

	// ExpiresAt is the instant from which the token is no longer served.
	ExpiresAt time.Time
}

// ExpiredAt reports whether the token is expired at now (expiry at or before now).
func (t Token) ExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Adapter acquires tokens from one external authority.
type Adapter interface {
	// Name is the adapter identifier used in configuration (e.g. "gis-v3").
	Name() string

	// Acquire performs the authority handshake for key.
	// The returned token carries key.RequestID().
	Acquire(ctx context.Context, key Key) result.Result[Token]

	// Sign signs an arbitrary base64 payload with the provider certificate.
	// It does not touch the token cache.
	Sign(ctx context.Context, payloadBase64 string) result.Result[string]
}
