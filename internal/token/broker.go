package token

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/information-sharing-networks/oms-authenticator/internal/metrics"
	"github.com/information-sharing-networks/oms-authenticator/internal/result"
)

// Broker serves tokens for one configured provider.
//
// A request that carries a request id is bound to exactly that id: repeating
// it returns the same token while it is valid, and a different id always gets
// its own token. A request without a request id takes any live token of the
// same scope and only acquires a new one (under a generated id) when none exists.
type Broker struct {
	provider     string
	cache        *Cache
	adapter      Adapter
	logger       *slog.Logger
	newRequestID func() string
}

// NewBroker returns a broker for provider that stores tokens in cache and
// acquires them through adapter.
func NewBroker(provider string, cache *Cache, adapter Adapter, logger *slog.Logger) *Broker {
	return &Broker{
		provider:     provider,
		cache:        cache,
		adapter:      adapter,
		logger:       logger.With(slog.String("provider", provider), slog.String("adapter", adapter.Name())),
		newRequestID: uuid.NewString,
	}
}

// Provider returns the provider path segment this broker serves.
func (b *Broker) Provider() string { return b.provider }

// Cache returns the broker's token cache.
func (b *Broker) Cache() *Cache { return b.cache }

// SessionToken returns a session token for (subjectID, ownerID).
// requestID may be empty.
func (b *Broker) SessionToken(ctx context.Context, subjectID, ownerID, requestID string) result.Result[Token] {
	return b.get(ctx, SessionKey{SubjectID: subjectID, OwnerID: ownerID, Request: requestID})
}

// AuthorityToken returns an authority-wide token. requestID may be empty.
func (b *Broker) AuthorityToken(ctx context.Context, requestID string) result.Result[Token] {
	return b.get(ctx, AuthorityKey{Request: requestID})
}

// FindSessionToken returns a live cached session token for (subjectID, ownerID)
// without ever acquiring a new one.
func (b *Broker) FindSessionToken(ctx context.Context, subjectID, ownerID string) result.Result[Token] {
	scope := SessionKey{SubjectID: subjectID, OwnerID: ownerID}
	r := b.cache.FindCompatible(ctx, ScopeOf(scope))
	metrics.RecordLookup(b.provider, metrics.LookupCached, r.IsSuccess())
	return r
}

// Sign passes payloadBase64 to the adapter's signer. The cache is not involved.
func (b *Broker) Sign(ctx context.Context, payloadBase64 string) result.Result[string] {
	return b.adapter.Sign(ctx, payloadBase64)
}

func (b *Broker) get(ctx context.Context, key Key) result.Result[Token] {
	if key.RequestID() != "" {
		metrics.RecordLookup(b.provider, metrics.LookupKeyed, true)
		return b.cache.GetOrCreate(ctx, key, b.acquire)
	}

	found := b.cache.FindCompatible(ctx, ScopeOf(key))
	metrics.RecordLookup(b.provider, metrics.LookupCompatible, found.IsSuccess())
	if found.IsSuccess() || ctx.Err() != nil {
		return found
	}

	return b.cache.GetOrCreate(ctx, key.WithRequestID(b.newRequestID()), b.acquire)
}

// acquire is the cache factory. It runs once per cache entry.
func (b *Broker) acquire(ctx context.Context, key Key) result.Result[Token] {
	start := time.Now()
	b.logger.Debug("acquiring token", slog.String("key", key.String()))

	r := b.adapter.Acquire(ctx, key)

	elapsed := time.Since(start)
	metrics.RecordAcquisition(b.provider, string(key.Class()), r.IsSuccess(), elapsed)

	if tok, ok := r.Value(); ok {
		b.logger.Info("token acquired",
			slog.String("class", string(key.Class())),
			slog.String("request_id", tok.RequestID),
			slog.Time("expires_at", tok.ExpiresAt),
			slog.Duration("elapsed", elapsed))
		return r
	}

	b.logger.Warn("token acquisition failed",
		slog.String("key", key.String()),
		slog.Any("errors", r.Errors()),
		slog.Duration("elapsed", elapsed))
	return r
}
