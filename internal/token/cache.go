package token

import (
	"context"
	"sort"
	"sync"

	"github.com/information-sharing-networks/oms-authenticator/internal/clock"
	"github.com/information-sharing-networks/oms-authenticator/internal/result"
)

// ErrTokenNotFound is the failure message returned when no live compatible token exists.
const ErrTokenNotFound = "Token does not exist"

// Factory produces the token for key. It is called at most once per cache entry.
type Factory func(ctx context.Context, key Key) result.Result[Token]

// entry is one acquisition, pending or completed.
// res is written once before done is closed and never changes afterwards.
type entry struct {
	seq  uint64
	done chan struct{}
	res  result.Result[Token]
}

func (e *entry) completed() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// stale reports whether a completed entry may be replaced: it failed, or its
// token expired at or before now. Pending entries are never stale.
func (e *entry) stale(c clock.Clock) bool {
	if !e.completed() {
		return false
	}
	tok, ok := e.res.Value()
	return !ok || tok.ExpiredAt(c.Now())
}

func (e *entry) wait(ctx context.Context) result.Result[Token] {
	select {
	case <-e.done:
		return e.res
	case <-ctx.Done():
		return result.Failure[Token]("stopped waiting for token: " + ctx.Err().Error())
	}
}

// Cache maps token keys to acquisitions and guarantees that at most one
// acquisition per key is in flight.
//
// The mutex only guards the map: it is held while deciding whether to install
// a new entry and never while an acquisition runs, so callers on different
// keys do not wait on each other.
type Cache struct {
	clock clock.Clock

	mu      sync.Mutex
	entries map[Key]*entry
	nextSeq uint64
}

// NewCache returns an empty cache using c for expiration checks.
func NewCache(c clock.Clock) *Cache {
	return &Cache{
		clock:   c,
		entries: make(map[Key]*entry),
	}
}

// GetOrCreate returns the token for key, starting factory if there is no entry
// for key or the existing entry is stale. Concurrent callers for the same key
// share one factory call and all observe its result.
//
// The factory runs on a context detached from ctx's cancellation: a caller
// that gives up only stops waiting, the acquisition continues for the others.
func (c *Cache) GetOrCreate(ctx context.Context, key Key, factory Factory) result.Result[Token] {
	e, created := c.install(key)
	if created {
		go c.run(context.WithoutCancel(ctx), e, key, factory)
	}
	return e.wait(ctx)
}

// install publishes a new pending entry for key when needed. The decision and
// the publication happen under one lock acquisition.
func (c *Cache) install(key Key) (*entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && !e.stale(c.clock) {
		return e, false
	}

	c.nextSeq++
	e := &entry{seq: c.nextSeq, done: make(chan struct{})}
	c.entries[key] = e
	return e, true
}

func (c *Cache) run(ctx context.Context, e *entry, key Key, factory Factory) {
	defer close(e.done)
	defer func() {
		if r := recover(); r != nil {
			e.res = result.Failure[Token]("token acquisition panicked")
		}
	}()
	e.res = factory(ctx, key)
}

// FindCompatible returns the first live token whose key satisfies match.
//
// Completed entries are preferred over pending ones; within each group the
// oldest entry wins, so the choice is stable while the cache is unchanged.
// A pending entry that ends in failure is skipped. When nothing matches, the
// result is a failure with ErrTokenNotFound.
func (c *Cache) FindCompatible(ctx context.Context, match func(Key) bool) result.Result[Token] {
	var completed, pending []*entry

	c.mu.Lock()
	for k, e := range c.entries {
		if !match(k) || e.stale(c.clock) {
			continue
		}
		if e.completed() {
			completed = append(completed, e)
		} else {
			pending = append(pending, e)
		}
	}
	c.mu.Unlock()

	bySeq := func(s []*entry) {
		sort.Slice(s, func(i, j int) bool { return s[i].seq < s[j].seq })
	}
	bySeq(completed)
	bySeq(pending)

	for _, e := range completed {
		if tok, ok := e.res.Value(); ok && !tok.ExpiredAt(c.clock.Now()) {
			return result.Success(tok)
		}
	}
	for _, e := range pending {
		r := e.wait(ctx)
		if ctx.Err() != nil {
			return r
		}
		if tok, ok := r.Value(); ok && !tok.ExpiredAt(c.clock.Now()) {
			return r
		}
	}
	return result.Failure[Token](ErrTokenNotFound)
}

// Cleanup removes every stale entry and returns how many were removed.
// Pending and live entries are kept.
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if e.stale(c.clock) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Count returns the number of stored entries, including stale ones not yet removed.
func (c *Cache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
