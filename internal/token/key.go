package token

import "fmt"

// Class identifies the kind of token a Key asks for.
type Class string

const (
	// ClassSession is a token scoped to a calling connection and an owner.
	ClassSession Class = "session"

	// ClassAuthority is an authority-wide token with no session scoping.
	ClassAuthority Class = "authority"
)

// Key identifies a cached token.
//
// Key is a closed union: the only implementations are SessionKey and
// AuthorityKey. Both are comparable structs, so a Key can be used directly as
// a map key, and keys of different variants never compare equal even when
// their field values match.
type Key interface {
	// Class returns the variant discriminator.
	Class() Class

	// RequestID returns the freshness discriminator, or "" when absent.
	RequestID() string

	// WithRequestID returns a copy of the key carrying requestID.
	WithRequestID(requestID string) Key

	// SameScope reports whether other is the same variant with the same
	// scoping fields, ignoring the request id.
	SameScope(other Key) bool

	fmt.Stringer

	isKey()
}

// SessionKey identifies a session token.
type SessionKey struct {
	// SubjectID is the calling application/connection identity.
	// The authority exchange endpoint is keyed by this value.
	SubjectID string

	// OwnerID is the end-entity the session belongs to (e.g. the OMS id).
	OwnerID string

	// Request is the optional freshness discriminator.
	Request string
}

func (k SessionKey) Class() Class      { return ClassSession }
func (k SessionKey) RequestID() string { return k.Request }

func (k SessionKey) WithRequestID(requestID string) Key {
	k.Request = requestID
	return k
}

func (k SessionKey) SameScope(other Key) bool {
	o, ok := other.(SessionKey)
	return ok && o.SubjectID == k.SubjectID && o.OwnerID == k.OwnerID
}

func (k SessionKey) String() string {
	return fmt.Sprintf("session(subject=%s, owner=%s, request=%s)", k.SubjectID, k.OwnerID, k.Request)
}

func (SessionKey) isKey() {}

// AuthorityKey identifies an authority-wide token. It has no scoping fields:
// every AuthorityKey is in the same scope as every other AuthorityKey.
type AuthorityKey struct {
	Request string
}

func (k AuthorityKey) Class() Class      { return ClassAuthority }
func (k AuthorityKey) RequestID() string { return k.Request }

func (k AuthorityKey) WithRequestID(requestID string) Key {
	k.Request = requestID
	return k
}

func (k AuthorityKey) SameScope(other Key) bool {
	_, ok := other.(AuthorityKey)
	return ok
}

func (k AuthorityKey) String() string {
	return fmt.Sprintf("authority(request=%s)", k.Request)
}

func (AuthorityKey) isKey() {}

// ScopeOf returns a predicate matching every key in the same scope as key,
// regardless of request id.
func ScopeOf(key Key) func(Key) bool {
	return key.SameScope
}
