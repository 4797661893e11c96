package domain

import (
	"errors"
	"time"
)

const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

var (
	ErrMissingIdentityClaims = errors.New("external identity is missing required claims")
	ErrExternalAuthFailed    = errors.New("external authentication failed")
	ErrInvalidSession        = errors.New("invalid session")
)

// Claims is the identity carried by a session.
//
// Subject is the identity the session was established for: the local user id
// for password logins, the provider subject for external logins. UserID always
// holds the local user id and is what authorization decisions use.
type Claims struct {
	Subject  string `json:"sub"`
	UserID   string `json:"uid"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	Provider string `json:"provider"`
}

// SessionPolicy controls lifetime and renewal of an issued session.
type SessionPolicy struct {
	TTL        time.Duration
	Persistent bool
	Sliding    bool
}

// Session is a signed, time-bounded credential held by the client.
type Session struct {
	Token     string
	Claims    Claims
	Policy    SessionPolicy
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NeedsRenewal reports whether a sliding session has used up more than half
// of its window at now.
func (s *Session) NeedsRenewal(now time.Time) bool {
	if !s.Policy.Sliding || s.Policy.TTL <= 0 {
		return false
	}
	return now.Sub(s.IssuedAt) > s.Policy.TTL/2
}

// ExternalIdentity is the set of claims asserted by an external identity
// provider after a successful callback.
type ExternalIdentity struct {
	Subject string
	Email   string
	Name    string
}
