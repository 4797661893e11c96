package ports

import (
	"context"

	"github.com/healthrisk/risk-api/internal/core/domain"
)

// PasswordHasher hashes and verifies passwords with a salted adaptive hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// SessionIssuer creates and verifies signed session credentials.
type SessionIssuer interface {
	Issue(claims domain.Claims, policy domain.SessionPolicy) (*domain.Session, error)
	Verify(token string) (*domain.Session, error)
}

// IdentityProvider drives an external authorization-code login.
type IdentityProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*domain.ExternalIdentity, error)
}

// StateSigner creates and checks the anti-forgery state of an external
// login round trip.
type StateSigner interface {
	New() (string, error)
	Verify(state string) bool
}
