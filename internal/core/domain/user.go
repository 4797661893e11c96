package domain

import (
	"errors"
	"time"
)

// Role is the authorization level carried by a user and its sessions.
type Role string

const (
	RoleClient Role = "Client"
	RoleAdmin  Role = "Admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleAdmin
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidUser        = errors.New("invalid user")
)

// User models an account that can sign in locally or through an external
// identity provider.
type User struct {
	ID                        string    `json:"id"`
	Name                      string    `json:"name"`
	Email                     string    `json:"email"`
	PasswordHash              string    `json:"-"`
	Role                      Role      `json:"role"`
	IsExternallyAuthenticated bool      `json:"isGoogleAuthenticated"`
	CreatedAt                 time.Time `json:"createdAt"`
	UpdatedAt                 time.Time `json:"updatedAt"`
}

// Registration is the input for creating a local account.
type Registration struct {
	Name                      string
	Email                     string
	Password                  string
	IsExternallyAuthenticated bool
}

// MaxNameLength bounds the display name of a user.
const MaxNameLength = 100
