// Package session moves signed session tokens between the HTTP cookie jar
// and the echo request context.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/healthrisk/risk-api/internal/core/domain"
	"github.com/healthrisk/risk-api/internal/core/ports"
)

const DefaultCookieName = "risk_session"

const claimsKey = "session.claims"

type Options struct {
	CookieName string
	// Secure marks the cookie HTTPS-only. Disable only for local development.
	Secure bool
}

// Manager issues, reads and clears the session cookie.
type Manager struct {
	issuer ports.SessionIssuer
	name   string
	secure bool
	now    func() time.Time
}

func NewManager(issuer ports.SessionIssuer, opts Options) *Manager {
	name := opts.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	return &Manager{issuer: issuer, name: name, secure: opts.Secure, now: time.Now}
}

func (m *Manager) CookieName() string { return m.name }

// Set writes s as the session cookie. Only persistent sessions carry an
// expiry; the others end with the browser session.
func (m *Manager) Set(c echo.Context, s *domain.Session) {
	cookie := m.baseCookie(s.Token)
	if s.Policy.Persistent {
		cookie.Expires = s.ExpiresAt.UTC()
		cookie.MaxAge = int(s.ExpiresAt.Sub(m.now()).Seconds())
		if cookie.MaxAge < 1 {
			cookie.MaxAge = 1
		}
	}
	c.SetCookie(cookie)
}

// Clear expires the session cookie.
func (m *Manager) Clear(c echo.Context) {
	cookie := m.baseCookie("")
	cookie.Expires = time.Unix(0, 0).UTC()
	cookie.MaxAge = -1
	c.SetCookie(cookie)
}

// Load verifies the session cookie of the current request. It returns
// domain.ErrUnauthenticated when no cookie is present and
// domain.ErrInvalidSession when the token does not verify.
func (m *Manager) Load(c echo.Context) (*domain.Session, error) {
	cookie, err := c.Cookie(m.name)
	if err != nil || cookie.Value == "" {
		return nil, domain.ErrUnauthenticated
	}
	s, err := m.issuer.Verify(cookie.Value)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSession) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSession, err)
	}
	return s, nil
}

// Issue creates a session for claims and writes its cookie.
func (m *Manager) Issue(c echo.Context, claims domain.Claims, policy domain.SessionPolicy) (*domain.Session, error) {
	s, err := m.issuer.Issue(claims, policy)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	m.Set(c, s)
	return s, nil
}

// Renew re-issues s with a fresh window when it is sliding and past half of
// its lifetime. It reports whether a new cookie was written.
func (m *Manager) Renew(c echo.Context, s *domain.Session) (bool, error) {
	if !s.NeedsRenewal(m.now()) {
		return false, nil
	}
	if _, err := m.Issue(c, s.Claims, s.Policy); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) baseCookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     m.name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SetClaims stores verified claims on the request context.
func SetClaims(c echo.Context, claims domain.Claims) {
	c.Set(claimsKey, claims)
}

// ClaimsFrom returns the claims stored by SetClaims.
func ClaimsFrom(c echo.Context) (domain.Claims, bool) {
	claims, ok := c.Get(claimsKey).(domain.Claims)
	if !ok || claims.UserID == "" {
		return domain.Claims{}, false
	}
	return claims, true
}
