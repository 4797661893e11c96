package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/healthrisk/risk-api/internal/core/domain"
)

const sessionIssuer = "risk-api"

// sessionClaims is the JWT payload of a session cookie.
type sessionClaims struct {
	UID        string      `json:"uid"`
	Email      string      `json:"email"`
	Name       string      `json:"name,omitempty"`
	Role       domain.Role `json:"role"`
	Provider   string      `json:"provider"`
	Persistent bool        `json:"pst,omitempty"`
	Sliding    bool        `json:"sld,omitempty"`
	TTL        int64       `json:"ttl"`
	jwt.RegisteredClaims
}

// JWTSessionIssuer implements ports.SessionIssuer with HS256 signed tokens.
type JWTSessionIssuer struct {
	secret []byte
	now    func() time.Time
}

func NewJWTSessionIssuer(secret string) *JWTSessionIssuer {
	return &JWTSessionIssuer{secret: []byte(secret), now: time.Now}
}

// Issue signs claims into a token that expires policy.TTL from now.
func (s *JWTSessionIssuer) Issue(claims domain.Claims, policy domain.SessionPolicy) (*domain.Session, error) {
	if policy.TTL <= 0 {
		return nil, errors.New("session ttl must be positive")
	}

	issuedAt := s.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(policy.TTL)

	c := sessionClaims{
		UID:        claims.UserID,
		Email:      claims.Email,
		Name:       claims.Name,
		Role:       claims.Role,
		Provider:   claims.Provider,
		Persistent: policy.Persistent,
		Sliding:    policy.Sliding,
		TTL:        int64(policy.TTL / time.Second),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   claims.Subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}

	return &domain.Session{
		Token:     token,
		Claims:    claims,
		Policy:    policy,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify parses token and returns the session it carries. Any signature,
// algorithm or expiry failure yields domain.ErrInvalidSession.
func (s *JWTSessionIssuer) Verify(token string) (*domain.Session, error) {
	var c sessionClaims
	tkn, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSession, err)
	}
	if c.UID == "" || c.Subject == "" || c.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing identity claims", domain.ErrInvalidSession)
	}

	return &domain.Session{
		Token: token,
		Claims: domain.Claims{
			Subject:  c.Subject,
			UserID:   c.UID,
			Email:    c.Email,
			Name:     c.Name,
			Role:     c.Role,
			Provider: c.Provider,
		},
		Policy: domain.SessionPolicy{
			TTL:        time.Duration(c.TTL) * time.Second,
			Persistent: c.Persistent,
			Sliding:    c.Sliding,
		},
		IssuedAt:  c.IssuedAt.Time.UTC(),
		ExpiresAt: c.ExpiresAt.Time.UTC(),
	}, nil
}
