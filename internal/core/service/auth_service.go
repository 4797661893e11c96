package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthrisk/risk-api/internal/core/domain"
	"github.com/healthrisk/risk-api/internal/core/ports"
)

const (
	// LocalSessionTTL is the sliding window of a password login session.
	LocalSessionTTL = 2 * time.Hour
	// ExternalSessionTTL is the absolute lifetime of an external login session.
	ExternalSessionTTL = time.Hour
	// DefaultExternalName is used when the provider asserts no display name.
	DefaultExternalName = "Google User"

	// externalPasswordPrefix starts with NUL, which Login rejects, so a
	// provisioned placeholder can never be presented as a local password.
	externalPasswordPrefix = "\x00external:"
)

// AuthService establishes sessions for local and external logins.
type AuthService struct {
	repo     ports.UserRepository
	hasher   ports.PasswordHasher
	sessions ports.SessionIssuer
	events   ports.EventPublisher
	log      zerolog.Logger
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	sessions ports.SessionIssuer,
	events ports.EventPublisher,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		repo:     repo,
		hasher:   hasher,
		sessions: sessions,
		events:   events,
		log:      log,
		now:      time.Now,
	}
}

// Login verifies email and password and issues a sliding 2 hour session.
// Unknown emails and wrong passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string, rememberMe bool) (*domain.Session, *domain.User, error) {
	if email == "" || password == "" || strings.ContainsRune(password, 0) {
		return nil, nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// keep response time independent of whether the email exists
			s.hasher.Verify(password, s.dummy())
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, nil, domain.ErrInvalidCredentials
	}

	sess, err := s.sessions.Issue(domain.Claims{
		Subject:  user.ID,
		UserID:   user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Role:     user.Role,
		Provider: domain.ProviderLocal,
	}, domain.SessionPolicy{TTL: LocalSessionTTL, Persistent: rememberMe, Sliding: true})
	if err != nil {
		return nil, nil, fmt.Errorf("login: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Bool("persistent", rememberMe).Msg("user logged in")
	return sess, user, nil
}

// ReconcileExternal maps an identity asserted by an external provider onto a
// local account, provisioning one on first sight of the email. The session
// keeps the provider subject while the role always comes from the local
// record.
func (s *AuthService) ReconcileExternal(ctx context.Context, identity domain.ExternalIdentity) (*domain.Session, *domain.User, error) {
	if identity.Subject == "" || identity.Email == "" {
		return nil, nil, domain.ErrMissingIdentityClaims
	}

	user, err := s.repo.FindByEmail(ctx, identity.Email)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrUserNotFound):
		user, err = s.provision(ctx, identity)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, fmt.Errorf("reconcile external identity: %w", err)
	}

	name := identity.Name
	if name == "" {
		name = user.Name
	}

	sess, err := s.sessions.Issue(domain.Claims{
		Subject:  identity.Subject,
		UserID:   user.ID,
		Email:    identity.Email,
		Name:     name,
		Role:     user.Role,
		Provider: domain.ProviderGoogle,
	}, domain.SessionPolicy{TTL: ExternalSessionTTL, Persistent: true})
	if err != nil {
		return nil, nil, fmt.Errorf("reconcile external identity: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("provider", domain.ProviderGoogle).Msg("external login")
	return sess, user, nil
}

func (s *AuthService) provision(ctx context.Context, identity domain.ExternalIdentity) (*domain.User, error) {
	placeholder, err := externalPlaceholder()
	if err != nil {
		return nil, fmt.Errorf("provision user: %w", err)
	}
	hash, err := s.hasher.Hash(placeholder)
	if err != nil {
		return nil, fmt.Errorf("provision user: hash placeholder: %w", err)
	}

	name := identity.Name
	if name == "" {
		name = DefaultExternalName
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:                        uuid.NewString(),
		Name:                      name,
		Email:                     identity.Email,
		PasswordHash:              hash,
		Role:                      domain.RoleClient,
		IsExternallyAuthenticated: true,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}

	if err := s.repo.Insert(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			// a concurrent callback provisioned the same email first
			winner, findErr := s.repo.FindByEmail(ctx, identity.Email)
			if findErr != nil {
				return nil, fmt.Errorf("provision user: %w", findErr)
			}
			return winner, nil
		}
		return nil, fmt.Errorf("provision user: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("provisioned user from external identity")
	publish(ctx, s.events, s.log, domain.EventUserProvisioned, domain.UserEvent{
		UserID:     user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Role:       user.Role,
		Provider:   domain.ProviderGoogle,
		OccurredAt: now,
	})
	return user, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("dummy-password-for-timing")
	})
	return s.dummyHash
}

func externalPlaceholder() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return externalPasswordPrefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// publish sends an event and logs failures; delivery never fails the caller.
func publish(ctx context.Context, events ports.EventPublisher, log zerolog.Logger, key string, event domain.UserEvent) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, key, event); err != nil {
		log.Warn().Err(err).Str("event", key).Str("user_id", event.UserID).Msg("failed to publish event")
	}
}
