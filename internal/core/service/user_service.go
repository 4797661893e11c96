package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthrisk/risk-api/internal/core/domain"
	"github.com/healthrisk/risk-api/internal/core/ports"
)

// UserService manages local accounts.
type UserService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	events ports.EventPublisher
	log    zerolog.Logger
	now    func() time.Time
}

func NewUserService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	events ports.EventPublisher,
	log zerolog.Logger,
) *UserService {
	return &UserService{repo: repo, hasher: hasher, events: events, log: log, now: time.Now}
}

// Register validates and stores a new Client account. A concurrent
// registration of the same email surfaces as domain.ErrUserExists.
func (s *UserService) Register(ctx context.Context, in domain.Registration) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidUser)
	case utf8.RuneCountInString(name) > domain.MaxNameLength:
		return nil, fmt.Errorf("%w: name must be at most %d characters", domain.ErrInvalidUser, domain.MaxNameLength)
	case in.Email == "":
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidUser)
	}
	if err := domain.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:                        uuid.NewString(),
		Name:                      name,
		Email:                     in.Email,
		PasswordHash:              hash,
		Role:                      domain.RoleClient,
		IsExternallyAuthenticated: in.IsExternallyAuthenticated,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}

	if err := s.repo.Insert(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	publish(ctx, s.events, s.log, domain.EventUserRegistered, domain.UserEvent{
		UserID:     user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Role:       user.Role,
		Provider:   domain.ProviderLocal,
		OccurredAt: now,
	})
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

// ChangePassword replaces the password of user id. Only the account owner,
// identified by the session email, may change it.
func (s *UserService) ChangePassword(ctx context.Context, actor domain.Claims, id, newPassword string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if actor.Email == "" || actor.Email != user.Email {
		return domain.ErrForbidden
	}
	if err := domain.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("change password: hash: %w", err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, user); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password changed")
	publish(ctx, s.events, s.log, domain.EventUserPasswordChanged, domain.UserEvent{
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: user.UpdatedAt,
	})
	return nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info().Str("user_id", id).Msg("user deleted")
	publish(ctx, s.events, s.log, domain.EventUserDeleted, domain.UserEvent{
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: s.now().UTC(),
	})
	return nil
}
