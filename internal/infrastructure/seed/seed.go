// Package seed bootstraps accounts from a YAML file at startup. It is the
// only path that creates Admin users.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/healthrisk/risk-api/internal/core/domain"
	"github.com/healthrisk/risk-api/internal/core/ports"
)

type usersFile struct {
	Users []struct {
		Name     string `yaml:"name"`
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		Role     string `yaml:"role"`
	} `yaml:"users"`
}

type Seeder struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	log    zerolog.Logger
	now    func() time.Time
}

func NewSeeder(repo ports.UserRepository, hasher ports.PasswordHasher, log zerolog.Logger) *Seeder {
	return &Seeder{repo: repo, hasher: hasher, log: log, now: time.Now}
}

// FromFile creates every listed user whose email is not yet stored. Entries
// without email or password are skipped; an invalid role or weak password
// aborts the run. Returns the number of users created.
func (s *Seeder) FromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("seed: read %s: %w", path, err)
	}
	var uf usersFile
	if err := yaml.Unmarshal(data, &uf); err != nil {
		return 0, fmt.Errorf("seed: parse %s: %w", path, err)
	}

	created := 0
	for _, u := range uf.Users {
		if u.Email == "" || u.Password == "" {
			continue
		}
		if _, err := s.repo.FindByEmail(ctx, u.Email); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return created, fmt.Errorf("seed: lookup %s: %w", u.Email, err)
		}

		role := domain.RoleClient
		if u.Role != "" {
			role = domain.Role(u.Role)
		}
		if !role.Valid() {
			return created, fmt.Errorf("seed: %s: %w: unknown role %q", u.Email, domain.ErrInvalidUser, u.Role)
		}
		if err := domain.ValidatePassword(u.Password); err != nil {
			return created, fmt.Errorf("seed: %s: %w", u.Email, err)
		}

		hash, err := s.hasher.Hash(u.Password)
		if err != nil {
			return created, fmt.Errorf("seed: hash %s: %w", u.Email, err)
		}
		name := strings.TrimSpace(u.Name)
		if name == "" {
			name = u.Email
		}
		now := s.now().UTC()
		user := &domain.User{
			ID:           uuid.NewString(),
			Name:         name,
			Email:        u.Email,
			PasswordHash: hash,
			Role:         role,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.repo.Insert(ctx, user); err != nil {
			if errors.Is(err, domain.ErrUserExists) {
				continue
			}
			return created, fmt.Errorf("seed: insert %s: %w", u.Email, err)
		}
		created++
		s.log.Info().Str("user_id", user.ID).Str("role", string(role)).Msg("seeded user")
	}
	return created, nil
}
