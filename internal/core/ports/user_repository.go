package ports

import (
	"context"

	"github.com/healthrisk/risk-api/internal/core/domain"
)

// UserRepository defines the persistence contract for user accounts.
// Implementations enforce email uniqueness and return domain.ErrUserExists
// to the losing writer.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Insert(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
}
