package ports

import (
	"context"

	"github.com/healthrisk/risk-api/internal/core/domain"
)

type AuthService interface {
	Login(ctx context.Context, email, password string, rememberMe bool) (*domain.Session, *domain.User, error)
	ReconcileExternal(ctx context.Context, identity domain.ExternalIdentity) (*domain.Session, *domain.User, error)
}

type UserService interface {
	Register(ctx context.Context, input domain.Registration) (*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	ChangePassword(ctx context.Context, actor domain.Claims, id, newPassword string) error
	Delete(ctx context.Context, id string) error
}
