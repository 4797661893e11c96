package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/healthrisk/risk-api/internal/api/session"
	"github.com/healthrisk/risk-api/internal/core/domain"
	"github.com/healthrisk/risk-api/internal/infrastructure/security"
)

type stubAuthService struct {
	loginFn     func(ctx context.Context, email, password string, rememberMe bool) (*domain.Session, *domain.User, error)
	reconcileFn func(ctx context.Context, identity domain.ExternalIdentity) (*domain.Session, *domain.User, error)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string, rememberMe bool) (*domain.Session, *domain.User, error) {
	return s.loginFn(ctx, email, password, rememberMe)
}

func (s *stubAuthService) ReconcileExternal(ctx context.Context, identity domain.ExternalIdentity) (*domain.Session, *domain.User, error) {
	return s.reconcileFn(ctx, identity)
}

type stubUserService struct {
	registerFn       func(ctx context.Context, in domain.Registration) (*domain.User, error)
	getFn            func(ctx context.Context, id string) (*domain.User, error)
	listFn           func(ctx context.Context) ([]*domain.User, error)
	changePasswordFn func(ctx context.Context, actor domain.Claims, id, newPassword string) error
	deleteFn         func(ctx context.Context, id string) error
}

func (s *stubUserService) Register(ctx context.Context, in domain.Registration) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubUserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.getFn(ctx, id)
}

func (s *stubUserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.listFn(ctx)
}

func (s *stubUserService) ChangePassword(ctx context.Context, actor domain.Claims, id, newPassword string) error {
	return s.changePasswordFn(ctx, actor, id, newPassword)
}

func (s *stubUserService) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func testSessions() *session.Manager {
	return session.NewManager(security.NewJWTSessionIssuer("test-secret"), session.Options{Secure: true})
}

func sampleSession(claims domain.Claims, persistent bool) *domain.Session {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.Session{
		Token:     "signed-token",
		Claims:    claims,
		Policy:    domain.SessionPolicy{TTL: 2 * time.Hour, Persistent: persistent, Sliding: true},
		IssuedAt:  now,
		ExpiresAt: now.Add(2 * time.Hour),
	}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

var clientClaims = domain.Claims{
	Subject:  "u1",
	UserID:   "u1",
	Email:    "alice@example.com",
	Name:     "Alice",
	Role:     domain.RoleClient,
	Provider: domain.ProviderLocal,
}
