package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/healthrisk/risk-api/internal/api/session"
	"github.com/healthrisk/risk-api/internal/core/domain"
)

func TestUserHandler_Register_Success(t *testing.T) {
	e := newEcho()
	stub := &stubUserService{
		registerFn: func(ctx context.Context, in domain.Registration) (*domain.User, error) {
			if in.Name != "Alice" || in.Email != "alice@example.com" || in.Password != "Secr3t!pw" || !in.IsExternallyAuthenticated {
				t.Fatalf("unexpected registration: %+v", in)
			}
			return &domain.User{ID: "u1", Name: in.Name, Email: in.Email, PasswordHash: "$2a$12$x", Role: domain.RoleClient, IsExternallyAuthenticated: true}, nil
		},
	}
	handler := NewUserHandler(stub)

	req := jsonRequest(http.MethodPost, "/api/user/register", `{"name":"Alice","email":"alice@example.com","password":"Secr3t!pw","isGoogleAuthenticated":true}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/api/user/u1" {
		t.Fatalf("unexpected Location %q", loc)
	}
	if strings.Contains(rec.Body.String(), "$2a$") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["id"] != "u1" || resp["role"] != "Client" || resp["isGoogleAuthenticated"] != true {
		t.Fatalf("unexpected user payload: %+v", resp)
	}
}

func TestUserHandler_Register_ValidationErrors(t *testing.T) {
	e := newEcho()
	stub := &stubUserService{
		registerFn: func(ctx context.Context, in domain.Registration) (*domain.User, error) {
			return nil, domain.ErrPasswordNoDigit
		},
	}
	handler := NewUserHandler(stub)

	cases := map[string]string{
		"not json":      "nope",
		"bad email":     `{"name":"Alice","email":"not-an-email","password":"Secr3t!pw"}`,
		"missing name":  `{"email":"alice@example.com","password":"Secr3t!pw"}`,
		"weak password": `{"name":"Alice","email":"alice@example.com","password":"Secret!pw"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(jsonRequest(http.MethodPost, "/api/user/register", body), rec)

			_ = handler.Register(c)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestUserHandler_Register_Duplicate(t *testing.T) {
	e := newEcho()
	stub := &stubUserService{
		registerFn: func(ctx context.Context, in domain.Registration) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	handler := NewUserHandler(stub)

	c := e.NewContext(jsonRequest(http.MethodPost, "/api/user/register", `{"name":"A","email":"a@example.com","password":"Secr3t!pw"}`), httptest.NewRecorder())
	if err := handler.Register(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestUserHandler_ListAndGet(t *testing.T) {
	e := newEcho()
	stub := &stubUserService{
		listFn: func(ctx context.Context) ([]*domain.User, error) {
			return []*domain.User{{ID: "u1"}, {ID: "u2"}}, nil
		},
		getFn: func(ctx context.Context, id string) (*domain.User, error) {
			if id == "u1" {
				return &domain.User{ID: "u1", Email: "alice@example.com"}, nil
			}
			return nil, domain.ErrUserNotFound
		},
	}
	handler := NewUserHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/user", nil), rec)
	if err := handler.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	var users []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil || len(users) != 2 {
		t.Fatalf("unexpected list payload: %s (%v)", rec.Body.String(), err)
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/api/user/u1", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("u1")
	if err := handler.Get(c); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/api/user/ghost", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("ghost")
	if err := handler.Get(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserHandler_ChangePassword(t *testing.T) {
	e := newEcho()
	var gotActor domain.Claims
	stub := &stubUserService{
		changePasswordFn: func(ctx context.Context, actor domain.Claims, id, newPassword string) error {
			gotActor = actor
			switch {
			case id != actor.UserID:
				return domain.ErrForbidden
			case newPassword == "weak":
				return domain.ErrPasswordTooShort
			}
			return nil
		},
	}
	handler := NewUserHandler(stub)

	run := func(body string) (*httptest.ResponseRecorder, error) {
		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPut, "/api/user/changepassword", body), rec)
		session.SetClaims(c, clientClaims)
		return rec, handler.ChangePassword(c)
	}

	rec, err := run(`{"id":"u1","newPassword":"N3w!passw"}`)
	if err != nil || rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d (%v)", rec.Code, err)
	}
	if gotActor.Email != "alice@example.com" {
		t.Fatalf("actor claims not forwarded: %+v", gotActor)
	}

	if _, err := run(`{"id":"u2","newPassword":"N3w!passw"}`); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	rec, _ = run(`{"id":"u1","newPassword":"weak"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for weak password, got %d", rec.Code)
	}

	rec, _ = run(`{"id":"u1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing password, got %d", rec.Code)
	}
}

func TestUserHandler_ChangePassword_RequiresSession(t *testing.T) {
	e := newEcho()
	handler := NewUserHandler(&stubUserService{})

	c := e.NewContext(jsonRequest(http.MethodPut, "/api/user/changepassword", `{"id":"u1","newPassword":"N3w!passw"}`), httptest.NewRecorder())
	if err := handler.ChangePassword(c); err == nil {
		t.Fatalf("expected error without session")
	}
}

func TestUserHandler_Delete(t *testing.T) {
	e := newEcho()
	stub := &stubUserService{
		deleteFn: func(ctx context.Context, id string) error {
			if id != "u1" {
				return domain.ErrUserNotFound
			}
			return nil
		},
	}
	handler := NewUserHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/api/user/u1", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("u1")
	if err := handler.Delete(c); err != nil || rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d (%v)", rec.Code, err)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodDelete, "/api/user/u2", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("u2")
	if err := handler.Delete(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
