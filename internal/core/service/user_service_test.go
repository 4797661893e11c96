package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/healthrisk/risk-api/internal/core/domain"
	"github.com/healthrisk/risk-api/internal/infrastructure/db/memory"
)

func newTestUserService(repo *stubUserRepo, pub *recordingPublisher) *UserService {
	svc := NewUserService(repo, &fakeHasher{}, pub, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestUserService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	pub := &recordingPublisher{}
	svc := newTestUserService(repo, pub)

	user, err := svc.Register(context.Background(), domain.Registration{
		Name:     "  Alice  ",
		Email:    "alice@example.com",
		Password: "Str0ng!Pass",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.ID == "" || user.Name != "Alice" || user.Role != domain.RoleClient {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.PasswordHash != "hashed:Str0ng!Pass" {
		t.Fatalf("expected password to be hashed, got %q", user.PasswordHash)
	}
	if _, ok := repo.users[user.ID]; !ok {
		t.Fatalf("expected user to be stored")
	}
	if keys := pub.keys(); len(keys) != 1 || keys[0] != domain.EventUserRegistered {
		t.Fatalf("expected registered event, got %v", keys)
	}
}

func TestUserService_Register_Validation(t *testing.T) {
	svc := newTestUserService(newStubUserRepo(), &recordingPublisher{})
	long := make([]rune, domain.MaxNameLength+1)
	for i := range long {
		long[i] = 'a'
	}

	cases := []struct {
		name string
		in   domain.Registration
		want error
	}{
		{"missing name", domain.Registration{Email: "a@example.com", Password: "Str0ng!Pass"}, domain.ErrInvalidUser},
		{"long name", domain.Registration{Name: string(long), Email: "a@example.com", Password: "Str0ng!Pass"}, domain.ErrInvalidUser},
		{"missing email", domain.Registration{Name: "A", Password: "Str0ng!Pass"}, domain.ErrInvalidUser},
		{"weak password", domain.Registration{Name: "A", Email: "a@example.com", Password: "weak"}, domain.ErrPasswordTooShort},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestUserService_Register_Duplicate(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestUserService(repo, &recordingPublisher{})

	in := domain.Registration{Name: "Bob", Email: "bob@example.com", Password: "Str0ng!Pass"}
	if _, err := svc.Register(context.Background(), in); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(context.Background(), in); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestUserService_Register_StoreFailure(t *testing.T) {
	repo := newStubUserRepo()
	repo.insertErr = errStoreDown
	svc := newTestUserService(repo, &recordingPublisher{})

	_, err := svc.Register(context.Background(), domain.Registration{Name: "Bob", Email: "bob@example.com", Password: "Str0ng!Pass"})
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestUserService_Register_ConcurrentSameEmail(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := NewUserService(repo, &fakeHasher{}, nil, zerolog.Nop())

	const attempts = 8
	var (
		wg      sync.WaitGroup
		results = make(chan error, attempts)
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Register(context.Background(), domain.Registration{
				Name:     fmt.Sprintf("Racer %d", i),
				Email:    "same@example.com",
				Password: "Str0ng!Pass",
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var ok, dupes int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrUserExists):
			dupes++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || dupes != attempts-1 {
		t.Fatalf("expected exactly one success, got %d successes and %d duplicates", ok, dupes)
	}
}

func TestUserService_ChangePassword(t *testing.T) {
	repo := newStubUserRepo()
	pub := &recordingPublisher{}
	svc := newTestUserService(repo, pub)
	owner := seedUser(repo, "u1", "owner@example.com", "Old!Pass1", domain.RoleClient)

	t.Run("not found", func(t *testing.T) {
		err := svc.ChangePassword(context.Background(), domain.Claims{Email: "owner@example.com"}, "missing", "New!Pass1")
		if !errors.Is(err, domain.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("non owner", func(t *testing.T) {
		err := svc.ChangePassword(context.Background(), domain.Claims{Email: "other@example.com", Role: domain.RoleAdmin}, owner.ID, "New!Pass1")
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("weak password", func(t *testing.T) {
		err := svc.ChangePassword(context.Background(), domain.Claims{Email: owner.Email}, owner.ID, "nouppercase1!")
		if !errors.Is(err, domain.ErrPasswordNoUpper) {
			t.Fatalf("expected ErrPasswordNoUpper, got %v", err)
		}
	})

	t.Run("owner", func(t *testing.T) {
		if err := svc.ChangePassword(context.Background(), domain.Claims{Email: owner.Email}, owner.ID, "New!Pass1"); err != nil {
			t.Fatalf("ChangePassword: %v", err)
		}
		h := &fakeHasher{}
		stored := repo.users[owner.ID]
		if !h.Verify("New!Pass1", stored.PasswordHash) {
			t.Fatalf("expected new password to verify")
		}
		if h.Verify("Old!Pass1", stored.PasswordHash) {
			t.Fatalf("expected old password to be invalidated")
		}
		if keys := pub.keys(); len(keys) != 1 || keys[0] != domain.EventUserPasswordChanged {
			t.Fatalf("expected password_changed event, got %v", keys)
		}
	})
}

func TestUserService_GetListDelete(t *testing.T) {
	repo := newStubUserRepo()
	pub := &recordingPublisher{}
	svc := newTestUserService(repo, pub)
	seedUser(repo, "u1", "a@example.com", "x", domain.RoleClient)
	seedUser(repo, "u2", "b@example.com", "x", domain.RoleAdmin)

	if u, err := svc.Get(context.Background(), "u2"); err != nil || u.Email != "b@example.com" {
		t.Fatalf("Get: %+v %v", u, err)
	}
	if _, err := svc.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	users, err := svc.List(context.Background())
	if err != nil || len(users) != 2 {
		t.Fatalf("List: %d users, err %v", len(users), err)
	}

	if err := svc.Delete(context.Background(), "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(context.Background(), "u1"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on second delete, got %v", err)
	}
	if keys := pub.keys(); len(keys) != 1 || keys[0] != domain.EventUserDeleted {
		t.Fatalf("expected deleted event, got %v", keys)
	}
}
