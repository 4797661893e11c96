package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/healthrisk/risk-api/internal/core/domain"
	"github.com/healthrisk/risk-api/internal/infrastructure/db/memory"
)

type plainHasher struct{}

func (plainHasher) Hash(pw string) (string, error) { return "hashed:" + pw, nil }
func (plainHasher) Verify(pw, hash string) bool    { return hash == "hashed:"+pw }

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write seed file: %v", err)
	}
	return path
}

func TestFromFile_CreatesMissingUsers(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()
	if err := repo.Insert(ctx, &domain.User{ID: "existing", Email: "ops@example.com", Role: domain.RoleClient}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	path := writeFile(t, `
users:
  - name: Root
    email: root@example.com
    password: Adm1n!pass
    role: Admin
  - email: ops@example.com
    password: Sup3r$ecret
    role: Admin
  - email: nopass@example.com
  - name: Plain
    email: plain@example.com
    password: Pl4in#pass
`)

	n, err := NewSeeder(repo, plainHasher{}, zerolog.Nop()).FromFile(ctx, path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 users created, got %d", n)
	}

	root, err := repo.FindByEmail(ctx, "root@example.com")
	if err != nil {
		t.Fatalf("root not seeded: %v", err)
	}
	if root.Role != domain.RoleAdmin || root.PasswordHash != "hashed:Adm1n!pass" {
		t.Fatalf("unexpected root user: %+v", root)
	}
	plain, _ := repo.FindByEmail(ctx, "plain@example.com")
	if plain == nil || plain.Role != domain.RoleClient {
		t.Fatalf("expected plain user with Client role, got %+v", plain)
	}
	ops, _ := repo.FindByEmail(ctx, "ops@example.com")
	if ops.ID != "existing" || ops.Role != domain.RoleClient {
		t.Fatalf("existing user must be left untouched, got %+v", ops)
	}
	if _, err := repo.FindByEmail(ctx, "nopass@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("entry without password must be skipped, got %v", err)
	}

	again, err := NewSeeder(repo, plainHasher{}, zerolog.Nop()).FromFile(ctx, path)
	if err != nil || again != 0 {
		t.Fatalf("second run should be a no-op, got n=%d err=%v", again, err)
	}
}

func TestFromFile_RejectsUnknownRole(t *testing.T) {
	path := writeFile(t, "users:\n  - email: x@example.com\n    password: Str0ng!pass\n    role: Root\n")
	_, err := NewSeeder(memory.NewUserRepository(), plainHasher{}, zerolog.Nop()).FromFile(context.Background(), path)
	if !errors.Is(err, domain.ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser, got %v", err)
	}
}

func TestFromFile_RejectsWeakPassword(t *testing.T) {
	path := writeFile(t, "users:\n  - email: x@example.com\n    password: weak\n")
	_, err := NewSeeder(memory.NewUserRepository(), plainHasher{}, zerolog.Nop()).FromFile(context.Background(), path)
	if !errors.Is(err, domain.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestFromFile_MissingFile(t *testing.T) {
	_, err := NewSeeder(memory.NewUserRepository(), plainHasher{}, zerolog.Nop()).FromFile(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
