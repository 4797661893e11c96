package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/healthrisk/risk-api/internal/core/domain"
)

var docTime = time.Date(2024, 1, 2, 3, 4, 5, 678_000_000, time.UTC)

func userDoc(id, email string, role domain.Role) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: "User " + id},
		{Key: "email", Value: email},
		{Key: "password_hash", Value: "$2a$12$hash"},
		{Key: "role", Value: string(role)},
		{Key: "is_google_authenticated", Value: true},
		{Key: "created_at", Value: docTime},
		{Key: "updated_at", Value: docTime},
	}
}

func TestUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find by email", func(mt *mtest.T) {
		repo := &UserRepository{col: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, userDoc("u1", "a@example.com", domain.RoleAdmin)))

		u, err := repo.FindByEmail(context.Background(), "a@example.com")
		if err != nil {
			t.Fatalf("FindByEmail: %v", err)
		}
		if u.ID != "u1" || u.Role != domain.RoleAdmin || !u.IsExternallyAuthenticated {
			t.Fatalf("unexpected user: %+v", u)
		}
		if !u.CreatedAt.Equal(docTime) || u.CreatedAt.Location() != time.UTC {
			t.Fatalf("unexpected created_at: %s", u.CreatedAt)
		}
	})

	mt.Run("find by id not found", func(mt *mtest.T) {
		repo := &UserRepository{col: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		if _, err := repo.FindByID(context.Background(), "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("list", func(mt *mtest.T) {
		repo := &UserRepository{col: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			userDoc("u1", "a@example.com", domain.RoleClient),
			userDoc("u2", "b@example.com", domain.RoleAdmin),
		))

		users, err := repo.List(context.Background())
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(users) != 2 || users[1].Email != "b@example.com" {
			t.Fatalf("unexpected users: %+v", users)
		}
	})

	mt.Run("insert", func(mt *mtest.T) {
		repo := &UserRepository{col: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.Insert(context.Background(), &domain.User{ID: "u1", Email: "a@example.com", Role: domain.RoleClient})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
	})

	mt.Run("insert duplicate email", func(mt *mtest.T) {
		repo := &UserRepository{col: mt.Coll}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: users index: uniq_email",
		}))

		err := repo.Insert(context.Background(), &domain.User{ID: "u2", Email: "a@example.com"})
		if !errors.Is(err, domain.ErrUserExists) {
			t.Fatalf("expected ErrUserExists, got %v", err)
		}
	})

	mt.Run("update missing", func(mt *mtest.T) {
		repo := &UserRepository{col: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		if err := repo.Update(context.Background(), &domain.User{ID: "ghost"}); !errors.Is(err, domain.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("update", func(mt *mtest.T) {
		repo := &UserRepository{col: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		if err := repo.Update(context.Background(), &domain.User{ID: "u1", Email: "a@example.com"}); err != nil {
			t.Fatalf("Update: %v", err)
		}
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := &UserRepository{col: mt.Coll}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		if err := repo.Delete(context.Background(), "u1"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if err := repo.Delete(context.Background(), "u1"); !errors.Is(err, domain.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		repo := &UserRepository{col: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		if err := repo.EnsureIndexes(context.Background()); err != nil {
			t.Fatalf("EnsureIndexes: %v", err)
		}
	})
}

func TestUserDocument_KeepsSubSecondTimestamps(t *testing.T) {
	created := time.Date(2024, 5, 6, 7, 8, 9, 123_000_000, time.UTC)
	updated := created.Add(250 * time.Millisecond)
	u := &domain.User{ID: "u1", Email: "a@example.com", Role: domain.RoleClient, CreatedAt: created, UpdatedAt: updated}

	raw, err := bson.Marshal(toDocument(u))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc userDocument
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := doc.toDomain()

	if !got.CreatedAt.Equal(created) || !got.UpdatedAt.Equal(updated) {
		t.Fatalf("timestamps changed: created %s updated %s", got.CreatedAt, got.UpdatedAt)
	}
	if !got.CreatedAt.Before(got.UpdatedAt) {
		t.Fatalf("sub-second ordering lost")
	}
}
