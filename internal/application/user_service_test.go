package application

import (
	"context"
	"errors"
	"testing"

	"github.com/campuskit/users-service/internal/domain/entity"
	"github.com/campuskit/users-service/internal/domain/repository"
)

func newTestService() (*Service, *FakeUserRepository) {
	fake := NewFakeUserRepository()
	return NewService(fake, nil, nil, "", nil), fake
}

func sampleUser() entity.User {
	return entity.User{
		LoginName:    "alice",
		EmailAddress: "alice@example.com",
		FirstName:    "Alice",
		LastName:     "Archer",
	}
}

// Requirement: upsert with a zero id creates the user, assigns id and
// timestamps, and the result is retrievable by its new id.
func TestService_Upsert_Create(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Upsert(ctx, sampleUser())
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected an assigned id")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
	if !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Errorf("created_at %v and updated_at %v should match on insert", created.CreatedAt, created.UpdatedAt)
	}

	got, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != created {
		t.Errorf("GetByID = %+v, want %+v", got, created)
	}
}

// Requirement: upsert with a present id replaces the mutable fields,
// refreshes updated_at and preserves created_at.
func TestService_Upsert_Update(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Upsert(ctx, sampleUser())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	modified := created
	modified.FirstName = "Alicia"
	updated, err := svc.Upsert(ctx, modified)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != created.ID {
		t.Errorf("id changed on update: %d -> %d", created.ID, updated.ID)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("created_at changed on update: %v -> %v", created.CreatedAt, updated.CreatedAt)
	}
	if updated.UpdatedAt.Before(created.UpdatedAt) {
		t.Errorf("updated_at went backwards: %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	}
	if updated.FirstName != "Alicia" {
		t.Errorf("FirstName = %q, want %q", updated.FirstName, "Alicia")
	}
}

// Requirement: updating a user that does not exist fails with not-found
// before anything is written.
func TestService_Upsert_UpdateMissing(t *testing.T) {
	svc, fake := newTestService()

	u := sampleUser()
	u.ID = 42
	_, err := svc.Upsert(context.Background(), u)
	if !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
	if fake.UpsertCalls != 0 {
		t.Errorf("store upsert was called %d times, want 0", fake.UpsertCalls)
	}
	if fake.Len() != 0 {
		t.Errorf("store has %d users, want 0", fake.Len())
	}
}

// Requirement: a login name owned by a different user is a duplicate and
// leaves the store unchanged.
func TestService_Upsert_DuplicateLoginName(t *testing.T) {
	svc, fake := newTestService()
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, sampleUser()); err != nil {
		t.Fatalf("create: %v", err)
	}

	second := sampleUser()
	second.EmailAddress = "other@example.com"
	_, err := svc.Upsert(ctx, second)
	if !errors.Is(err, repository.ErrDuplicateLoginName) {
		t.Fatalf("err = %v, want ErrDuplicateLoginName", err)
	}
	if fake.Len() != 1 {
		t.Errorf("store has %d users, want 1", fake.Len())
	}
}

// Requirement: a user keeping its own login name on update is not a
// duplicate (no-op rename).
func TestService_Upsert_SelfRenameAllowed(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Upsert(ctx, sampleUser())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	created.LastName = "Updated"
	if _, err := svc.Upsert(ctx, created); err != nil {
		t.Fatalf("self rename rejected: %v", err)
	}
}

func TestService_GetByName(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Upsert(ctx, sampleUser())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.GetByName(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByName returned id %d, want %d", got.ID, created.ID)
	}

	if _, err := svc.GetByName(ctx, "nobody"); !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

// Requirement: the second delete of the same id fails with not-found
// instead of succeeding silently.
func TestService_Delete_Twice(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Upsert(ctx, sampleUser())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("second delete err = %v, want ErrUserNotFound", err)
	}
}

func TestService_Clear(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, name := range []string{"alice", "bob", "carol"} {
		u := sampleUser()
		u.LoginName = name
		u.EmailAddress = name + "@example.com"
		if _, err := svc.Upsert(ctx, u); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	all, err := svc.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("GetAll after Clear returned %d users, want 0", len(all))
	}
}

// Repository failures propagate unchanged; nothing is retried or wrapped.
func TestService_Upsert_StoreError(t *testing.T) {
	svc, fake := newTestService()
	boom := errors.New("connection reset")
	fake.UpsertErr = boom

	_, err := svc.Upsert(context.Background(), sampleUser())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
