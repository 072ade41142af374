package application

import (
	"context"
	"sync"
	"time"

	"github.com/campuskit/users-service/internal/domain/entity"
	"github.com/campuskit/users-service/internal/domain/repository"
)

// FakeUserRepository is a test-only fake implementing repository.UserRepository.
// It stores users in a map, enforces login-name uniqueness the way the
// Postgres unique index does, and exposes error fields for behavior
// injection. UpsertCalls counts writes so tests can assert that a failed
// precondition never reached the store.
type FakeUserRepository struct {
	mu          sync.RWMutex
	users       map[int64]entity.User
	nextID      int64
	UpsertCalls int

	UpsertErr error
	GetErr    error
	DeleteErr error
}

func NewFakeUserRepository() *FakeUserRepository {
	return &FakeUserRepository{
		users:  make(map[int64]entity.User),
		nextID: 1,
	}
}

func (f *FakeUserRepository) GetAll(ctx context.Context) ([]entity.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	out := make([]entity.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *FakeUserRepository) GetByID(ctx context.Context, id int64) (entity.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.GetErr != nil {
		return entity.User{}, f.GetErr
	}
	u, ok := f.users[id]
	if !ok {
		return entity.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *FakeUserRepository) GetByLoginName(ctx context.Context, loginName string) (entity.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.GetErr != nil {
		return entity.User{}, f.GetErr
	}
	for _, u := range f.users {
		if u.LoginName == loginName {
			return u, nil
		}
	}
	return entity.User{}, repository.ErrUserNotFound
}

func (f *FakeUserRepository) Upsert(ctx context.Context, u entity.User) (entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UpsertCalls++
	if f.UpsertErr != nil {
		return entity.User{}, f.UpsertErr
	}

	// Cross-record collision only; a row replacing itself is fine.
	for id, existing := range f.users {
		if existing.LoginName == u.LoginName && id != u.ID {
			return entity.User{}, repository.ErrDuplicateLoginName
		}
	}

	now := time.Now().UTC()
	if u.IsNew() {
		u.ID = f.nextID
		f.nextID++
		u.CreatedAt = now
		u.UpdatedAt = now
	} else {
		existing, ok := f.users[u.ID]
		if !ok {
			return entity.User{}, repository.ErrUserNotFound
		}
		u.CreatedAt = existing.CreatedAt
		u.UpdatedAt = now
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *FakeUserRepository) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	if _, ok := f.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *FakeUserRepository) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = make(map[int64]entity.User)
	f.nextID = 1
	return nil
}

// Len reports the number of stored users.
func (f *FakeUserRepository) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.users)
}

var _ repository.UserRepository = (*FakeUserRepository)(nil)
