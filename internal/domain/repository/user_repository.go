package repository

import (
	"context"
	"errors"

	"github.com/campuskit/users-service/internal/domain/entity"
)

var (
	// ErrUserNotFound is returned when no user exists for the given id or
	// login name, including delete/update targets that are already gone.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateLoginName is returned when an upsert would give a user a
	// login name that a different user already owns. A record keeping its
	// own login name on update is not a duplicate.
	ErrDuplicateLoginName = errors.New("login name already in use")
)

// UserRepository defines the record store consumed by the user service.
//
// Upsert inserts when u.ID is zero (assigning id and both timestamps) and
// replaces the row otherwise (refreshing updated_at, preserving created_at).
// The uniqueness check on login name and the write are atomic with respect
// to concurrent writers; implementations surface a collision as
// ErrDuplicateLoginName without mutating anything.
type UserRepository interface {
	GetAll(ctx context.Context) ([]entity.User, error)
	GetByID(ctx context.Context, id int64) (entity.User, error)
	GetByLoginName(ctx context.Context, loginName string) (entity.User, error)
	Upsert(ctx context.Context, u entity.User) (entity.User, error)
	Delete(ctx context.Context, id int64) error
	Clear(ctx context.Context) error
}
