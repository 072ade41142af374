package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuskit/users-service/internal/domain/entity"
	"github.com/campuskit/users-service/internal/domain/repository"
)

// pgUniqueViolation is the SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, login_name, email_address, first_name, last_name, created_at, updated_at`

func scanUser(row pgx.Row) (entity.User, error) {
	var u entity.User
	err := row.Scan(&u.ID, &u.LoginName, &u.EmailAddress, &u.FirstName, &u.LastName,
		&u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UserRepository) GetAll(ctx context.Context) ([]entity.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (entity.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.User{}, repository.ErrUserNotFound
		}
		return entity.User{}, err
	}
	return u, nil
}

func (r *UserRepository) GetByLoginName(ctx context.Context, loginName string) (entity.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE login_name = $1
	`, loginName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.User{}, repository.ErrUserNotFound
		}
		return entity.User{}, err
	}
	return u, nil
}

// Upsert inserts when u.ID is zero and replaces the row otherwise.
// Timestamps are assigned here, not by database triggers: inserts set both
// created_at and updated_at to the same instant, updates refresh updated_at
// and keep created_at as stored. The unique index on login_name turns a
// cross-record collision into ErrDuplicateLoginName.
func (r *UserRepository) Upsert(ctx context.Context, u entity.User) (entity.User, error) {
	now := time.Now().UTC()

	var err error
	if u.IsNew() {
		u.CreatedAt = now
		u.UpdatedAt = now
		err = r.pool.QueryRow(ctx, `
			INSERT INTO users (login_name, email_address, first_name, last_name, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, u.LoginName, u.EmailAddress, u.FirstName, u.LastName, u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
	} else {
		u.UpdatedAt = now
		err = r.pool.QueryRow(ctx, `
			UPDATE users
			SET login_name = $1, email_address = $2, first_name = $3, last_name = $4, updated_at = $5
			WHERE id = $6
			RETURNING created_at
		`, u.LoginName, u.EmailAddress, u.FirstName, u.LastName, u.UpdatedAt, u.ID).Scan(&u.CreatedAt)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.User{}, repository.ErrUserNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return entity.User{}, repository.ErrDuplicateLoginName
		}
		return entity.User{}, err
	}
	return u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Clear(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `TRUNCATE users RESTART IDENTITY`)
	return err
}

var _ repository.UserRepository = (*UserRepository)(nil)
