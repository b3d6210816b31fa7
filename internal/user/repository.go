package user

import (
	"context"
	"database/sql"
	"errors"
)

// Repository is the persistence contract for user lookup.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (User, error)
}

var ErrNotFound = errors.New("user not found")

// PostgresRepo reads users from the users table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	const q = `
SELECT id, tenant_id, email, password_hash, role, created_at
FROM users
WHERE email = $1
`
	var u User
	if err := r.db.QueryRowContext(ctx, q, email).Scan(
		&u.ID,
		&u.TenantID,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}
