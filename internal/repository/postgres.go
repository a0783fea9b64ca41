package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andeslabs/bancora/internal/domain"
)

var _ UserRepository = (*PostgresUserRepo)(nil)

// PostgresUserRepo implements UserRepository on a pgx pool.
type PostgresUserRepo struct {
	db *pgxpool.Pool
}

// NewPostgresUserRepo constructs the repository.
func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{db: pool}
}

const selectUserByEmailSQL = `SELECT id, email, username, password_hash, created_at
FROM users WHERE email = $1`

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	var user domain.User
	row := r.db.QueryRow(ctx, selectUserByEmailSQL, email)
	if err := row.Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.CreatedAt); err != nil {
		return domain.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

const selectUserByIDSQL = `SELECT id, email, username, password_hash, created_at
FROM users WHERE id = $1`

func (r *PostgresUserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	var user domain.User
	row := r.db.QueryRow(ctx, selectUserByIDSQL, id)
	if err := row.Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.CreatedAt); err != nil {
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

const insertUserSQL = `INSERT INTO users (id, email, username, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING id, email, username, password_hash, created_at`

func (r *PostgresUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	var created domain.User
	row := r.db.QueryRow(ctx, insertUserSQL, user.ID, user.Email, user.Username, user.PasswordHash)
	if err := row.Scan(&created.ID, &created.Email, &created.Username, &created.PasswordHash, &created.CreatedAt); err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}
