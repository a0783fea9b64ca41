package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const createUsersSQL = `CREATE TABLE IF NOT EXISTS users (
	id BIGINT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	username TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureSchema creates the tables the service needs at startup.
func EnsureSchema(pool *pgxpool.Pool, logger *zap.Logger) error {
	ctx := context.Background()
	if _, err := pool.Exec(ctx, createUsersSQL); err != nil {
		return fmt.Errorf("ensure users table: %w", err)
	}
	logger.Info("database schema ready")
	return nil
}
