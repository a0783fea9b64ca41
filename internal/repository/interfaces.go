package repository

import (
	"context"
	"time"

	"github.com/andeslabs/bancora/internal/domain"
)

// UserRepository exposes persistence for registered users.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
}

// RevocationStore tracks the single active refresh token per subject and
// the blacklist of explicitly invalidated tokens.
//
// IsBlacklisted returns an error when the backend cannot be reached so the
// caller can tell an outage apart from "not blacklisted".
type RevocationStore interface {
	PutActiveRefresh(ctx context.Context, subject, token string, ttl time.Duration) error
	GetActiveRefresh(ctx context.Context, subject string) (string, error)
	ClearActiveRefresh(ctx context.Context, subject string) error
	Blacklist(ctx context.Context, rawToken string, expiresAt time.Time) error
	IsBlacklisted(ctx context.Context, rawToken string) (bool, error)
}

// ResponseCache stores serialized payloads for read endpoints.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
