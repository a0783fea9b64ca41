package service

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/andeslabs/bancora/internal/auth"
	"github.com/andeslabs/bancora/internal/domain"
	"github.com/andeslabs/bancora/internal/password"
	"github.com/andeslabs/bancora/internal/repository"
)

// SessionService orchestrates the token codec and revocation store to
// implement issuance, refresh and logout. Per subject, at most one refresh
// token is recorded as active; issuing a new one replaces the record
// outright.
type SessionService struct {
	users  repository.UserRepository
	store  repository.RevocationStore
	codec  *auth.Codec
	node   *snowflake.Node
	logger *zap.Logger
	tracer trace.Tracer
}

// NewSessionService wires dependencies.
func NewSessionService(users repository.UserRepository, store repository.RevocationStore, codec *auth.Codec, node *snowflake.Node, logger *zap.Logger) *SessionService {
	return &SessionService{
		users:  users,
		store:  store,
		codec:  codec,
		node:   node,
		logger: logger,
		tracer: otel.Tracer("github.com/andeslabs/bancora/internal/service"),
	}
}

// Register creates a new user with a hashed password.
func (s *SessionService) Register(ctx context.Context, email, plaintext, username string) (domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "SessionService.Register")
	defer span.End()

	normalized := strings.ToLower(strings.TrimSpace(email))
	if _, err := s.users.GetByEmail(ctx, normalized); err == nil {
		return domain.User{}, newAPIError(http.StatusBadRequest, "Email already registered")
	}

	hash, err := password.Hash(plaintext)
	if err != nil {
		span.RecordError(err)
		return domain.User{}, fmt.Errorf("register: %w", err)
	}

	user, err := s.users.Create(ctx, domain.User{
		ID:           s.node.Generate().Int64(),
		Email:        normalized,
		Username:     strings.TrimSpace(username),
		PasswordHash: hash,
	})
	if err != nil {
		span.RecordError(err)
		return domain.User{}, fmt.Errorf("register: %w", err)
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return user, nil
}

// Login verifies credentials, issues a token pair and records the refresh
// token as the subject's single active one. Any previously recorded refresh
// token is overwritten, though it stays cryptographically valid until it is
// blacklisted or expires.
func (s *SessionService) Login(ctx context.Context, email, plaintext string) (auth.Pair, error) {
	ctx, span := s.tracer.Start(ctx, "SessionService.Login")
	defer span.End()

	normalized := strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		span.RecordError(err)
		return auth.Pair{}, unauthorized("Incorrect email or password")
	}
	if !password.Verify(plaintext, user.PasswordHash) {
		return auth.Pair{}, unauthorized("Incorrect email or password")
	}

	pair, err := s.issue(ctx, strconv.FormatInt(user.ID, 10))
	if err != nil {
		span.RecordError(err)
		return auth.Pair{}, err
	}

	s.logger.Info("login succeeded", zap.Int64("user_id", user.ID))
	return pair, nil
}

// Refresh exchanges a valid, non-blacklisted refresh token for a new pair.
// The presented token is not compared against the recorded active one: any
// unexpired, non-blacklisted refresh token for the subject succeeds, even
// after it has been superseded.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (auth.Pair, error) {
	ctx, span := s.tracer.Start(ctx, "SessionService.Refresh")
	defer span.End()

	claims, err := s.codec.Verify(refreshToken, auth.KindRefresh)
	if err != nil {
		return auth.Pair{}, unauthorized("Invalid refresh token")
	}

	blacklisted, err := s.store.IsBlacklisted(ctx, refreshToken)
	if err != nil {
		span.RecordError(err)
		return auth.Pair{}, fmt.Errorf("refresh blacklist check: %w", err)
	}
	if blacklisted {
		return auth.Pair{}, unauthorized("Token has been revoked")
	}

	pair, err := s.issue(ctx, claims.Subject)
	if err != nil {
		span.RecordError(err)
		return auth.Pair{}, err
	}

	s.logger.Info("tokens refreshed", zap.String("subject", claims.Subject))
	return pair, nil
}

// Logout blacklists both presented tokens and clears the active-refresh
// record. It is best-effort and idempotent: a token that cannot be decoded
// is skipped, and the call always succeeds.
func (s *SessionService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	ctx, span := s.tracer.Start(ctx, "SessionService.Logout")
	defer span.End()

	for _, raw := range []string{accessToken, refreshToken} {
		if processed := s.revokeOne(ctx, raw); !processed {
			s.logger.Debug("logout skipped undecodable token")
		}
	}
	return nil
}

// CurrentUser resolves the authenticated subject to its user record.
func (s *SessionService) CurrentUser(ctx context.Context, subject string) (domain.User, error) {
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return domain.User{}, unauthorized("Invalid authentication credentials")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("load current user: %w", err)
	}
	return user, nil
}

func (s *SessionService) issue(ctx context.Context, subject string) (auth.Pair, error) {
	pair, err := s.codec.IssuePair(subject)
	if err != nil {
		return auth.Pair{}, fmt.Errorf("issue token pair: %w", err)
	}
	if err := s.store.PutActiveRefresh(ctx, subject, pair.RefreshToken, s.codec.RefreshTTL()); err != nil {
		return auth.Pair{}, fmt.Errorf("record active refresh: %w", err)
	}
	return pair, nil
}

func (s *SessionService) revokeOne(ctx context.Context, raw string) bool {
	if raw == "" {
		return false
	}
	claims, err := s.codec.Decode(raw)
	if err != nil {
		return false
	}
	if err := s.store.Blacklist(ctx, raw, claims.ExpiresAt); err != nil {
		s.logger.Warn("logout blacklist write failed", zap.Error(err), zap.String("subject", claims.Subject))
	}
	if claims.Kind == auth.KindRefresh {
		if err := s.store.ClearActiveRefresh(ctx, claims.Subject); err != nil {
			s.logger.Warn("logout clear refresh failed", zap.Error(err), zap.String("subject", claims.Subject))
		}
	}
	return true
}
