package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/andeslabs/bancora/internal/adapter/bank"
	cacheadapter "github.com/andeslabs/bancora/internal/adapter/cache"
	"github.com/andeslabs/bancora/internal/auth"
	"github.com/andeslabs/bancora/internal/bootstrap"
	"github.com/andeslabs/bancora/internal/config"
	httptransport "github.com/andeslabs/bancora/internal/http"
	"github.com/andeslabs/bancora/internal/http/handler"
	"github.com/andeslabs/bancora/internal/http/middleware"
	"github.com/andeslabs/bancora/internal/repository"
	"github.com/andeslabs/bancora/internal/server"
	"github.com/andeslabs/bancora/internal/service"
	"github.com/andeslabs/bancora/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newPGXPool,
			newUserRepository,
			newRedisClient,
			newRevocationStore,
			newResponseCache,
			newTokenCodec,
			newBankClient,
			newSessionService,
			newBankService,
			newGate,
			newRateLimiter,
			handler.NewAuthHandler,
			handler.NewUserHandler,
			handler.NewBankHandler,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, bootstrap.EnsureSchema, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake() (*snowflake.Node, error) {
	node, err := snowflake.NewNode(1)
	return node, err
}

func newPGXPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return repository.NewPostgresUserRepo(pool)
}

func newRedisClient(lc fx.Lifecycle, cfg config.Config) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newRevocationStore(client redis.UniversalClient, cfg config.Config) repository.RevocationStore {
	return cacheadapter.NewRedisRevocationStore(client, cfg.RefreshTokenKeyPrefix, cfg.BlacklistKeyPrefix, cfg.BlacklistMinRetention)
}

func newResponseCache(client redis.UniversalClient, cfg config.Config) repository.ResponseCache {
	return cacheadapter.NewRedisResponseCache(client, cfg.CacheKeyPrefix)
}

func newTokenCodec(cfg config.Config) *auth.Codec {
	return auth.NewCodec(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
}

func newBankClient(cfg config.Config) bank.Client {
	return bank.NewHTTPClient(nil, cfg.ProviderBaseURL, cfg.ProviderSecretID, cfg.ProviderSecret)
}

func newSessionService(users repository.UserRepository, store repository.RevocationStore, codec *auth.Codec, node *snowflake.Node, logger *zap.Logger) *service.SessionService {
	return service.NewSessionService(users, store, codec, node, logger)
}

func newBankService(provider bank.Client, cache repository.ResponseCache, cfg config.Config, logger *zap.Logger) *service.BankService {
	defaults := bank.LinkDefaults{
		BankUsername:       cfg.BankDefaultUsername,
		BankPassword:       cfg.BankDefaultPassword,
		EmploymentDocument: cfg.EmploymentDefaultDocument,
		EmploymentEmail:    cfg.EmploymentDefaultEmail,
		EmploymentPassword: cfg.EmploymentDefaultPassword,
		FiscalRFC:          cfg.FiscalDefaultRFC,
		FiscalPassword:     cfg.FiscalDefaultPassword,
	}
	return service.NewBankService(provider, cache, cfg.ProviderCacheTTL, defaults, logger)
}

func newGate(codec *auth.Codec, store repository.RevocationStore, cfg config.Config, logger *zap.Logger) *middleware.Gate {
	return middleware.NewGate(codec, store, cfg.PublicPaths, logger)
}

func newRateLimiter(cfg config.Config) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.RateLimitRPM)
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
