package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/andeslabs/bancora/internal/config"
	"github.com/andeslabs/bancora/internal/http/handler"
	"github.com/andeslabs/bancora/internal/http/middleware"
	"github.com/andeslabs/bancora/internal/repository"
)

// NewRouter wires gin routes and middleware. The authentication gate runs
// before the handlers of every route outside the configured public paths.
func NewRouter(
	cfg config.Config,
	gate *middleware.Gate,
	rateLimiter *middleware.RateLimiter,
	responseCache repository.ResponseCache,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	bankHandler *handler.BankHandler,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(nil))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(gate.Handler())
	// Cached responses are keyed by path only, so user-scoped endpoints
	// must never be cached.
	r.Use(middleware.ResponseCache(responseCache, cfg.ResponseCacheTTL, []string{
		cfg.APIBasePath + "/auth",
		cfg.APIBasePath + "/users",
	}, nil))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName})
	})

	api := r.Group(cfg.APIBasePath)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
		}

		users := api.Group("/users")
		{
			users.GET("/me", userHandler.Me)
		}

		banks := api.Group("/banks")
		{
			banks.GET("/institutions", bankHandler.Institutions)
			banks.POST("/links", bankHandler.CreateLink)
			banks.GET("/:link/accounts", bankHandler.Accounts)
			banks.GET("/:link/accounts/:account/transactions", bankHandler.Transactions)
			banks.GET("/:link/accounts/:account/balance", bankHandler.Balance)
		}
	}

	return r
}
