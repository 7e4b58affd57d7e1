package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arklim/account-auth/internal/core/domain"
	"github.com/arklim/account-auth/internal/infra/config"
	"github.com/arklim/account-auth/internal/transport/http/handlers"
	"github.com/arklim/account-auth/internal/transport/http/middleware"
	"github.com/arklim/account-auth/internal/usecase"
)

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config   *config.AppConfig
	Logger   *zap.Logger
	Auth     *usecase.AuthService
	Metrics  *middleware.HTTPMetrics
	Database DatabaseChecker
	Cache    CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(deps.Metrics.Handler())
	if deps.Config.App.FrontendURL != "" {
		r.Use(middleware.CORS(deps.Config.App.FrontendURL))
	}

	healthOptions := make([]handlers.HealthOption, 0, 2)

	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}

	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if deps.Auth == nil {
		return r
	}

	cookie := handlers.SessionCookie{
		Name:   handlers.DefaultSessionCookieName,
		TTL:    deps.Config.JWT.CookieTTL(),
		Secure: deps.Config.App.IsProduction(),
	}
	requireAuth := middleware.Authenticate(deps.Auth, cookie.Name)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		handlers.NewAuthHandler(deps.Auth, cookie).RegisterRoutes(authGroup)
		handlers.NewTwoFactorHandler(deps.Auth, cookie).RegisterRoutes(authGroup.Group("/2fa"), requireAuth)

		userHandler := handlers.NewUserHandler(deps.Auth)
		api.GET("/users/me", requireAuth, userHandler.Me)

		adminGroup := api.Group("/admin", requireAuth, middleware.RequireRole(deps.Auth, domain.RoleAdmin))
		adminGroup.GET("/users/:id", userHandler.GetByID)
	}

	return r
}
