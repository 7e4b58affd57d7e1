package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/arklim/account-auth/internal/core/port"
	"github.com/arklim/account-auth/internal/infra/config"
	"github.com/arklim/account-auth/internal/infra/database"
	kafkainfra "github.com/arklim/account-auth/internal/infra/kafka"
	"github.com/arklim/account-auth/internal/infra/logger"
	"github.com/arklim/account-auth/internal/infra/mail"
	redisinfra "github.com/arklim/account-auth/internal/infra/redis"
	"github.com/arklim/account-auth/internal/infra/security"
	postgresrepo "github.com/arklim/account-auth/internal/repository/postgres"
	redisrepo "github.com/arklim/account-auth/internal/repository/redis"
	"github.com/arklim/account-auth/internal/transport/http/middleware"
	"github.com/arklim/account-auth/internal/transport/http/routes"
	"github.com/arklim/account-auth/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &Application{cfg: cfg, logger: log}
	if err := a.init(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *Application) init(ctx context.Context) error {
	cfg, log := a.cfg, a.logger

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return fmt.Errorf("init postgres: %w", err)
	}
	a.pool = pool

	if cfg.Postgres.RunMigrations {
		if err := database.MigratePool(ctx, pool, log); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
	}

	repos := postgresrepo.NewRepositories(pool)

	var replayGuard port.TOTPReplayGuard
	if cfg.TOTP.ReplayProtection {
		redisClient, err := redisinfra.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return fmt.Errorf("init redis: %w", err)
		}
		a.redis = redisClient
		replayGuard = redisrepo.NewTOTPReplayGuard(redisClient.Client(), cfg.Redis.TOTPReplayPrefix)
	}

	hasher, err := security.NewArgon2Hasher(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})
	if err != nil {
		return fmt.Errorf("configure argon2: %w", err)
	}

	tokens, err := security.NewTokenService(security.TokenConfig{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		SessionTTL: cfg.JWT.ExpiresIn,
	})
	if err != nil {
		return fmt.Errorf("init token service: %w", err)
	}

	totpService, err := security.NewTOTPService(cfg.TOTP.Issuer)
	if err != nil {
		return fmt.Errorf("init totp service: %w", err)
	}

	mailer, err := mail.New(cfg.Mail, log)
	if err != nil {
		return fmt.Errorf("init mailer: %w", err)
	}

	authService, err := usecase.NewAuthService(usecase.AuthDependencies{
		Users:       repos.Users,
		Hasher:      hasher,
		Policy:      security.NewPasswordPolicy(cfg.Password.MinLength, cfg.Password.MinStrength),
		Tokens:      tokens,
		TOTP:        totpService,
		Mailer:      mailer,
		Events:      a.eventPublisher(),
		ReplayGuard: replayGuard,
		FrontendURL: cfg.App.FrontendURL,
		Logger:      log,
	})
	if err != nil {
		return fmt.Errorf("init auth service: %w", err)
	}

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		return fmt.Errorf("init http metrics: %w", err)
	}

	deps := routes.Dependencies{
		Config:   cfg,
		Logger:   log,
		Auth:     authService,
		Metrics:  metrics,
		Database: pool,
	}
	if a.redis != nil {
		deps.Cache = a.redis
	}
	a.engine = routes.Register(deps)

	return nil
}

// eventPublisher returns the Kafka publisher when brokers are configured and
// the logging stub otherwise, or when the producer cannot be created.
func (a *Application) eventPublisher() port.EventPublisher {
	if len(a.cfg.Kafka.Brokers) == 0 {
		a.logger.Info("kafka brokers not configured, using stub publisher")
		return kafkainfra.NewStubPublisher(a.logger)
	}

	producer, err := kafkainfra.NewProducer(a.cfg.Kafka, a.logger)
	if err != nil {
		a.logger.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
		return kafkainfra.NewStubPublisher(a.logger)
	}
	a.producer = producer
	return kafkainfra.NewEventPublisher(producer, a.cfg.App, a.logger)
}

func (a *Application) Run(ctx context.Context) error {
	defer a.close()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting auth API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		a.logger.Info("auth API stopped")
		return nil
	case err := <-serverErrCh:
		return err
	}
}

// close releases whatever init managed to open, in reverse order.
func (a *Application) close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("close kafka producer", zap.Error(err))
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	_ = a.logger.Sync()
}
