package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/arklim/account-auth/internal/infra/app"
	"github.com/arklim/account-auth/internal/infra/config"
	"github.com/arklim/account-auth/internal/infra/logger"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// The environment is unknown until config loads, so log in JSON.
		bootLog, _ := zap.NewProduction()
		bootLog.Fatal("failed to load config", zap.Error(err))
	}

	log, err := logger.New(cfg.App.Env)
	if err != nil {
		zap.NewExample().Fatal("failed to init logger", zap.Error(err))
	}

	log.Info("configuration loaded",
		zap.String("env", cfg.App.Env),
		zap.String("frontend_url", cfg.App.FrontendURL),
		zap.String("mail_driver", cfg.Mail.Driver),
		zap.Bool("kafka_enabled", len(cfg.Kafka.Brokers) > 0),
		zap.Bool("totp_replay_protection", cfg.TOTP.ReplayProtection),
		zap.Bool("run_migrations", cfg.Postgres.RunMigrations),
		zap.Duration("session_ttl", cfg.JWT.ExpiresIn),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal("failed to init app", zap.Error(err))
	}

	if err := application.Run(ctx); err != nil {
		log.Error("application stopped", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}
