package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikepea/agora/pkg/agora/config"
	"github.com/mikepea/agora/pkg/agora/database"
	"github.com/mikepea/agora/pkg/agora/models"
	"github.com/mikepea/agora/pkg/agora/observability"
	"github.com/mikepea/agora/pkg/agora/server"
)

// @title Agora API
// @version 1.0
// @description Users, posts, upvotes and social groups behind bearer-token auth.

// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT access token. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := database.Connect(database.FromConfig(cfg, logger)); err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	if err := models.AutoMigrate(database.GetDB()); err != nil {
		logger.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("database migrations completed", slog.String("driver", cfg.DBDriver))

	srv, err := server.New(cfg, database.GetDB(), logger)
	if err != nil {
		logger.Error("failed to build server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server exited")
}
