// Command agora-seed fills the configured database with demo data.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/mikepea/agora/pkg/agora/config"
	"github.com/mikepea/agora/pkg/agora/database"
	"github.com/mikepea/agora/pkg/agora/models"
	"github.com/mikepea/agora/pkg/agora/observability"
	"github.com/mikepea/agora/pkg/agora/seed"
	"github.com/mikepea/agora/pkg/agora/store"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	postsPerUser := flag.Int("posts", 5, "Number of posts per user")
	numGroups := flag.Int("groups", 4, "Number of social groups to create")
	password := flag.String("password", "password123", "Password shared by every seeded user")
	randSeed := flag.Int64("seed", 0, "Random seed, 0 for a random run")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
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

	ctx := context.Background()
	s := seed.New(store.New(database.GetDB(), logger), logger)

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			logger.Error("cleanup failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	report, err := s.Run(ctx, seed.Options{
		Users:        *numUsers,
		PostsPerUser: *postsPerUser,
		Groups:       *numGroups,
		Password:     *password,
		Seed:         *randSeed,
	})
	if err != nil {
		logger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if report.NewestPost != nil {
		logger.Info("newest post", slog.Any("post", report.NewestPost))
	}
	logger.Info("all seeded users share one password", slog.String("password", *password))
}
