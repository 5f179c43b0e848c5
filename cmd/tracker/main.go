package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/media-vault/video-archive-go/internal/config"
	"github.com/media-vault/video-archive-go/internal/db"
	"github.com/media-vault/video-archive-go/internal/db/repository"
	"github.com/media-vault/video-archive-go/internal/resolver"
	"github.com/media-vault/video-archive-go/internal/worker"
	"github.com/media-vault/video-archive-go/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.Named("tracker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, dbConfig(&cfg.Database))
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close(pool)

	log.Info("database connection established")

	tracker := worker.NewTracker(
		repository.NewTrackedCollectionRepository(pool),
		repository.NewScheduledArchivalRepository(pool),
		repository.NewVideoRepository(pool),
		resolver.NewYtdlp(logger.Named("resolver")),
		cfg.Tracker,
		log,
	)

	log.Info("tracker workers starting",
		zap.Int("workers", cfg.Tracker.Workers),
		zap.Duration("recheckInterval", cfg.Tracker.RecheckInterval))

	workers := worker.NewPool("tracker", cfg.Tracker.Workers, cfg.Tracker.IdleInterval, log)
	workers.Run(ctx, tracker.Check)

	log.Info("tracker stopped")
}

func dbConfig(cfg *config.DatabaseConfig) *db.Config {
	return &db.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Name,
		SSLMode:         cfg.SSLMode,
		MaxConns:        int32(cfg.MaxConnections),
		MinConns:        int32(cfg.MinConnections),
		MaxConnLifetime: cfg.MaxLifetime,
		MaxConnIdleTime: cfg.MaxIdleTime,
	}
}
