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
	"github.com/media-vault/video-archive-go/internal/downloader"
	"github.com/media-vault/video-archive-go/internal/resolver"
	"github.com/media-vault/video-archive-go/internal/storage"
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

	log := logger.Named("archiver")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, dbConfig(&cfg.Database))
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close(pool)

	log.Info("database connection established")

	store, err := newBlobStore(ctx, &cfg.Storage)
	if err != nil {
		log.Fatal("failed to initialize blob store", zap.Error(err))
	}

	archiver := worker.NewArchiver(
		repository.NewScheduledArchivalRepository(pool),
		repository.NewVideoRepository(pool),
		repository.NewFileRepository(pool),
		resolver.NewYtdlp(logger.Named("resolver")),
		downloader.NewYtdlp(logger.Named("downloader")),
		store,
		cfg.Archiver,
		log,
	)

	log.Info("archival workers starting",
		zap.Int("workers", cfg.Archiver.Workers),
		zap.Duration("lease", cfg.Archiver.LeaseTimeout))

	workers := worker.NewPool("archiver", cfg.Archiver.Workers, cfg.Archiver.IdleInterval, log)
	workers.Run(ctx, archiver.Archive)

	log.Info("archiver stopped")
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

func newBlobStore(ctx context.Context, cfg *config.StorageConfig) (storage.BlobStore, error) {
	switch cfg.Backend {
	case "gcs":
		return storage.NewGCS(ctx, cfg.Bucket, cfg.URLTTL)
	default:
		return storage.NewDisk(cfg.Location)
	}
}
