package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/media-vault/video-archive-go/internal/config"
	"github.com/media-vault/video-archive-go/internal/db"
	"github.com/media-vault/video-archive-go/internal/db/repository"
	"github.com/media-vault/video-archive-go/internal/handler"
	"github.com/media-vault/video-archive-go/internal/notify"
	"github.com/media-vault/video-archive-go/internal/service"
	"github.com/media-vault/video-archive-go/internal/storage"
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

	log := logger.Named("api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbCfg := dbConfig(&cfg.Database)
	pool, err := db.NewPool(ctx, dbCfg)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close(pool)

	log.Info("database connection established")

	store, err := newBlobStore(ctx, &cfg.Storage)
	if err != nil {
		log.Fatal("failed to initialize blob store", zap.Error(err))
	}

	archivals := repository.NewScheduledArchivalRepository(pool)
	collections := repository.NewTrackedCollectionRepository(pool)
	videos := repository.NewVideoRepository(pool)
	files := repository.NewFileRepository(pool)

	submissions := service.NewSubmissionService(archivals, collections, videos, logger.Named("submissions"))

	hub := notify.NewHub(cfg.Notify.SubscriberBuffer, logger.Named("hub"))
	listener := notify.NewListener(
		dbCfg.ConnString(),
		cfg.Notify.PollInterval,
		cfg.Notify.ReconnectBackoff,
		hub,
		logger.Named("listener"),
	)
	go func() {
		if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("change listener stopped", zap.Error(err))
		}
	}()

	if cfg.EventBus.Enabled {
		publisher, err := notify.NewEventPublisher(&cfg.EventBus, logger.Named("eventbus"))
		if err != nil {
			log.Fatal("failed to connect event bus", zap.Error(err))
		}
		defer publisher.Close()
		go publisher.Run(ctx, hub)
	}

	engine := handler.NewRouter(handler.Routes{
		Submissions: handler.NewSubmissionHandler(submissions, archivals, collections),
		Videos:      handler.NewVideoHandler(videos),
		Files:       handler.NewFileHandler(files, store, int(cfg.Storage.CacheMaxAge.Seconds())),
		WS:          handler.NewWSHandler(hub),
		Health:      handler.NewHealthHandler(pool),
	}, logger.Named("http"))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: engine,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.Int("port", cfg.Server.Port))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		log.Fatal("server error", zap.Error(err))
	case <-ctx.Done():
		log.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
			_ = server.Close()
		}

		log.Info("server stopped")
	}
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
