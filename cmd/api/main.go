package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"jobverse/internal/api"
	"jobverse/internal/auth"
	"jobverse/internal/config"
	"jobverse/internal/database"
	"jobverse/internal/storage"
)

func main() {
	cfg := config.MustLoad()

	logger := newLogger(cfg.API)
	slog.SetDefault(logger)
	if cfg.API.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	logger.Info("database ready",
		slog.String("host", cfg.Database.Host),
		slog.String("db", cfg.Database.Name),
	)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, login throttling fails open", slog.Any("error", err))
	}
	cancelPing()

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	var scanner storage.Scanner
	if clamd := storage.NewClamdScanner(cfg.Clamd.Addr); clamd != nil {
		scanner = clamd
		logger.Info("upload scanning enabled", slog.String("clamd_addr", cfg.Clamd.Addr))
	}
	uploader := storage.NewUploader(storageClient, scanner, cfg.API.MaxUploadBytes)

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Error("close asynq client failed", slog.Any("error", err))
		}
	}()

	authService, err := auth.NewAuthService(cfg.Auth.SecretKey, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	origins := api.NewOriginPolicy(cfg.API.AllowedOrigins, cfg.API.IsProduction())
	router, err := api.NewRouter(api.Dependencies{
		Config:      cfg,
		DB:          db,
		Logger:      logger,
		AuthService: authService,
		Redis:       redisClient,
		Uploader:    uploader,
		Signer:      storageClient,
		Objects:     storageClient,
		Enqueuer:    asynqClient,
		Origins:     origins,
	})
	if err != nil {
		log.Fatalf("build router: %v", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           api.CORS(origins).Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("api listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server stopped", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
	logger.Info("api stopped")
}

func newLogger(cfg config.APIConfig) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
