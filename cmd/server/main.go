// Package main runs the event composer HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-events/composer/config"
	"github.com/aura-events/composer/internal/composer"
	"github.com/aura-events/composer/internal/drafts"
	"github.com/aura-events/composer/internal/middleware"
	"github.com/aura-events/composer/internal/notify"
	"github.com/aura-events/composer/internal/persistence"
	"github.com/aura-events/composer/internal/realtime"
	"github.com/aura-events/composer/internal/sessions"
	"github.com/aura-events/composer/internal/worker"
	"github.com/aura-events/composer/pkg/database"
	"github.com/aura-events/composer/pkg/queue"
	"github.com/aura-events/composer/pkg/redis"
	"github.com/aura-events/composer/pkg/response"
	"github.com/aura-events/composer/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" && cfg.AWS.CoversBucket != "" {
		s3Client, err = storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			CoversBucket:         cfg.AWS.CoversBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
			s3Client = nil
		}
	}

	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	zone, err := cfg.Composer.Zone()
	if err != nil {
		logger.Fatal("composer zone", zap.Error(err))
	}
	store := persistence.NewPostgres(pool, cfg.Composer.TemplateLimit)
	registry := drafts.NewRegistry(store, func(draftID uuid.UUID) notify.Notifier {
		return notify.Multi{realtime.NewDraftNotifier(hub, draftID), notify.NewLogger(logger)}
	}, composer.Options{
		AccountID:     cfg.Composer.DefaultAccountID,
		GracePeriod:   cfg.Composer.GracePeriod(),
		TemplateLimit: cfg.Composer.TemplateLimit,
		SessionDefaults: sessions.Defaults{
			Zone:      zone,
			StartHour: cfg.Composer.SessionStartHour,
			EndHour:   cfg.Composer.SessionEndHour,
			Capacity:  cfg.Composer.SessionCapacity,
		},
	}, logger)
	defer registry.CloseAll()

	hub.SetActionInvoker(registry.InvokeAction)
	hub.SetRemoteEventHandler(func(draftID uuid.UUID, event string, payload []byte) {
		if event != realtime.EventCoverImageReady {
			return
		}
		var res worker.CoverResult
		if err := json.Unmarshal(payload, &res); err != nil || res.URL == "" {
			return
		}
		if err := registry.SetCover(draftID, res.URL); err != nil && !errors.Is(err, drafts.ErrDraftNotFound) {
			logger.Warn("set cover image", zap.String("draft_id", draftID.String()), zap.Error(err))
		}
	})

	jobQueue := queue.NewQueue(rdb.Client, cfg.Queue.RetryBackoff(), logger)
	var presign drafts.Presigner
	if s3Client != nil {
		presign = s3Client
	}
	draftHandler := drafts.NewHandler(registry, jobQueue, presign, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(config.SplitOrigins(cfg.Server.CORSAllowedOrigins)))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{"status": "ok", "open_drafts": registry.Len()})
	})

	draftHandler.Register(router.Group("/drafts"))

	// WebSocket (draft_id in query)
	router.GET("/ws", realtime.ServeWs(hub, logger, registry.Exists))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (cover images to S3)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if s3Client != nil {
		processor := worker.NewCoverImageProcessor(s3Client, jobQueue, func(_ context.Context, res worker.CoverResult) error {
			if err := registry.SetCover(res.DraftID, res.URL); err != nil && !errors.Is(err, drafts.ErrDraftNotFound) {
				return err
			}
			hub.Publish(res.DraftID, realtime.EventCoverImageReady, res)
			return nil
		}, logger)
		go processor.Run(workerCtx)
		logger.Info("cover worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
