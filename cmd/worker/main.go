package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/av-estimator/engine/pkg/config"
	"github.com/av-estimator/engine/pkg/database"
	"github.com/av-estimator/engine/pkg/logger"

	"github.com/av-estimator/engine/internal/estimate"
	"github.com/av-estimator/engine/internal/queue/tasks"
	"github.com/av-estimator/engine/internal/repository"
	"github.com/av-estimator/engine/internal/services"
)

func main() {
	cfg := config.MustLoad()
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat, "worker")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}
	_ = rdb.Close()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		},
		asynq.Config{
			Concurrency: cfg.AsynqConcurrency,
			Queues:      map[string]int{cfg.SyncQueue: 1},
			Logger:      log.Sugar(),
		},
	)

	ctx := context.Background()
	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL, database.Options{Logger: log, Verbose: cfg.AppEnv == "development"})
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}

	projectRepo := repository.NewProjectRepository(db)
	packageRepo := repository.NewPackageRepository(db)
	jobRepo := repository.NewSyncJobRepository(db)

	// the worker executes jobs and never enqueues them
	syncSvc := services.NewSyncService(projectRepo, packageRepo, jobRepo, nil, cfg.SyncQueue, estimate.ParsePrecedence(cfg.PackageNamePrecedence))

	mux := asynq.NewServeMux()
	tasks.NewSyncTaskHandler(syncSvc).Register(mux)

	errCh := make(chan error, 1)
	go func() {
		log.Info("asynq worker starting", zap.Int("concurrency", cfg.AsynqConcurrency), zap.String("queue", cfg.SyncQueue))
		if err := srv.Run(mux); err != nil {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("worker stopped with error", zap.Error(err))
	}

	// Allow in-flight tasks to finish gracefully
	srv.Shutdown()
}
