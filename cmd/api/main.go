package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/av-estimator/engine/internal/api"
	"github.com/av-estimator/engine/internal/api/handlers"
	mw "github.com/av-estimator/engine/internal/api/middleware"
	"github.com/av-estimator/engine/internal/estimate"
	"github.com/av-estimator/engine/internal/repository"
	"github.com/av-estimator/engine/internal/services"
	"github.com/av-estimator/engine/pkg/config"
	"github.com/av-estimator/engine/pkg/database"
	"github.com/av-estimator/engine/pkg/logger"
)

const devJWTSecret = "change-me-in-production-please"

func main() {
	cfg := config.MustLoad()

	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat, "api")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	log.Info("starting estimator api",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
		zap.String("package_name_precedence", cfg.PackageNamePrecedence),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL, database.Options{Logger: log, Verbose: cfg.AppEnv == "development"})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	log.Info("database connected")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer rdb.Close()

	// Without redis, package syncs across projects run inline in the request.
	var enqueuer services.TaskEnqueuer
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, sync jobs will run inline", zap.Error(err))
	} else {
		client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer client.Close()
		enqueuer = client
	}

	jwtSecret := []byte(cfg.JWTSecret)
	if len(jwtSecret) == 0 {
		log.Warn("JWT_SECRET not set, using development default")
		jwtSecret = []byte(devJWTSecret)
	}

	precedence := estimate.ParsePrecedence(cfg.PackageNamePrecedence)

	userRepo := repository.NewUserRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	packageRepo := repository.NewPackageRepository(db)
	jobRepo := repository.NewSyncJobRepository(db)

	authSvc := services.NewAuthService(userRepo, jwtSecret)
	catalogSvc := services.NewCatalogService(catalogRepo)
	projectSvc := services.NewProjectService(projectRepo, packageRepo, catalogRepo)
	estimateSvc := services.NewEstimateService(projectRepo, packageRepo, precedence)
	packageSvc := services.NewPackageService(packageRepo, projectRepo, catalogRepo, precedence)
	syncSvc := services.NewSyncService(projectRepo, packageRepo, jobRepo, enqueuer, cfg.SyncQueue, precedence)

	limiter := mw.NewLimiter(10, 20)
	go limiter.Sweep(ctx)

	router := api.NewRouter(api.Dependencies{
		HMACSecret: jwtSecret,
		Limiter:    limiter,
		Health: handlers.NewHealthHandler(
			handlers.Check{Name: "postgres", Ping: func(ctx context.Context) error { return database.Ping(ctx, db) }},
			handlers.Check{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		),
		AuthHandler:      handlers.NewAuthHandler(authSvc),
		CatalogHandler:   handlers.NewCatalogHandler(catalogSvc),
		ProjectsHandler:  handlers.NewProjectsHandler(projectSvc),
		EstimatesHandler: handlers.NewEstimatesHandler(estimateSvc),
		PackagesHandler:  handlers.NewPackagesHandler(packageSvc),
		SyncHandler:      handlers.NewSyncHandler(syncSvc),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}
}
