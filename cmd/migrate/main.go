package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/av-estimator/engine/internal/repository"
	"github.com/av-estimator/engine/pkg/config"
	"github.com/av-estimator/engine/pkg/database"
	"github.com/av-estimator/engine/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg := config.MustLoad()
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat, "migrate")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL, database.Options{Logger: log, Verbose: true})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := repository.Migrate(db.WithContext(ctx)); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	fmt.Fprintln(os.Stdout, "migrations completed")
}
