package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jafarshop/catalogsync/internal/api"
	"github.com/jafarshop/catalogsync/internal/catalog"
	"github.com/jafarshop/catalogsync/internal/config"
	"github.com/jafarshop/catalogsync/internal/jobs"
	"github.com/jafarshop/catalogsync/internal/platform"
	"github.com/jafarshop/catalogsync/internal/pricing"
	"github.com/jafarshop/catalogsync/internal/repository/postgres"
	"github.com/jafarshop/catalogsync/internal/seo"
	"github.com/jafarshop/catalogsync/internal/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := postgres.Open(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := jobs.NewRedisClient(cfg.Redis.URL)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	repos := postgres.NewRepositories(db, logger)
	adapters := platform.NewRegistry(logger)
	pricingEngine := pricing.NewEngine(logger)
	seoGenerator := seo.NewGenerator(logger)

	deps := api.Deps{
		Populator: catalog.NewPopulator(repos, adapters, pricingEngine, seoGenerator, logger),
		Validator: validator.New(repos, adapters, nil, cfg.Validator, logger),
		Pricing:   pricingEngine,
		Tracker:   jobs.NewTracker(jobs.NewRedisQueue(redisClient, logger), repos.SyncRun, logger),
	}

	router := api.NewRouter(cfg, deps, logger)

	logger.Info("starting catalogsync API",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
	)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
