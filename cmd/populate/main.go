package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/jafarshop/catalogsync/internal/catalog"
	"github.com/jafarshop/catalogsync/internal/config"
	"github.com/jafarshop/catalogsync/internal/platform"
	"github.com/jafarshop/catalogsync/internal/pricing"
	"github.com/jafarshop/catalogsync/internal/repository/postgres"
	"github.com/jafarshop/catalogsync/internal/seo"
)

func main() {
	orgID := flag.String("org", "", "organization id (required)")
	platforms := flag.String("platforms", "shopee,tiktokshop", "comma-separated platforms")
	batchSize := flag.Int("batch-size", 50, "raw records per chunk")
	skipExisting := flag.Bool("skip-existing", true, "skip records with an existing mapping")
	dryRun := flag.Bool("dry-run", false, "compute everything but persist nothing")
	strict := flag.Bool("strict", false, "treat record-level errors as run failure")
	flag.Parse()

	if *orgID == "" {
		fmt.Println("Usage: go run cmd/populate/main.go -org <organization-id> [flags]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	db, err := postgres.Open(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)
	populator := catalog.NewPopulator(
		repos,
		platform.NewRegistry(logger),
		pricing.NewEngine(logger),
		seo.NewGenerator(logger),
		logger,
	)

	result, err := populator.PopulateFromImports(context.Background(), catalog.PopulateConfig{
		OrganizationID:             *orgID,
		BatchSize:                  *batchSize,
		SkipExisting:               *skipExisting,
		DryRun:                     *dryRun,
		Platforms:                  strings.Split(*platforms, ","),
		TreatRecordErrorsAsFailure: *strict,
	})
	if err != nil {
		logger.Fatal("Population run failed", zap.Error(err))
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))

	if !result.Success {
		os.Exit(1)
	}
}
