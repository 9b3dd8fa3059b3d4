package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jafarshop/catalogsync/internal/config"
	"github.com/jafarshop/catalogsync/internal/platform"
	"github.com/jafarshop/catalogsync/internal/repository/postgres"
	"github.com/jafarshop/catalogsync/internal/validator"
)

func main() {
	orgID := flag.String("org", "", "organization id (required)")
	asJSON := flag.Bool("json", false, "print the structured report instead of text")
	flag.Parse()

	if *orgID == "" {
		fmt.Println("Usage: go run cmd/validate/main.go -org <organization-id> [-json]")
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
	v := validator.New(repos, platform.NewRegistry(logger), nil, cfg.Validator, logger)

	report, err := v.ValidateAllData(context.Background(), *orgID)
	if err != nil {
		logger.Fatal("Validation run failed", zap.Error(err))
	}

	if *asJSON {
		out, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(out))
	} else {
		fmt.Println(report.RenderText())
	}

	if report.Status == validator.StatusFail {
		os.Exit(1)
	}
}
