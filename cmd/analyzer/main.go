package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"fpcli/internal/app"
	"fpcli/internal/config"
	"fpcli/internal/infrastructure"
	"fpcli/internal/validation"
)

func main() {
	configFile := flag.String("config", "", "configuration file (defaults to config.yaml or configs/config.yaml)")
	dataDir := flag.String("data", "", "directory of raw recording CSVs (overrides configuration)")
	outDir := flag.String("out", "", "directory for processed traces and charts (overrides configuration)")
	mode := flag.String("mode", "", "normalization mode: zscore or dff (overrides configuration)")
	strategy := flag.String("strategy", "", "drift strategy: linear or median (overrides configuration)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Flags win over file and environment.
	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}
	if *outDir != "" {
		cfg.Paths.OutputDir = *outDir
	}
	if *mode != "" {
		cfg.Analysis.Mode = *mode
	}
	if *strategy != "" {
		cfg.Analysis.DriftStrategy = *strategy
	}

	paths, err := config.ResolvePaths(cfg)
	if err != nil {
		slog.Error("Failed to resolve paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.EnsureRunID(ctx)

	logger.InfoContext(ctx, "Starting batch analysis",
		slog.String("data_dir", paths.DataDir),
		slog.String("output_dir", paths.OutputDir),
		slog.String("mode", cfg.Analysis.Mode),
		slog.String("drift_strategy", cfg.Analysis.DriftStrategy))

	preflight := validation.NewFileValidator(logger)
	if _, err := preflight.ValidateDataDirectory(paths.DataDir); err != nil {
		logger.ErrorContext(ctx, "Preflight failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	for _, dir := range []string{paths.OutputDir, paths.SummaryDir} {
		if err := preflight.ValidateOutputDirectory(dir); err != nil {
			logger.ErrorContext(ctx, "Preflight failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	runner, err := app.NewRunner(cfg, paths, logger)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to build runner", slog.String("error", err.Error()))
		os.Exit(1)
	}

	batch, err := runner.Run(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Batch failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Progress lines for outer tooling to parse.
	fmt.Printf("Processed %d subjects\n", len(batch.Results))
	if len(batch.Failures) > 0 {
		fmt.Printf("Failed subjects: %d (see %s)\n", len(batch.Failures), paths.FailureReport)
	}
	fmt.Printf("Summary: %s\n", paths.SummaryWorkbook)
	if batch.Cohort != nil {
		fmt.Printf("Cohort traces: %s\n", paths.CohortWorkbook)
	}
	fmt.Println("Batch complete")
}
