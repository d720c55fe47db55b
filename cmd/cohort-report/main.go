package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"

	"fpcli/internal/config"
	"fpcli/internal/exporter"
	"fpcli/internal/ingest"
	"fpcli/internal/photometry"
	"fpcli/internal/validation"
)

// cohort-report rebuilds the cohort workbook from previously exported
// processed traces, so the cross-subject grid can be regenerated after
// deleting or adding subjects without rerunning the whole pipeline.
func main() {
	configFile := flag.String("config", "", "configuration file (defaults to config.yaml or configs/config.yaml)")
	inDir := flag.String("in", "", "directory of processed traces (defaults to the configured output directory)")
	outFile := flag.String("out", "", "cohort workbook path (defaults to the configured summary location)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	paths, err := config.ResolvePaths(cfg)
	if err != nil {
		slog.Error("Failed to resolve paths", "error", err)
		os.Exit(1)
	}
	if *inDir == "" {
		*inDir = paths.OutputDir
	}
	if *outFile != "" {
		paths.CohortWorkbook = *outFile
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	preflight := validation.NewFileValidator(slog.Default())
	if _, err := preflight.ValidateDataDirectory(*inDir); err != nil {
		slog.Error("Preflight failed", "error", err)
		os.Exit(1)
	}

	files, err := ingest.DiscoverProcessed(*inDir)
	if err != nil {
		slog.Error("Failed to list processed traces", "error", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		slog.Error("No processed traces found",
			"dir", *inDir,
			"hint", "Run analyzer first to generate processed traces")
		os.Exit(1)
	}
	slog.Info("Found processed traces", "count", len(files))

	var results []*photometry.SubjectResult
	for _, file := range files {
		pt, err := ingest.ReadProcessed(file)
		if err != nil {
			slog.Warn("Skipping unreadable processed trace",
				"path", file,
				"error", err)
			continue
		}
		maxTime := pt.Time[len(pt.Time)-1]
		results = append(results, &photometry.SubjectResult{
			Subject: pt.Subject,
			Trace:   &photometry.Trace{Subject: pt.Subject, Time: pt.Time},
			Derived: &photometry.Derived{Normalized: pt.Normalized},
			PlotEnd: math.Min(cfg.Analysis.PlotEndCap, maxTime),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Subject < results[j].Subject
	})

	frame, err := photometry.Aggregate(results, cfg.Analysis.PlotStart)
	if err != nil {
		slog.Error("Failed to aggregate cohort", "error", err)
		os.Exit(1)
	}

	if err := exporter.NewWorkbookExporter(paths).WriteCohort(frame); err != nil {
		slog.Error("Failed to write cohort workbook", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Cohort traces: %s (%d subjects, %d seconds)\n",
		paths.CohortWorkbook, len(frame.Subjects), len(frame.Seconds))
}
