package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds the resolved absolute locations of everything the pipeline
// reads and writes. It is the single source of truth for file placement; no
// other package builds output paths on its own.
type Paths struct {
	DataDir    string
	OutputDir  string
	SummaryDir string
	LogsDir    string

	// Well-known summary files.
	SummaryWorkbook string
	CohortWorkbook  string
	FailureReport   string
}

const (
	summaryWorkbookName = "summary_analysis.xlsx"
	cohortWorkbookName  = "all_animals_traces.xlsx"
	failureReportName   = "failures.csv"
)

// ResolvePaths anchors the configured directories at the working directory
// and derives the well-known output files.
func ResolvePaths(cfg *Config) (*Paths, error) {
	base, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	abs := func(dir string) string {
		if filepath.IsAbs(dir) {
			return dir
		}
		return filepath.Join(base, dir)
	}

	p := &Paths{
		DataDir:    abs(cfg.Paths.DataDir),
		OutputDir:  abs(cfg.Paths.OutputDir),
		SummaryDir: abs(cfg.Paths.SummaryDir),
		LogsDir:    abs(cfg.Paths.LogsDir),
	}
	p.SummaryWorkbook = filepath.Join(p.SummaryDir, summaryWorkbookName)
	p.CohortWorkbook = filepath.Join(p.SummaryDir, cohortWorkbookName)
	p.FailureReport = filepath.Join(p.SummaryDir, failureReportName)
	return p, nil
}

// EnsureDirectories creates the output directories. The data directory is an
// input and is left alone; a missing one surfaces at discovery.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.OutputDir, p.SummaryDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ProcessedCSVPath returns the per-subject processed trace file.
func (p *Paths) ProcessedCSVPath(subject string) string {
	return filepath.Join(p.OutputDir, subject+"-processed.csv")
}

// ChartPath returns the per-subject trace chart file.
func (p *Paths) ChartPath(subject string) string {
	return filepath.Join(p.OutputDir, subject+"-trace.svg")
}
