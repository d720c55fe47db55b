package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/montanaflynn/stats"

	"fpcli/internal/config"
	batcherrors "fpcli/internal/errors"
	"fpcli/internal/exporter"
	"fpcli/internal/infrastructure"
	"fpcli/internal/ingest"
	"fpcli/internal/photometry"
)

// Runner executes one batch analysis run: discovery, the per-subject
// pipeline, per-subject exports and the cohort summaries. A Runner is
// immutable after construction.
type Runner struct {
	cfg      *config.Config
	paths    *config.Paths
	logger   *slog.Logger
	params   photometry.Params
	pipeline *photometry.Pipeline

	traces   *exporter.TraceExporter
	charts   *exporter.ChartExporter
	workbook *exporter.WorkbookExporter
	csv      *exporter.CSVWriter
}

// BatchResult summarizes one finished run.
type BatchResult struct {
	RunID string
	// Results holds the subjects that completed the pipeline, ordered by
	// subject ID. Subjects whose exports failed are still included.
	Results []*photometry.SubjectResult
	// Failures holds every per-subject failure, ordered by subject and
	// stage.
	Failures []*batcherrors.SubjectError
	// Cohort is nil when no subject produced a usable trace.
	Cohort *photometry.CohortFrame
}

// NewRunner builds a runner from validated configuration. A nil logger
// falls back to the initialized application logger.
func NewRunner(cfg *config.Config, paths *config.Paths, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	params, err := buildParams(&cfg.Analysis)
	if err != nil {
		return nil, fmt.Errorf("failed to build analysis parameters: %w", err)
	}
	drift, err := buildDrift(&cfg.Analysis)
	if err != nil {
		return nil, fmt.Errorf("failed to build drift corrector: %w", err)
	}

	pipeline, err := photometry.NewPipeline(params, drift, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	return &Runner{
		cfg:      cfg,
		paths:    paths,
		logger:   logger,
		params:   params,
		pipeline: pipeline,
		traces:   exporter.NewTraceExporter(paths),
		charts:   exporter.NewChartExporter(paths, params.PlotStart),
		workbook: exporter.NewWorkbookExporter(paths),
		csv:      exporter.NewCSVWriter(paths),
	}, nil
}

// buildParams maps the configuration onto pipeline parameters. The
// sample-count baseline override only applies to median runs, whose
// acquisition settings are expressed in samples rather than seconds.
func buildParams(a *config.AnalysisConfig) (photometry.Params, error) {
	mode, err := photometry.ParseMode(a.Mode)
	if err != nil {
		return photometry.Params{}, err
	}

	params := photometry.Params{
		Baseline:      photometry.Interval{Start: a.Baseline.Start, End: a.Baseline.End},
		PlotStart:     a.PlotStart,
		PlotEndCap:    a.PlotEndCap,
		Mode:          mode,
		PeakThreshold: a.PeakThreshold,
	}
	if a.DriftStrategy == "median" {
		params.BaselineSamples = a.Median.BaselineSamples
	}
	for _, w := range a.Windows {
		params.Windows = append(params.Windows, photometry.Window{
			Name: w.Name,
			Span: photometry.Interval{Start: w.Start, End: w.End},
		})
	}
	return params, nil
}

// buildDrift selects the photobleaching correction strategy.
func buildDrift(a *config.AnalysisConfig) (photometry.DriftCorrector, error) {
	switch a.DriftStrategy {
	case "linear":
		return photometry.AnchoredLinearFit{
			Pre: photometry.Interval{Start: a.DriftPre.Start, End: a.DriftPre.End},
			Post: photometry.AnchoredInterval{
				StartOffset: a.DriftPost.StartOffset,
				EndOffset:   a.DriftPost.EndOffset,
			},
		}, nil
	case "median":
		return photometry.RollingMedian{Window: a.Median.WindowSamples}, nil
	}
	return nil, fmt.Errorf("unknown drift strategy %q", a.DriftStrategy)
}

// Run executes the batch. Subjects fail independently: a recording that
// cannot be read or whose numbers degenerate is recorded and skipped while
// the rest of the batch continues. Only batch-level problems, an unreadable
// data directory or an unwritable summary, abort the run.
func (r *Runner) Run(ctx context.Context) (*BatchResult, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	runID := infrastructure.GetRunID(ctx)
	start := time.Now()

	files, err := ingest.Discover(r.paths.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to discover recordings: %w", err)
	}

	r.logger.InfoContext(ctx, "batch starting",
		slog.String("data_dir", r.paths.DataDir),
		slog.Int("recordings", len(files)),
		slog.String("drift_strategy", r.cfg.Analysis.DriftStrategy),
		slog.String("mode", r.cfg.Analysis.Mode),
		slog.Int("max_concurrency", r.cfg.Analysis.MaxConcurrency))
	if r.cfg.Analysis.DriftStrategy == "median" {
		r.logger.InfoContext(ctx, "median drift settings",
			slog.Int("window_samples", r.cfg.Analysis.Median.WindowSamples),
			slog.Float64("block_seconds", r.cfg.Analysis.Median.BlockSeconds),
			slog.Int("baseline_samples", r.cfg.Analysis.Median.BaselineSamples))
	}

	if len(files) == 0 {
		r.logger.WarnContext(ctx, "no recordings found",
			slog.String("data_dir", r.paths.DataDir))
		return &BatchResult{RunID: runID}, nil
	}

	resultsChan := make(chan *photometry.SubjectResult, len(files))
	var collector batcherrors.Collector
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, r.cfg.Analysis.MaxConcurrency)

	for _, file := range files {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("batch cancelled: %w", ctx.Err())
		default:
		}

		wg.Add(1)
		go func(path string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if res := r.processFile(ctx, path, &collector); res != nil {
				resultsChan <- res
			}
		}(file)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	var results []*photometry.SubjectResult
	for res := range resultsChan {
		results = append(results, res)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch cancelled: %w", err)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Subject < results[j].Subject
	})

	batch := &BatchResult{
		RunID:    runID,
		Results:  results,
		Failures: collector.All(),
	}

	if err := r.workbook.WriteSummary(results, r.params.Windows, r.params.Mode, runID); err != nil {
		return nil, fmt.Errorf("failed to write summary workbook: %w", err)
	}

	frame, err := photometry.Aggregate(results, r.params.PlotStart)
	switch {
	case err == nil:
		if err := r.workbook.WriteCohort(frame); err != nil {
			return nil, fmt.Errorf("failed to write cohort workbook: %w", err)
		}
		batch.Cohort = frame
	case photometry.IsEmptyResult(err):
		r.logger.WarnContext(ctx, "no usable traces, skipping cohort workbook")
	default:
		return nil, fmt.Errorf("failed to aggregate cohort: %w", err)
	}

	if len(batch.Failures) > 0 {
		if err := r.csv.WriteFailureReport(r.paths.FailureReport, batch.Failures); err != nil {
			return nil, fmt.Errorf("failed to write failure report: %w", err)
		}
	}

	finished := []any{
		slog.Int("processed", len(results)),
		slog.Int("failed", len(collector.Subjects())),
		slog.Duration("duration", time.Since(start)),
	}
	if median, p90, ok := peakCountSpread(results); ok {
		finished = append(finished,
			slog.Float64("peak_count_median", median),
			slog.Float64("peak_count_p90", p90))
	}
	r.logger.InfoContext(ctx, "batch finished", finished...)

	return batch, nil
}

// peakCountSpread summarizes how peak counts distribute across the batch,
// for the completion log. ok is false when no subject completed.
func peakCountSpread(results []*photometry.SubjectResult) (median, p90 float64, ok bool) {
	if len(results) == 0 {
		return 0, 0, false
	}
	counts := make([]float64, len(results))
	for i, res := range results {
		counts[i] = float64(res.PeakCount)
	}
	median, err := stats.Median(counts)
	if err != nil {
		return 0, 0, false
	}
	p90, err = stats.Percentile(counts, 90)
	if err != nil {
		return 0, 0, false
	}
	return median, p90, true
}

// processFile runs one recording through the pipeline and writes its
// per-subject outputs. Pipeline failures drop the subject; export failures
// are recorded but keep the subject in the batch summaries.
func (r *Runner) processFile(ctx context.Context, path string, collector *batcherrors.Collector) *photometry.SubjectResult {
	subject := ingest.SubjectID(path)

	trace, err := ingest.ReadTrace(path)
	if err != nil {
		r.logger.ErrorContext(ctx, "recording unreadable",
			slog.String("subject", subject),
			slog.String("path", path),
			slog.String("error", err.Error()))
		collector.Add(batcherrors.NewSubjectError(subject, batcherrors.StageIngest, err))
		return nil
	}

	res, err := r.pipeline.Process(ctx, trace)
	if err != nil {
		if se, ok := batcherrors.AsSubjectError(err); ok {
			r.logger.ErrorContext(ctx, "subject failed",
				slog.String("subject", se.Subject),
				slog.String("stage", se.Stage),
				slog.String("error", se.Err.Error()))
			collector.Add(se)
		}
		return nil
	}

	if err := r.traces.WriteProcessed(res); err != nil {
		r.logger.ErrorContext(ctx, "processed trace export failed",
			slog.String("subject", subject),
			slog.String("error", err.Error()))
		collector.Add(batcherrors.NewSubjectError(subject, batcherrors.StageExport, err))
	}
	if err := r.charts.WriteChart(res); err != nil {
		r.logger.WarnContext(ctx, "chart export failed",
			slog.String("subject", subject),
			slog.String("error", err.Error()))
		collector.Add(batcherrors.NewSubjectError(subject, batcherrors.StageExport, err))
	}

	return res
}
