package photometry

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	batcherrors "fpcli/internal/errors"
)

// Pipeline runs the full per-subject sequence: drift correction of both
// channels, artifact regression, baseline normalization, window metrics and
// peak detection. A Pipeline is immutable after construction and safe for
// concurrent use across subjects.
type Pipeline struct {
	params Params
	drift  DriftCorrector
	peaks  PeakDetector
	logger *slog.Logger
}

// NewPipeline builds a pipeline for one batch run. The drift strategy is
// required; parameters are validated up front so a misconfigured run fails
// before the first subject instead of on every subject.
func NewPipeline(params Params, drift DriftCorrector, logger *slog.Logger) (*Pipeline, error) {
	if drift == nil {
		return nil, fmt.Errorf("drift corrector is required")
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("validate params: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		params: params,
		drift:  drift,
		peaks:  PeakDetector{Threshold: params.PeakThreshold},
		logger: logger,
	}, nil
}

// Process runs the stages for one subject. Failures are returned as
// *errors.SubjectError tagged with the failing stage; the caller decides
// whether to abort or to record the subject and continue the batch.
func (p *Pipeline) Process(ctx context.Context, trace *Trace) (*SubjectResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	start := time.Now()
	subject := trace.Subject

	if err := trace.Validate(); err != nil {
		return nil, batcherrors.NewSubjectError(subject, batcherrors.StageIngest, err)
	}

	plotEnd := math.Min(p.params.PlotEndCap, trace.MaxTime())
	baseline := p.resolveBaseline(trace)

	p.logger.InfoContext(ctx, "processing subject",
		slog.String("subject", subject),
		slog.Int("samples", trace.Len()),
		slog.String("drift_strategy", p.drift.Name()),
		slog.String("mode", string(p.params.Mode)),
		slog.String("baseline", baseline.String()),
	)

	signalDrift, err := p.drift.Correct(trace.Time, trace.Signal)
	if err != nil {
		return nil, batcherrors.NewSubjectError(subject, batcherrors.StageDrift, fmt.Errorf("signal channel: %w", err))
	}
	referenceDrift, err := p.drift.Correct(trace.Time, trace.Reference)
	if err != nil {
		return nil, batcherrors.NewSubjectError(subject, batcherrors.StageDrift, fmt.Errorf("reference channel: %w", err))
	}

	signalClean, err := RemoveArtifact(signalDrift, referenceDrift)
	if err != nil {
		return nil, batcherrors.NewSubjectError(subject, batcherrors.StageArtifact, err)
	}

	normalized, err := Normalize(trace.Time, signalClean, baseline, p.params.Mode)
	if err != nil {
		return nil, batcherrors.NewSubjectError(subject, batcherrors.StageNormalize, err)
	}

	result := &SubjectResult{
		Subject: subject,
		Trace:   trace,
		Derived: &Derived{
			SignalDrift:    signalDrift,
			ReferenceDrift: referenceDrift,
			SignalClean:    signalClean,
			Normalized:     normalized,
			Mode:           p.params.Mode,
		},
		Baseline: baseline,
		PlotEnd:  plotEnd,
	}

	for _, w := range p.params.Windows {
		m, ok := ExtractMetrics(subject, w.Name, w.Span, trace.Time, normalized, p.params.PlotStart, plotEnd, p.params.Mode)
		if !ok {
			p.logger.WarnContext(ctx, "window outside analysis span, skipped",
				slog.String("subject", subject),
				slog.String("window", w.Name),
				slog.String("span", w.Span.String()),
			)
			continue
		}
		result.Windows = append(result.Windows, m)
	}

	result.Peaks = p.peaks.Detect(trace.Time, normalized)
	result.PeakCount = len(result.Peaks)

	p.logger.InfoContext(ctx, "subject processed",
		slog.String("subject", subject),
		slog.Int("windows", len(result.Windows)),
		slog.Int("peak_count", result.PeakCount),
		slog.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// resolveBaseline turns a sample-count baseline override into a concrete
// interval on this trace; with no override the configured interval is used
// as is.
func (p *Pipeline) resolveBaseline(trace *Trace) Interval {
	if p.params.BaselineSamples > 0 {
		n := p.params.BaselineSamples
		if n > trace.Len() {
			n = trace.Len()
		}
		return Interval{Start: trace.Time[0], End: trace.Time[n-1]}
	}
	return p.params.Baseline
}
