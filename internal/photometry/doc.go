// Package photometry implements the numeric pipeline for two-channel fiber
// photometry recordings: drift correction, motion artifact removal, baseline
// normalization, windowed metric extraction, and cohort aggregation.
//
// # Processing Model
//
// Each subject contributes one Trace: a shared time axis in seconds, a
// calcium-sensitive signal channel and a calcium-insensitive reference
// channel sampled on the same clock. Processing is strictly sequential per
// subject, with every stage consuming the materialized output of the
// previous one:
//
//  1. Drift correction: remove slow photobleaching decay from each channel
//     independently (drift.go). Two interchangeable strategies are provided,
//     an anchored linear fit and a centered rolling median.
//  2. Artifact removal: regress the corrected signal channel onto the
//     corrected reference channel and subtract the mean-centered fit, so
//     shared motion artifacts cancel while the signal level survives
//     (regression.go).
//  3. Normalization: express the cleaned signal in baseline units, either as
//     a z-score against a baseline interval or as baseline-relative ΔF/F
//     that is itself re-expressed in z units (normalize.go).
//  4. Metric extraction: summarize the normalized trace over named analysis
//     windows with mean, standard deviation, area under the curve, peak
//     value and peak time (metrics.go), plus a whole-trace count of
//     threshold-crossing local maxima (peaks.go).
//
// Subjects are independent until aggregation. Aggregate folds the finished
// normalized traces onto a shared integer-second grid so a cohort can be
// compared independently of each recording's exact sample clock (cohort.go).
//
// # Structure
//
//   - types.go: traces, intervals, tagged statistics, results
//   - errors.go: sentinel errors for degenerate numeric conditions
//   - drift.go: photobleaching correction strategies
//   - regression.go: reference-channel artifact removal
//   - normalize.go: baseline z-score and ΔF/F
//   - metrics.go: windowed summary statistics
//   - peaks.go: local maximum detection
//   - cohort.go: integer-second cohort aggregation
//   - pipeline.go: per-subject orchestration
//
// # Usage
//
//	drift := photometry.AnchoredLinearFit{
//		Pre:  photometry.Interval{Start: 100, End: 600},
//		Post: photometry.AnchoredInterval{StartOffset: 500},
//	}
//	pipe, err := photometry.NewPipeline(params, drift, slog.Default())
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := pipe.Process(ctx, trace)
//
// # Numeric Contracts
//
// Standard deviations use the sample convention (divisor n-1) everywhere, so
// a single-sample window has an undefined deviation rather than zero.
// Statistics that cannot be computed are reported as invalid Stat values,
// never as zeros; conditions that invalidate a whole channel (an interval
// selecting no samples, a constant reference, a dead baseline) are returned
// as errors so a batch driver can record the subject and move on.
package photometry
