package photometry

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Normalize expresses the cleaned signal in baseline units. For ModeZScore
// the series is centered and scaled by the mean and sample standard
// deviation of its own baseline restriction. For ModeDeltaF the series is
// first converted to baseline-relative ΔF/F and the fractional series is
// then z-scored against the same baseline interval, so both modes end in
// comparable z units.
//
// A baseline that cannot support the transform fails the whole series:
// no samples (ErrEmptyInterval), fewer than two samples or zero variance
// (ErrNormalization), or, for ΔF/F, a zero baseline mean that would divide
// away the series (ErrNormalization).
func Normalize(time, series []float64, baseline Interval, mode Mode) ([]float64, error) {
	if len(time) != len(series) {
		return nil, fmt.Errorf("%w: time=%d series=%d", ErrShape, len(time), len(series))
	}
	switch mode {
	case ModeZScore:
		return zscore(time, series, baseline)
	case ModeDeltaF:
		return deltaF(time, series, baseline)
	}
	return nil, fmt.Errorf("unknown normalization mode %q", mode)
}

// zscore returns (x - mean) / std with both moments taken over the baseline
// restriction of the series. The deviation uses the sample convention
// (divisor n-1), so one baseline sample is as undefined as none.
func zscore(time, series []float64, baseline Interval) ([]float64, error) {
	base := gather(baseline, time, series)
	if len(base) == 0 {
		return nil, fmt.Errorf("baseline %s: %w", baseline, ErrEmptyInterval)
	}
	if len(base) < 2 {
		return nil, fmt.Errorf("%w: baseline %s holds a single sample, deviation undefined", ErrNormalization, baseline)
	}
	mu := stat.Mean(base, nil)
	sigma := stat.StdDev(base, nil)
	if sigma == 0 {
		return nil, fmt.Errorf("%w: baseline %s has zero variance", ErrNormalization, baseline)
	}

	out := make([]float64, len(series))
	for i, v := range series {
		out[i] = (v - mu) / sigma
	}
	return out, nil
}

// deltaF converts the series to (x - baselineMean) / baselineMean and hands
// the fractional series back to zscore against the same interval.
func deltaF(time, series []float64, baseline Interval) ([]float64, error) {
	base := gather(baseline, time, series)
	if len(base) == 0 {
		return nil, fmt.Errorf("baseline %s: %w", baseline, ErrEmptyInterval)
	}
	mu := stat.Mean(base, nil)
	if mu == 0 {
		return nil, fmt.Errorf("%w: baseline %s mean is zero, ΔF/F undefined", ErrNormalization, baseline)
	}

	frac := make([]float64, len(series))
	for i, v := range series {
		frac[i] = (v - mu) / mu
	}
	return zscore(time, frac, baseline)
}
