package photometry

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Trace holds one subject's raw two-channel recording. Time carries seconds
// from recording start and must be sorted ascending; Signal is the
// calcium-sensitive channel and Reference the calcium-insensitive channel,
// both aligned sample for sample with Time.
type Trace struct {
	Subject   string
	Time      []float64
	Signal    []float64
	Reference []float64
}

// Len returns the number of samples in the trace.
func (t *Trace) Len() int {
	return len(t.Time)
}

// MaxTime returns the final timestamp of the recording, or NaN for an empty
// trace.
func (t *Trace) MaxTime() float64 {
	if len(t.Time) == 0 {
		return math.NaN()
	}
	return floats.Max(t.Time)
}

// Validate checks that the trace is processable: aligned channels, at least
// two samples, finite values and a sorted time axis.
func (t *Trace) Validate() error {
	n := len(t.Time)
	if len(t.Signal) != n || len(t.Reference) != n {
		return fmt.Errorf("%w: time=%d signal=%d reference=%d", ErrShape, n, len(t.Signal), len(t.Reference))
	}
	if n < 2 {
		return fmt.Errorf("%w: %d samples, need at least 2", ErrShape, n)
	}
	if !sort.Float64sAreSorted(t.Time) {
		return fmt.Errorf("%w: time axis is not sorted", ErrShape)
	}
	for i := 0; i < n; i++ {
		if !isFinite(t.Time[i]) || !isFinite(t.Signal[i]) || !isFinite(t.Reference[i]) {
			return fmt.Errorf("%w: non-finite value at sample %d", ErrShape, i)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Interval is a closed [Start, End] span on the time axis. Selection keeps
// both endpoints; an inverted interval selects nothing.
type Interval struct {
	Start float64
	End   float64
}

// Contains reports whether t falls inside the closed span.
func (iv Interval) Contains(t float64) bool {
	return t >= iv.Start && t <= iv.End
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%g, %g]", iv.Start, iv.End)
}

// gather copies the values whose timestamp falls inside the closed interval.
func gather(iv Interval, time, values []float64) []float64 {
	var out []float64
	for i, t := range time {
		if iv.Contains(t) {
			out = append(out, values[i])
		}
	}
	return out
}

// AnchoredInterval is an interval specified as offsets back from the final
// timestamp of a recording, for spans that must track the end of every
// recording regardless of its length.
type AnchoredInterval struct {
	StartOffset float64
	EndOffset   float64
}

// Resolve pins the anchored span to absolute time.
func (a AnchoredInterval) Resolve(maxTime float64) Interval {
	return Interval{Start: maxTime - a.StartOffset, End: maxTime - a.EndOffset}
}

// Mode selects how the cleaned signal is expressed in baseline units.
type Mode string

const (
	// ModeZScore normalizes as (x - mean) / std over the baseline interval.
	ModeZScore Mode = "zscore"
	// ModeDeltaF normalizes as baseline-relative ΔF/F, then re-expresses the
	// fractional series in z units against the same baseline.
	ModeDeltaF Mode = "dff"
)

// ParseMode converts a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeZScore, ModeDeltaF:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown normalization mode %q (want %q or %q)", s, ModeZScore, ModeDeltaF)
}

// Window is a named analysis span for metric extraction.
type Window struct {
	Name string
	Span Interval
}

// Params collects the numeric knobs for one batch run.
type Params struct {
	// Baseline is the interval whose samples define the normalization
	// reference, unless BaselineSamples overrides it.
	Baseline Interval
	// BaselineSamples, when positive, selects the first N samples of each
	// trace as the baseline instead of the fixed interval. Used by runs whose
	// acquisition settings are expressed in samples rather than seconds.
	BaselineSamples int
	// Windows are the named metric spans, evaluated in order.
	Windows []Window
	// PlotStart and PlotEndCap bound the analysis span. Each subject's
	// effective end is the smaller of PlotEndCap and its final timestamp.
	PlotStart  float64
	PlotEndCap float64
	// Mode selects the normalization applied before metric extraction.
	Mode Mode
	// PeakThreshold is the minimum normalized amplitude for a local maximum
	// to count as a peak.
	PeakThreshold float64
}

// Validate checks the parameter set for contradictions that would make every
// subject fail.
func (p Params) Validate() error {
	if _, err := ParseMode(string(p.Mode)); err != nil {
		return err
	}
	if p.PlotStart >= p.PlotEndCap {
		return fmt.Errorf("analysis span [%g, %g] has no extent", p.PlotStart, p.PlotEndCap)
	}
	if p.BaselineSamples < 0 {
		return fmt.Errorf("baseline samples must not be negative, got %d", p.BaselineSamples)
	}
	if !isFinite(p.PeakThreshold) {
		return fmt.Errorf("peak threshold must be finite, got %g", p.PeakThreshold)
	}
	seen := make(map[string]bool, len(p.Windows))
	for _, w := range p.Windows {
		if w.Name == "" {
			return fmt.Errorf("window %s has no name", w.Span)
		}
		if seen[w.Name] {
			return fmt.Errorf("duplicate window name %q", w.Name)
		}
		seen[w.Name] = true
	}
	return nil
}

// Stat is a scalar statistic that may be undefined. Valid distinguishes a
// computed zero from a value that could not be computed.
type Stat struct {
	Value float64
	Valid bool
}

// StatOf wraps v, marking NaN and infinities as not computed.
func StatOf(v float64) Stat {
	return Stat{Value: v, Valid: isFinite(v)}
}

// Float64 returns the value, or NaN when the statistic is undefined.
func (s Stat) Float64() float64 {
	if !s.Valid {
		return math.NaN()
	}
	return s.Value
}

// WindowMetrics holds the summary statistics for one named window of one
// subject's normalized trace.
type WindowMetrics struct {
	Subject string
	Window  string
	// Samples is the number of trace samples the clipped window selected.
	Samples int
	Mean    Stat
	Std     Stat
	// AUC is the trapezoidal integral of the normalized series over the
	// window.
	AUC Stat
	// AUCPos is the Simpson integral of the strictly positive part of the
	// series. Only produced for ΔF/F runs.
	AUCPos   Stat
	Peak     Stat
	PeakTime Stat
}

// Peak is one detected local maximum on the normalized trace.
type Peak struct {
	Index int
	Time  float64
	Value float64
}

// Derived holds the per-stage series for one subject, each aligned sample
// for sample with the input trace.
type Derived struct {
	// SignalDrift and ReferenceDrift are the channels after photobleaching
	// correction.
	SignalDrift    []float64
	ReferenceDrift []float64
	// SignalClean is the signal channel after artifact regression.
	SignalClean []float64
	// Normalized is the cleaned signal expressed in baseline units.
	Normalized []float64
	Mode       Mode
}

// SubjectResult is the complete per-subject output of the pipeline.
type SubjectResult struct {
	Subject string
	Trace   *Trace
	Derived *Derived
	// Baseline is the interval normalization actually used, after any
	// sample-count override was resolved against the trace.
	Baseline Interval
	// PlotEnd is the subject's effective analysis end, the smaller of the
	// configured cap and the final timestamp.
	PlotEnd float64
	Windows []WindowMetrics
	Peaks   []Peak
	// PeakCount counts every detected peak, including any at time zero that
	// plots later leave out.
	PeakCount int
}

// CohortFrame is the cohort-wide normalized signal on a shared integer
// second grid. Values[i][j] holds subject j's mean normalized value in
// second Seconds[i], or NaN where that subject has no sample in the second.
type CohortFrame struct {
	Seconds  []int
	Subjects []string
	Values   [][]float64
}

// At returns subject's value in the given second. The second return is
// false when the subject is unknown, the second is off the grid, or the
// subject has no sample in that second.
func (f *CohortFrame) At(second int, subject string) (float64, bool) {
	col := -1
	for j, s := range f.Subjects {
		if s == subject {
			col = j
			break
		}
	}
	if col < 0 {
		return 0, false
	}
	row := sort.SearchInts(f.Seconds, second)
	if row >= len(f.Seconds) || f.Seconds[row] != second {
		return 0, false
	}
	v := f.Values[row][col]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
