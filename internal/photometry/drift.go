package photometry

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DriftCorrector removes slow photobleaching decay from a single channel.
// Implementations return a fresh slice aligned with the input and never
// mutate it.
type DriftCorrector interface {
	Correct(time, channel []float64) ([]float64, error)
	Name() string
}

// AnchoredLinearFit corrects drift by fitting a line through the channel
// means of two anchor intervals, one early in the recording and one pinned
// to its end, and subtracting the fitted trend pointwise.
type AnchoredLinearFit struct {
	// Pre is the early anchor, in absolute seconds.
	Pre Interval
	// Post is the late anchor, expressed as offsets back from the final
	// timestamp so it tracks the end of every recording.
	Post AnchoredInterval
}

// Name implements DriftCorrector.
func (a AnchoredLinearFit) Name() string { return "linear" }

// Correct implements DriftCorrector. The fitted trend runs through
// (Pre.Start, preMean) and (post.End, postMean); an anchor that selects no
// samples leaves the whole channel undefined, which is surfaced as an error
// rather than a NaN-filled series.
func (a AnchoredLinearFit) Correct(time, channel []float64) ([]float64, error) {
	if len(time) != len(channel) {
		return nil, fmt.Errorf("%w: time=%d channel=%d", ErrShape, len(time), len(channel))
	}
	if len(time) == 0 {
		return nil, fmt.Errorf("%w: empty channel", ErrShape)
	}
	post := a.Post.Resolve(floats.Max(time))

	pre := gather(a.Pre, time, channel)
	if len(pre) == 0 {
		return nil, fmt.Errorf("pre anchor %s: %w", a.Pre, ErrEmptyInterval)
	}
	late := gather(post, time, channel)
	if len(late) == 0 {
		return nil, fmt.Errorf("post anchor %s: %w", post, ErrEmptyInterval)
	}

	span := post.End - a.Pre.Start
	if span <= 0 {
		return nil, fmt.Errorf("%w: anchors %s and %s span %g seconds", ErrDegenerateFit, a.Pre, post, span)
	}

	preMean := stat.Mean(pre, nil)
	postMean := stat.Mean(late, nil)
	slope := (postMean - preMean) / span
	intercept := preMean - slope*a.Pre.Start

	out := make([]float64, len(channel))
	for i, v := range channel {
		out[i] = v - (slope*time[i] + intercept)
	}
	return out, nil
}

// RollingMedian corrects drift by subtracting a centered moving median.
// Window is a sample count and must be odd; at the two ends of the series
// the window shrinks so every position keeps a defined median.
type RollingMedian struct {
	Window int
}

// Name implements DriftCorrector.
func (r RollingMedian) Name() string { return "median" }

// Correct implements DriftCorrector.
func (r RollingMedian) Correct(time, channel []float64) ([]float64, error) {
	if len(time) != len(channel) {
		return nil, fmt.Errorf("%w: time=%d channel=%d", ErrShape, len(time), len(channel))
	}
	if r.Window < 1 || r.Window%2 == 0 {
		return nil, fmt.Errorf("rolling median window must be a positive odd sample count, got %d", r.Window)
	}
	n := len(channel)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty channel", ErrShape)
	}

	half := r.Window / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half + 1
		if hi > n {
			hi = n
		}
		med, err := stats.Median(channel[lo:hi])
		if err != nil {
			return nil, fmt.Errorf("rolling median at sample %d: %w", i, err)
		}
		out[i] = channel[i] - med
	}
	return out, nil
}
