package photometry

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// ExtractMetrics summarizes one named window of a normalized trace. The
// window is first clipped to the analysis span [plotStart, plotEnd]; a
// window clipped to nothing, or selecting no samples, is skipped (ok false).
//
// Selection inside the clipped window is half open, start inclusive and end
// exclusive, so a sample landing exactly on a shared boundary belongs to the
// later window only. Anchor and baseline intervals elsewhere keep both
// endpoints; the two conventions are deliberate and must not be unified.
func ExtractMetrics(subject, name string, win Interval, time, normalized []float64, plotStart, plotEnd float64, mode Mode) (WindowMetrics, bool) {
	ws := math.Max(win.Start, plotStart)
	we := math.Min(win.End, plotEnd)
	if ws >= we {
		return WindowMetrics{}, false
	}

	var ts, ys []float64
	for i, t := range time {
		if t >= ws && t < we {
			ts = append(ts, t)
			ys = append(ys, normalized[i])
		}
	}
	if len(ys) == 0 {
		return WindowMetrics{}, false
	}

	m := WindowMetrics{Subject: subject, Window: name, Samples: len(ys)}
	m.Mean = StatOf(stat.Mean(ys, nil))
	// Sample deviation (divisor n-1): one sample yields NaN, which StatOf
	// reports as not computed rather than zero.
	m.Std = StatOf(stat.StdDev(ys, nil))
	m.AUC = StatOf(trapezoid(ts, ys))
	if mode == ModeDeltaF {
		m.AUCPos = StatOf(positiveArea(ts, ys))
	}
	peakIdx := floats.MaxIdx(ys)
	m.Peak = StatOf(ys[peakIdx])
	m.PeakTime = StatOf(ts[peakIdx])
	return m, true
}

// trapezoid integrates the series over its time support. A single sample
// spans zero width and integrates to zero.
func trapezoid(ts, ys []float64) float64 {
	if len(ts) < 2 {
		return 0
	}
	return integrate.Trapezoidal(ts, ys)
}

// positiveArea integrates only the strictly positive samples, by Simpson's
// rule where at least three survive and by trapezoid for two. No positive
// samples integrate to zero.
func positiveArea(ts, ys []float64) float64 {
	var pt, py []float64
	for i, y := range ys {
		if y > 0 {
			pt = append(pt, ts[i])
			py = append(py, y)
		}
	}
	switch {
	case len(py) >= 3:
		return integrate.Simpsons(pt, py)
	case len(py) == 2:
		return integrate.Trapezoidal(pt, py)
	default:
		return 0
	}
}
