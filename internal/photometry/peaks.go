package photometry

// PeakDetector finds transient events on a normalized trace: strict local
// maxima whose amplitude reaches Threshold. There is no prominence or
// distance filtering; a sample equal to its neighbor is not a maximum, and
// the first and last samples are never peaks.
type PeakDetector struct {
	// Threshold is the minimum amplitude, in the units of the series being
	// scanned, for a local maximum to count.
	Threshold float64
}

// Detect scans the series and returns every qualifying peak in time order.
// Peaks at time zero are included here; displays that are sensitive to the
// recording start drop them at render time, while counts keep them.
func (d PeakDetector) Detect(time, values []float64) []Peak {
	var peaks []Peak
	for i := 1; i+1 < len(values); i++ {
		v := values[i]
		if v < d.Threshold {
			continue
		}
		if v > values[i-1] && v > values[i+1] {
			peaks = append(peaks, Peak{Index: i, Time: time[i], Value: v})
		}
	}
	return peaks
}
