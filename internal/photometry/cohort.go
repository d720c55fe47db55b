package photometry

import (
	"math"
	"sort"
)

// Aggregate folds finished subject results onto a shared integer-second
// grid so the cohort can be compared across recordings with different
// sample clocks.
//
// The cohort's span ends at the earliest effective end across subjects, so
// every column covers the same stretch of time. Within [plotStart, end],
// both endpoints kept, each sample's timestamp is rounded to the nearest
// whole second (ties to even) and samples sharing a second are averaged per
// subject. The grids are then outer-unioned: a second appears when any
// subject has it, and subjects without a sample there stay NaN. No
// interpolation is ever applied.
func Aggregate(results []*SubjectResult, plotStart float64) (*CohortFrame, error) {
	var usable []*SubjectResult
	for _, r := range results {
		if r != nil && r.Derived != nil && len(r.Derived.Normalized) > 0 {
			usable = append(usable, r)
		}
	}
	if len(usable) == 0 {
		return nil, ErrNoUsableTraces
	}

	end := usable[0].PlotEnd
	for _, r := range usable[1:] {
		end = math.Min(end, r.PlotEnd)
	}

	cols := make([]map[int]float64, len(usable))
	union := make(map[int]struct{})
	for j, r := range usable {
		sums := make(map[int]float64)
		counts := make(map[int]int)
		for i, t := range r.Trace.Time {
			if t < plotStart || t > end {
				continue
			}
			sec := int(math.RoundToEven(t))
			sums[sec] += r.Derived.Normalized[i]
			counts[sec]++
		}
		col := make(map[int]float64, len(sums))
		for sec, sum := range sums {
			col[sec] = sum / float64(counts[sec])
			union[sec] = struct{}{}
		}
		cols[j] = col
	}

	seconds := make([]int, 0, len(union))
	for sec := range union {
		seconds = append(seconds, sec)
	}
	sort.Ints(seconds)

	frame := &CohortFrame{
		Seconds:  seconds,
		Subjects: make([]string, len(usable)),
		Values:   make([][]float64, len(seconds)),
	}
	for j, r := range usable {
		frame.Subjects[j] = r.Subject
	}
	for i, sec := range seconds {
		row := make([]float64, len(usable))
		for j := range row {
			v, ok := cols[j][sec]
			if !ok {
				v = math.NaN()
			}
			row[j] = v
		}
		frame.Values[i] = row
	}
	return frame, nil
}
