package photometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linspace builds n evenly spaced samples from start to stop inclusive.
func linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestAnchoredLinearFitRecoversDrift(t *testing.T) {
	// Point anchors at the first and last sample make the fitted trend pass
	// through the true line exactly, so a drifting flat signal corrects to
	// flat zero.
	time := linspace(0, 1000, 1001)
	channel := make([]float64, len(time))
	for i, ts := range time {
		channel[i] = 12.5 + 0.004*ts
	}

	fit := AnchoredLinearFit{
		Pre:  Interval{Start: 0, End: 0},
		Post: AnchoredInterval{StartOffset: 0, EndOffset: 0},
	}
	out, err := fit.Correct(time, channel)
	require.NoError(t, err)
	require.Len(t, out, len(channel))
	for i, v := range out {
		assert.InDelta(t, 0, v, 1e-9, "sample %d", i)
	}
}

func TestAnchoredLinearFitFormula(t *testing.T) {
	// Hand-computed fit on a short trace: pre [1,3] has mean 7, the post
	// anchor resolves to [8,10] with mean 21, slope 14/9, intercept 49/9.
	time := linspace(0, 10, 11)
	channel := make([]float64, len(time))
	for i, ts := range time {
		channel[i] = 2*ts + 3
	}

	fit := AnchoredLinearFit{
		Pre:  Interval{Start: 1, End: 3},
		Post: AnchoredInterval{StartOffset: 2, EndOffset: 0},
	}
	out, err := fit.Correct(time, channel)
	require.NoError(t, err)

	slope := 14.0 / 9.0
	intercept := 49.0 / 9.0
	for i, ts := range time {
		want := channel[i] - (slope*ts + intercept)
		assert.InDelta(t, want, out[i], 1e-12, "sample %d", i)
	}
}

func TestAnchoredLinearFitReducesWideAnchorTrend(t *testing.T) {
	// With wide anchors the fit is the anchored heuristic, not least
	// squares, so recovery is approximate; the residual trend must still
	// collapse by well over an order of magnitude.
	time := linspace(0, 29500, 2951)
	channel := make([]float64, len(time))
	for i, ts := range time {
		channel[i] = 100 - 0.003*ts
	}

	fit := AnchoredLinearFit{
		Pre:  Interval{Start: 100, End: 600},
		Post: AnchoredInterval{StartOffset: 500, EndOffset: 0},
	}
	out, err := fit.Correct(time, channel)
	require.NoError(t, err)

	originalTrend := channel[len(channel)-1] - channel[0]
	residualTrend := out[len(out)-1] - out[0]
	assert.Less(t, absf(residualTrend), absf(originalTrend)*0.05)
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestAnchoredLinearFitErrors(t *testing.T) {
	time := linspace(0, 1000, 101)
	channel := make([]float64, len(time))

	tests := []struct {
		name    string
		fit     AnchoredLinearFit
		wantErr error
	}{
		{
			name: "empty pre anchor",
			fit: AnchoredLinearFit{
				Pre:  Interval{Start: 2000, End: 3000},
				Post: AnchoredInterval{StartOffset: 500, EndOffset: 0},
			},
			wantErr: ErrEmptyInterval,
		},
		{
			name: "empty post anchor",
			fit: AnchoredLinearFit{
				Pre:  Interval{Start: 100, End: 600},
				Post: AnchoredInterval{StartOffset: -10, EndOffset: -20},
			},
			wantErr: ErrEmptyInterval,
		},
		{
			name: "inverted pre anchor selects nothing",
			fit: AnchoredLinearFit{
				Pre:  Interval{Start: 600, End: 100},
				Post: AnchoredInterval{StartOffset: 500, EndOffset: 0},
			},
			wantErr: ErrEmptyInterval,
		},
		{
			name: "zero span between anchors",
			fit: AnchoredLinearFit{
				Pre:  Interval{Start: 100, End: 600},
				Post: AnchoredInterval{StartOffset: 950, EndOffset: 900},
			},
			wantErr: ErrDegenerateFit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fit.Correct(time, channel)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsSubjectFailure(err))
		})
	}
}

func TestRollingMedianCorrect(t *testing.T) {
	t.Run("constant series corrects to zero", func(t *testing.T) {
		time := linspace(0, 9, 10)
		channel := []float64{3, 3, 3, 3, 3, 3, 3, 3, 3, 3}

		out, err := RollingMedian{Window: 3}.Correct(time, channel)
		require.NoError(t, err)
		for i, v := range out {
			assert.Zero(t, v, "sample %d", i)
		}
	})

	t.Run("shrinking windows at the ends", func(t *testing.T) {
		time := linspace(0, 4, 5)
		channel := []float64{1, 2, 3, 4, 5}

		out, err := RollingMedian{Window: 3}.Correct(time, channel)
		require.NoError(t, err)
		// Ends see two-sample windows whose median is the midpoint.
		want := []float64{-0.5, 0, 0, 0, 0.5}
		for i := range want {
			assert.InDelta(t, want[i], out[i], 1e-12, "sample %d", i)
		}
	})

	t.Run("spike survives baseline removal", func(t *testing.T) {
		time := linspace(0, 8, 9)
		channel := []float64{10, 10, 10, 10, 16, 10, 10, 10, 10}

		out, err := RollingMedian{Window: 5}.Correct(time, channel)
		require.NoError(t, err)
		assert.InDelta(t, 6, out[4], 1e-12)
		assert.InDelta(t, 0, out[0], 1e-12)
		assert.InDelta(t, 0, out[8], 1e-12)
	})

	t.Run("window must be odd", func(t *testing.T) {
		time := linspace(0, 4, 5)
		channel := []float64{1, 2, 3, 4, 5}

		_, err := RollingMedian{Window: 4}.Correct(time, channel)
		assert.Error(t, err)
		_, err = RollingMedian{Window: 0}.Correct(time, channel)
		assert.Error(t, err)
	})
}
