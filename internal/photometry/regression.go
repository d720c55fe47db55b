package photometry

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// RemoveArtifact subtracts the motion component shared by both channels from
// the signal. The signal is regressed onto the reference by ordinary least
// squares and the mean-centered fit is removed:
//
//	corrected = signal - (fitted - mean(fitted))
//
// Centering keeps the signal's DC level intact, so only the co-varying
// artifact is taken out. A constant reference has no defined slope and is
// reported as ErrConstantReference, never as a silent zero-slope fit.
func RemoveArtifact(signal, reference []float64) ([]float64, error) {
	n := len(signal)
	if len(reference) != n {
		return nil, fmt.Errorf("%w: signal=%d reference=%d", ErrShape, n, len(reference))
	}
	if n < 2 {
		return nil, fmt.Errorf("%w: %d samples, regression needs at least 2", ErrShape, n)
	}
	if stat.Variance(reference, nil) == 0 {
		return nil, ErrConstantReference
	}

	alpha, beta := stat.LinearRegression(reference, signal, nil, false)

	fitted := make([]float64, n)
	for i, r := range reference {
		fitted[i] = alpha + beta*r
	}
	fittedMean := stat.Mean(fitted, nil)

	out := make([]float64, n)
	for i, s := range signal {
		out[i] = s - (fitted[i] - fittedMean)
	}
	return out, nil
}
