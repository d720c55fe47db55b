package photometry

import (
	"errors"
)

// Sentinel errors for the degenerate numeric conditions the pipeline must
// surface instead of papering over with default values.
var (
	// ErrShape marks structurally unusable input: misaligned channels, too
	// few samples, unsorted or non-finite data.
	ErrShape = errors.New("unusable trace shape")

	// ErrEmptyInterval marks an interval that selects no samples of the
	// trace it is applied to.
	ErrEmptyInterval = errors.New("interval selects no samples")

	// ErrDegenerateFit marks a drift fit whose anchors span zero time, which
	// leaves the slope undefined.
	ErrDegenerateFit = errors.New("degenerate drift fit")

	// ErrConstantReference marks a reference channel with zero variance; the
	// artifact regression has no defined slope against it.
	ErrConstantReference = errors.New("reference channel is constant")

	// ErrNormalization marks a baseline that cannot support normalization:
	// too few samples, zero variance, or a zero mean for ΔF/F.
	ErrNormalization = errors.New("normalization unavailable")

	// ErrNoUsableTraces marks a cohort aggregation with zero usable
	// subjects.
	ErrNoUsableTraces = errors.New("no usable traces for aggregation")
)

// IsSubjectFailure reports whether err is one of the per-subject numeric
// failures that should skip the subject but keep the batch running.
func IsSubjectFailure(err error) bool {
	return errors.Is(err, ErrShape) ||
		errors.Is(err, ErrEmptyInterval) ||
		errors.Is(err, ErrDegenerateFit) ||
		errors.Is(err, ErrConstantReference) ||
		errors.Is(err, ErrNormalization)
}

// IsEmptyResult reports whether err only means there was nothing to
// aggregate, as opposed to a computation going wrong.
func IsEmptyResult(err error) bool {
	return errors.Is(err, ErrNoUsableTraces)
}
