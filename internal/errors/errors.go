// Package errors defines the batch-level error taxonomy: per-subject stage
// failures and their thread-safe collection across a run. Numeric sentinel
// errors live with the computation in internal/photometry; this package
// carries the bookkeeping that lets one bad recording skip cleanly while the
// rest of the batch completes.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Stage names for SubjectError, in pipeline order.
const (
	StageIngest    = "ingest"
	StageDrift     = "drift"
	StageArtifact  = "artifact"
	StageNormalize = "normalize"
	StageMetrics   = "metrics"
	StageExport    = "export"
	StageAggregate = "aggregate"
)

// SubjectError records which subject failed, at which stage, and why. It
// wraps the underlying cause so sentinel checks with errors.Is still work
// through it.
type SubjectError struct {
	Subject string
	Stage   string
	Err     error
}

// NewSubjectError creates a stage failure record for a subject.
func NewSubjectError(subject, stage string, err error) *SubjectError {
	return &SubjectError{Subject: subject, Stage: stage, Err: err}
}

// Error implements the error interface.
func (e *SubjectError) Error() string {
	return fmt.Sprintf("subject %s: %s: %v", e.Subject, e.Stage, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *SubjectError) Unwrap() error {
	return e.Err
}

// AsSubjectError unwraps err to a SubjectError if one is in its chain.
func AsSubjectError(err error) (*SubjectError, bool) {
	var se *SubjectError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Collector accumulates per-subject failures from concurrent workers.
// The zero value is ready to use.
type Collector struct {
	mu   sync.Mutex
	errs []*SubjectError
}

// Add records a failure. Nil errors are ignored.
func (c *Collector) Add(e *SubjectError) {
	if e == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, e)
}

// Len returns the number of recorded failures.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errs)
}

// All returns the recorded failures ordered by subject, then stage.
func (c *Collector) All() []*SubjectError {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*SubjectError, len(c.errs))
	copy(out, c.errs)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		return out[i].Stage < out[j].Stage
	})
	return out
}

// Subjects returns the distinct subjects with at least one failure, sorted.
func (c *Collector) Subjects() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := make(map[string]bool, len(c.errs))
	var subjects []string
	for _, e := range c.errs {
		if !seen[e.Subject] {
			seen[e.Subject] = true
			subjects = append(subjects, e.Subject)
		}
	}
	sort.Strings(subjects)
	return subjects
}
