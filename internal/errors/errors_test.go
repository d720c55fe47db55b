package errors

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectErrorWrapsCause(t *testing.T) {
	cause := errors.New("pre anchor selects no samples")
	se := NewSubjectError("965", StageDrift, cause)

	assert.Equal(t, "subject 965: drift: pre anchor selects no samples", se.Error())
	assert.ErrorIs(t, se, cause, "sentinel checks must see through the wrapper")

	wrapped := fmt.Errorf("processing %s: %w", "965", se)
	assert.ErrorIs(t, wrapped, cause)
}

func TestAsSubjectError(t *testing.T) {
	se := NewSubjectError("981", StageNormalize, errors.New("zero variance"))

	got, ok := AsSubjectError(se)
	require.True(t, ok)
	assert.Equal(t, se, got)

	got, ok = AsSubjectError(fmt.Errorf("batch: %w", se))
	require.True(t, ok)
	assert.Equal(t, "981", got.Subject)
	assert.Equal(t, StageNormalize, got.Stage)

	_, ok = AsSubjectError(errors.New("not a stage failure"))
	assert.False(t, ok)
}

func TestCollectorOrdersFailures(t *testing.T) {
	var c Collector
	c.Add(NewSubjectError("981", StageIngest, errors.New("no rows")))
	c.Add(NewSubjectError("965", StageNormalize, errors.New("zero variance")))
	c.Add(NewSubjectError("965", StageDrift, errors.New("empty anchor")))
	c.Add(nil)

	assert.Equal(t, 3, c.Len(), "nil entries are not recorded")

	all := c.All()
	require.Len(t, all, 3)
	assert.Equal(t, "965", all[0].Subject)
	assert.Equal(t, StageDrift, all[0].Stage)
	assert.Equal(t, "965", all[1].Subject)
	assert.Equal(t, StageNormalize, all[1].Stage)
	assert.Equal(t, "981", all[2].Subject)

	assert.Equal(t, []string{"965", "981"}, c.Subjects())
}

func TestCollectorZeroValue(t *testing.T) {
	var c Collector
	assert.Zero(t, c.Len())
	assert.Empty(t, c.All())
	assert.Empty(t, c.Subjects())
}

func TestCollectorConcurrentAdd(t *testing.T) {
	var c Collector
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Add(NewSubjectError(fmt.Sprintf("m%02d", n), StageExport, errors.New("disk full")))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 32, c.Len())
	assert.Len(t, c.Subjects(), 32)
}
