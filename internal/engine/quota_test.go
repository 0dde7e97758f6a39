package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestQuotaEnforcer_WithinLimit tests normal operation within quota.
func TestQuotaEnforcer_WithinLimit(t *testing.T) {
	q := NewQuotaEnforcer(10)

	for i := 0; i < 10; i++ {
		err := q.Check("run-1")
		assert.NoError(t, err, "action %d should be allowed", i+1)
	}

	assert.Equal(t, 10, q.Current())
	assert.Equal(t, 10, q.MaxActions())
}

// TestQuotaEnforcer_ExceedsLimit tests quota exceeded error.
func TestQuotaEnforcer_ExceedsLimit(t *testing.T) {
	q := NewQuotaEnforcer(5)

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Check("run-1"))
	}

	err := q.Check("run-1")
	require.Error(t, err)

	var actionsErr *ActionsExceededError
	require.ErrorAs(t, err, &actionsErr)
	assert.Equal(t, "run-1", actionsErr.RunID)
	assert.Equal(t, 6, actionsErr.Actions)
	assert.Equal(t, 5, actionsErr.Limit)
	assert.True(t, IsQuotaError(err))
}

// TestQuotaEnforcer_Disabled tests that a non-positive limit never trips.
func TestQuotaEnforcer_Disabled(t *testing.T) {
	for _, limit := range []int{0, -1} {
		q := NewQuotaEnforcer(limit)
		for i := 0; i < 10_000; i++ {
			require.NoError(t, q.Check("run-1"))
		}
	}
}

// TestQuotaEnforcer_Reset tests resetting the counter.
func TestQuotaEnforcer_Reset(t *testing.T) {
	q := NewQuotaEnforcer(5)

	for i := 0; i < 5; i++ {
		_ = q.Check("run-1")
	}
	assert.Equal(t, 5, q.Current())

	q.Reset()
	assert.Equal(t, 0, q.Current())

	for i := 0; i < 5; i++ {
		assert.NoError(t, q.Check("run-1"))
	}
}

// TestActionsExceededError_Error tests error message formatting.
func TestActionsExceededError_Error(t *testing.T) {
	err := &ActionsExceededError{
		RunID:   "run-abc",
		Actions: 1001,
		Limit:   1000,
	}

	assert.Equal(t, "run run-abc exceeded max actions quota: 1001 actions > 1000 limit", err.Error())
	assert.Equal(t, ErrCodeQuotaExceeded, err.Code())
}

// TestEngine_MaxActionsStopsRunawayAlgorithm tests the quota through a run.
func TestEngine_MaxActionsStopsRunawayAlgorithm(t *testing.T) {
	runaway := CodeRunnerFunc(func(_ context.Context, _ string, ec *ExecutionContext) error {
		for {
			if err := ec.TraceIndex("i", 0); err != nil {
				return err
			}
		}
	})
	e := New(runaway, WithMaxActions(3), WithRunIDGenerator(NewFixedGenerator("run-1")))
	require.NoError(t, e.Seed([]int{2, 1}))

	err := e.RunAlgorithm(context.Background(), "")
	require.Error(t, err)
	assert.True(t, IsAlgorithmFailure(err))
	assert.True(t, IsQuotaError(err))
	assert.True(t, IsActionsExceededError(err))
	assert.Equal(t, 0, e.Len(), "partial log must be discarded")
	assert.Equal(t, StateReady, e.State())
}
