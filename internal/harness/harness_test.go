package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_GoldenScenarios(t *testing.T) {
	for _, name := range []string{"selection_three", "bubble_pair"} {
		t.Run(name, func(t *testing.T) {
			result, err := RunWithGolden(t, loadTestScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_AllScenariosPass(t *testing.T) {
	scenarios, err := LoadScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.Len(t, scenarios, 4)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_SelectionResult(t *testing.T) {
	result, err := Run(loadTestScenario(t, "selection_three"))
	require.NoError(t, err)

	assert.Equal(t, "test-run-selection", result.RunID)
	assert.Len(t, result.RecordingID, 64)
	assert.Equal(t, []int{3, 1, 2}, result.Initial)
	assert.Equal(t, []int{1, 2, 3}, result.Final)
	assert.Equal(t, map[string]int{"i": 1, "minIndex": 2, "j": 2}, result.Highlights)
	assert.Equal(t, []int{1, 3, 2}, result.Trace[5].Values)
}

func TestRun_GeneratedArrayIsDeterministic(t *testing.T) {
	s := loadTestScenario(t, "insertion_generated")

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Len(t, first.Initial, 12)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, first.Initial)
	assert.Equal(t, first.Initial, second.Initial)
	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, "test-run-default", first.RunID)
}

func TestRun_ExpectedFailure(t *testing.T) {
	result, err := Run(loadTestScenario(t, "failing_algorithm"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Contains(t, result.RunError, "ALGORITHM_FAILED")
	assert.Contains(t, result.RunError, "boom")
	assert.Empty(t, result.Trace)
	assert.Equal(t, []int{2, 1, 3}, result.Final)
}

func TestRun_ExpectedFailureThatSucceeds(t *testing.T) {
	s := &Scenario{
		Name:        "no_failure",
		Description: "expects an error that never comes",
		Code:        "function sort(a) end",
		Initial:     []int{1},
		ExpectError: "boom",
		Assertions:  []Assertion{{Type: AssertSorted}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "run succeeded")
}

func TestRun_UnexpectedFailure(t *testing.T) {
	s := &Scenario{
		Name:        "unexpected",
		Description: "fails without expect_error",
		Code:        `function sort(a) error("nope") end`,
		Initial:     []int{1, 2},
		Assertions:  []Assertion{{Type: AssertSorted}},
	}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record algorithm")
}

func TestRun_FailingAssertions(t *testing.T) {
	s := &Scenario{
		Name:        "wrong_expectations",
		Description: "every assertion is wrong",
		Code: `function sort(a)
  soralvi.traceIndex("i", 0)
end`,
		Initial: []int{2, 1},
		Assertions: []Assertion{
			{Type: AssertSorted},
			{Type: AssertActionCount, Count: 3},
			{Type: AssertFinalHighlight, Key: "i", Position: 1},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "assertion 0")
	assert.Contains(t, result.Errors[1], "1 actions")
	assert.Contains(t, result.Errors[2], "i=0")
}

func TestRun_MaxActions(t *testing.T) {
	s := &Scenario{
		Name:        "runaway",
		Description: "quota stops an endless loop",
		Code: `function sort(a)
  while true do soralvi.traceIndex("i", 0) end
end`,
		Initial:     []int{1},
		MaxActions:  10,
		ExpectError: "exceeded max actions quota",
		Assertions:  []Assertion{{Type: AssertActionCount, Count: 0}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunContext_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &Scenario{
		Name:        "canceled",
		Description: "context canceled before the first instrumentation call",
		Code:        `function sort(a) soralvi.traceIndex("i", 0) end`,
		Initial:     []int{1},
		ExpectError: "context canceled",
		Assertions:  []Assertion{{Type: AssertActionCount, Count: 0}},
	}

	result, err := RunContext(ctx, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_MissingCatalogEntry(t *testing.T) {
	s := &Scenario{
		Name:        "missing",
		Description: "unknown catalog entry",
		Algorithm:   "quick",
		Catalog:     filepath.Join("testdata", "catalog"),
		Initial:     []int{1},
		Assertions:  []Assertion{{Type: AssertSorted}},
	}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `algorithm "quick" not in catalog`)
}
