package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", formatEvent(event))
		}
	}

	return buf.String()
}

func formatEvent(event TraceEvent) string {
	if event.Type == "swap" {
		return fmt.Sprintf("[%d] swap %d %d -> %v", event.Seq, event.A, event.B, event.Values)
	}
	return fmt.Sprintf("[%d] trace %s=%d", event.Seq, event.Key, event.Position)
}

// assertSorted checks the replayed array is in non-decreasing order.
func assertSorted(result *Result, _ Assertion) error {
	if slices.IsSorted(result.Final) {
		return nil
	}
	return &AssertionError{
		Type:     AssertSorted,
		Expected: "array sorted in non-decreasing order",
		Actual:   fmt.Sprintf("%v", result.Final),
		Trace:    result.Trace,
	}
}

// assertFinalState checks the replayed array equals the expected values.
func assertFinalState(result *Result, assertion Assertion) error {
	if slices.Equal(result.Final, assertion.Values) {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalState,
		Expected: fmt.Sprintf("%v", assertion.Values),
		Actual:   fmt.Sprintf("%v", result.Final),
		Trace:    result.Trace,
	}
}

// assertActionCount checks the total number of recorded actions.
func assertActionCount(result *Result, assertion Assertion) error {
	if len(result.Trace) == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertActionCount,
		Expected: fmt.Sprintf("%d actions", assertion.Count),
		Actual:   fmt.Sprintf("%d actions", len(result.Trace)),
		Trace:    result.Trace,
	}
}

// assertSwapCount checks the number of recorded swaps.
func assertSwapCount(result *Result, assertion Assertion) error {
	count := 0
	for _, event := range result.Trace {
		if event.Type == "swap" {
			count++
		}
	}
	if count == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertSwapCount,
		Expected: fmt.Sprintf("%d swaps", assertion.Count),
		Actual:   fmt.Sprintf("%d swaps", count),
		Trace:    result.Trace,
	}
}

// assertTraceCount checks the key is traced exactly the specified number of times.
func assertTraceCount(result *Result, assertion Assertion) error {
	count := 0
	for _, event := range result.Trace {
		if event.Type == "trace" && event.Key == assertion.Key {
			count++
		}
	}
	if count == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%d traces of %s", assertion.Count, assertion.Key),
		Actual:   fmt.Sprintf("%d traces", count),
		Trace:    result.Trace,
	}
}

// assertTraceContains checks the key is traced at the position at least once.
func assertTraceContains(result *Result, assertion Assertion) error {
	for _, event := range result.Trace {
		if event.Type == "trace" && event.Key == assertion.Key && event.Position == assertion.Position {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("trace %s=%d", assertion.Key, assertion.Position),
		Actual:   "not found in trace",
		Trace:    result.Trace,
	}
}

// assertTraceOrder checks keys are first traced in the specified order.
// Keys don't need to be consecutive (intervening actions are allowed).
func assertTraceOrder(result *Result, assertion Assertion) error {
	// Step 1: Find first position of each expected key
	positions := make(map[string]int)
	for _, event := range result.Trace {
		if event.Type != "trace" {
			continue
		}
		if _, seen := positions[event.Key]; !seen {
			positions[event.Key] = event.Seq
		}
	}

	// Step 2: Verify all keys found
	for _, key := range assertion.Keys {
		if _, ok := positions[key]; !ok {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all keys traced: %v", assertion.Keys),
				Actual:   fmt.Sprintf("missing key: %s", key),
				Trace:    result.Trace,
			}
		}
	}

	// Step 3: Verify order
	for i := 1; i < len(assertion.Keys); i++ {
		prev := assertion.Keys[i-1]
		curr := assertion.Keys[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("keys first traced in order: %v", assertion.Keys),
				Actual: fmt.Sprintf("%s (seq %d) should be before %s (seq %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: result.Trace,
			}
		}
	}

	return nil
}

// assertFinalHighlight checks where the key's cursor rests after replay.
func assertFinalHighlight(result *Result, assertion Assertion) error {
	pos, ok := result.Highlights[assertion.Key]
	if ok && pos == assertion.Position {
		return nil
	}
	actual := "not highlighted"
	if ok {
		actual = fmt.Sprintf("%s=%d", assertion.Key, pos)
	}
	return &AssertionError{
		Type:     AssertFinalHighlight,
		Expected: fmt.Sprintf("%s=%d", assertion.Key, assertion.Position),
		Actual:   actual,
	}
}

// assertKeys checks the registered cursor keys, in index order.
func assertKeys(result *Result, assertion Assertion) error {
	expected := assertion.Keys
	if expected == nil {
		expected = []string{}
	}
	if slices.Equal(result.Keys, expected) {
		return nil
	}
	return &AssertionError{
		Type:     AssertKeys,
		Expected: fmt.Sprintf("%v", expected),
		Actual:   fmt.Sprintf("%v", result.Keys),
	}
}

var assertionFuncs = map[string]func(*Result, Assertion) error{
	AssertSorted:         assertSorted,
	AssertFinalState:     assertFinalState,
	AssertActionCount:    assertActionCount,
	AssertSwapCount:      assertSwapCount,
	AssertTraceCount:     assertTraceCount,
	AssertTraceContains:  assertTraceContains,
	AssertTraceOrder:     assertTraceOrder,
	AssertFinalHighlight: assertFinalHighlight,
	AssertKeys:           assertKeys,
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		fn, ok := assertionFuncs[a.Type]
		if !ok {
			errs = append(errs, fmt.Sprintf("assertion %d: unknown assertion type: %s", i, a.Type))
			continue
		}
		if err := fn(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %s", i, err.Error()))
		}
	}
	return errs
}
