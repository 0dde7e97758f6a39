// Package harness provides conformance testing for recorded sorting algorithms.
//
// The harness records a Lua algorithm over a known array, archives the
// recording in an in-memory store, replays the archived copy on a fresh
// engine and validates the result.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	source: ../algorithms/selection.lua   # or code: | ..., or algorithm + catalog
//	initial: [3, 1, 2]                    # or elements: 16 with seed: 7
//	run_id: test-run-selection
//	assertions:
//	  - type: sorted
//	  - type: action_count
//	    count: 11
//	  - type: trace_order
//	    keys: [i, minIndex, j]
//	  - type: final_highlight
//	    key: minIndex
//	    position: 2
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - sorted: The replayed array is in non-decreasing order
//   - final_state: The replayed array equals the given values
//   - action_count: The log holds exactly count actions
//   - swap_count: The log holds exactly count swaps
//   - trace_count: A key is traced exactly count times
//   - trace_contains: A key is traced at a position at least once
//   - trace_order: Keys are first traced in the given order
//   - final_highlight: A key rests at a position after replay
//   - keys: The registered cursor keys, in index order
//
// A scenario may set expect_error to require the run to fail; assertions then
// see the restored array and an empty trace.
//
// # Golden Files
//
// RunWithGolden compares the canonical JSON of the replayed trace against
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
