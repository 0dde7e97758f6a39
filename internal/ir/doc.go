// Package ir provides the recorded-action types shared by the engine, the
// trace archive and the harness.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Action is a closed sum type: only TraceAction and SwapAction implement it
//   - Actions are values and never mutated after they are appended to a log
//   - All JSON tags use snake_case
//   - Ordering is positional (log index), never wall-clock time
package ir
