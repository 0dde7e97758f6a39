// Package engine implements the soralvi trace-and-replay engine.
//
// The engine runs a user-written sorting algorithm exactly once, recording
// every instrumentation call as an immutable action, then replays the log
// one action per Step so a visualizer can animate it at whatever pace it
// chooses.
//
// ARCHITECTURE:
//
// Record Phase:
// RunAlgorithm hands a fresh ExecutionContext to the injected CodeRunner.
// 1. traceIndex(name, i) resolves name through the KeyRegistry and appends a
// TraceAction. The array is not touched.
// 2. swapValues(a, b) applies the swap to the live array, then appends a
// SwapAction, so the algorithm's own comparisons see post-swap values.
// 3. When the runner returns (or fails) the working array is restored from
// the pristine backup.
//
// Replay Phase:
// Step reads the next action and applies it without recording:
//
//	[TraceAction] → highlights[key] = action   (overwrite, one per cursor)
//	[SwapAction]  → array.Swap(a, b)
//
// Once the log is exhausted Step returns false and changes nothing, no
// matter how often it is called.
//
// ## Why Replay Reproduces the Run
//
// The log is written in program order and recording starts from the same
// backup that replay starts from. Replaying every swap against that backup
// therefore reproduces the array the algorithm saw at each point.
//
//	Initial  [3, 1, 2]
//	Record   swapValues(0, 2) → live [2, 1, 3], log [swap(0, 2)]
//	Restore  [3, 1, 2]
//	Step()   → [2, 1, 3], true
//	Step()   → false
//
// Traces are opaque while recording: their position is not bounds-checked.
// Renderers must clamp or skip highlights that fall outside the array.
//
// Thread-safety: the engine is single-threaded and synchronous. Pacing of
// Step calls belongs to the caller (see internal/playback).
package engine
