package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/soralvi/internal/ir"
)

// RunIDGenerator generates unique identifiers for algorithm runs.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type RunIDGenerator interface {
	Generate() string
}

// DefaultMaxActions is the default maximum number of actions one run may
// record before it is stopped.
const DefaultMaxActions = 1_000_000

// State is the lifecycle position of an Engine.
type State int

const (
	// StateIdle means no elements have been generated yet.
	StateIdle State = iota
	// StateReady means elements exist and nothing has been recorded.
	StateReady
	// StateRecording means an algorithm is executing.
	StateRecording
	// StateRecorded means a full log exists and no step has been replayed.
	StateRecorded
	// StateReplaying means some but not all actions have been replayed.
	StateReplaying
	// StateReplayed means every recorded action has been replayed.
	StateReplayed
)

var stateNames = [...]string{
	StateIdle:      "idle",
	StateReady:     "ready",
	StateRecording: "recording",
	StateRecorded:  "recorded",
	StateReplaying: "replaying",
	StateReplayed:  "replayed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Highlight is the latest traced position of one cursor, as seen at the
// current replay point.
type Highlight struct {
	KeyIndex int
	Key      string
	Position int
}

// Engine records one execution of a sorting algorithm and replays it one
// action at a time.
//
// Thread-safety: Engine is not safe for concurrent use. CreateNew,
// RunAlgorithm and Step must be serialized by the caller.
//
// INVARIANTS:
//   - After RunAlgorithm returns, with or without error, the working array
//     equals the pristine backup.
//   - The highlight set holds at most one entry per cursor key and only
//     reflects actions at indices below ActionIndex.
//   - ActionIndex never decreases except on CreateNew, RunAlgorithm or Load.
type Engine struct {
	runner   CodeRunner
	runIDGen RunIDGenerator
	rng      Rand

	keys  *KeyRegistry
	log   *ActionLog
	array *ArrayState

	highlights  map[int]ir.TraceAction
	actionIndex int

	recording bool
	recorded  bool
	runID     string
	source    string

	// Quota enforcement
	maxActions int // Maximum actions per run (default: DefaultMaxActions)
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithMaxActions sets the maximum number of actions a single run may record.
//
// Default: DefaultMaxActions.
// A value <= 0 disables the limit.
func WithMaxActions(maxActions int) EngineOption {
	return func(e *Engine) {
		e.maxActions = maxActions
	}
}

// WithRand sets the randomness source used by CreateNew.
// Use a seeded *rand.Rand for reproducible permutations.
func WithRand(rng Rand) EngineOption {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithRunIDGenerator sets the generator for run identifiers.
//
// Default: UUIDv7Generator.
func WithRunIDGenerator(gen RunIDGenerator) EngineOption {
	return func(e *Engine) {
		e.runIDGen = gen
	}
}

// New creates an idle Engine that executes algorithms through runner.
func New(runner CodeRunner, opts ...EngineOption) *Engine {
	e := &Engine{
		runner:     runner,
		runIDGen:   UUIDv7Generator{},
		keys:       NewKeyRegistry(),
		log:        NewActionLog(),
		highlights: make(map[int]ir.TraceAction),
		maxActions: DefaultMaxActions,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.array = NewArrayState(e.rng)
	return e
}

// CreateNew discards every recorded and replayed state and generates a fresh
// random permutation of 1..n.
//
// Returns an INVALID_ARGUMENT RuntimeError if n <= 0. The engine is left
// untouched in that case.
func (e *Engine) CreateNew(n int) error {
	if n <= 0 {
		return NewInvalidArgumentError(n)
	}
	if e.recording {
		return errRecordingInProgress("CreateNew")
	}

	e.resetRun()
	if _, err := e.array.Generate(n); err != nil {
		return err
	}

	slog.Debug("elements generated", "elements", n)
	return nil
}

// Seed is like CreateNew but uses explicit values instead of a random
// permutation. Values need not be a permutation of 1..n.
func (e *Engine) Seed(values []int) error {
	if len(values) == 0 {
		return NewInvalidArgumentError(0)
	}
	if e.recording {
		return errRecordingInProgress("Seed")
	}

	e.resetRun()
	return e.array.Load(values)
}

// RunAlgorithm executes source once through the CodeRunner, recording every
// instrumentation call.
//
// Before the algorithm starts the working array is reset to the pristine
// backup and the previous log is discarded. When the runner returns, whether
// it succeeded or not, the array is restored to the backup again and the
// replay cursor is rewound to 0.
//
// On success the engine is in StateRecorded. On failure the partial log is
// discarded, the engine is back in StateReady, and the returned error is an
// ALGORITHM_FAILED RuntimeError wrapping the runner's error.
//
// Returns a NOT_READY RuntimeError if no elements have been generated.
func (e *Engine) RunAlgorithm(ctx context.Context, source string) error {
	if !e.array.HasBackup() {
		return NewNotReadyError("RunAlgorithm")
	}
	if e.recording {
		return errRecordingInProgress("RunAlgorithm")
	}

	e.array.RestoreFromBackup()
	e.keys.Reset()
	e.log.Reset()
	e.resetReplay()
	e.recorded = false
	e.runID = ""
	e.source = ""

	runID := e.runIDGen.Generate()
	ec := newExecutionContext(ctx, runID, e)
	e.recording = true

	slog.Debug("algorithm run starting",
		"run_id", runID,
		"elements", e.array.Len(),
	)

	completed := false
	defer func() {
		ec.close()
		e.recording = false
		e.array.RestoreFromBackup()
		e.resetReplay()
		if !completed {
			e.keys.Reset()
			e.log.Reset()
		}
	}()

	if err := e.runner.Run(ctx, source, ec); err != nil {
		recorded := e.log.Len()
		slog.Error("algorithm run failed",
			"run_id", runID,
			"recorded_actions", recorded,
			"error", err,
		)
		return NewAlgorithmError(runID, recorded, err)
	}

	completed = true
	e.recorded = true
	e.runID = runID
	e.source = source

	slog.Info("algorithm recorded",
		"run_id", runID,
		"actions", e.log.Len(),
		"keys", e.keys.Len(),
	)
	return nil
}

// Step replays the next recorded action.
//
// A trace overwrites the highlight for its cursor. A swap is applied to the
// working array. Returns false, with no side effects, once every action has
// been replayed or when nothing has been recorded.
func (e *Engine) Step() bool {
	if e.recording || e.actionIndex >= e.log.Len() {
		return false
	}

	a := e.log.actions[e.actionIndex]
	if !applyReplayed(e, a) {
		slog.Warn("replayed action skipped",
			"run_id", e.runID,
			"action_index", e.actionIndex,
			"action", fmt.Sprint(a),
		)
	}
	e.actionIndex++
	return true
}

// Load puts the engine into StateRecorded from an exported recording.
// Everything the engine held before is discarded.
//
// Trace actions must reference a key present in rec.Keys. Swap positions are
// not validated here; out-of-range swaps are skipped during replay.
func (e *Engine) Load(rec ir.Recording) error {
	if e.recording {
		return errRecordingInProgress("Load")
	}
	if len(rec.Initial) == 0 {
		return NewInvalidArgumentError(0)
	}

	keys := NewKeyRegistry()
	if err := keys.load(rec.Keys); err != nil {
		return err
	}
	for i, a := range rec.Actions {
		switch act := a.(type) {
		case ir.TraceAction:
			if act.KeyIndex < 0 || act.KeyIndex >= keys.Len() {
				return &RuntimeError{
					Code:    ErrCodeInvalidArgument,
					Message: fmt.Sprintf("action %d references unknown cursor key %d", i, act.KeyIndex),
					RunID:   rec.RunID,
				}
			}
		case ir.SwapAction:
		default:
			return &RuntimeError{
				Code:    ErrCodeInvalidArgument,
				Message: fmt.Sprintf("action %d has unsupported type %T", i, a),
				RunID:   rec.RunID,
			}
		}
	}

	e.resetRun()
	if err := e.array.Load(rec.Initial); err != nil {
		return err
	}
	e.keys = keys
	for _, a := range rec.Actions {
		e.log.Append(a)
	}
	e.recorded = true
	e.runID = rec.RunID
	e.source = rec.Source

	slog.Debug("recording loaded",
		"run_id", rec.RunID,
		"actions", e.log.Len(),
	)
	return nil
}

// Recording exports the current recorded run.
// Returns a NOT_READY RuntimeError if no run has been recorded.
func (e *Engine) Recording() (ir.Recording, error) {
	if !e.recorded {
		return ir.Recording{}, &RuntimeError{
			Code:    ErrCodeNotReady,
			Message: "no recorded run; call RunAlgorithm first",
		}
	}

	rec := ir.Recording{
		RunID:   e.runID,
		Source:  e.source,
		Initial: e.array.Backup(),
		Keys:    e.keys.Keys(),
		Actions: e.log.Actions(),
	}
	id, err := ir.RecordingID(rec)
	if err != nil {
		return ir.Recording{}, fmt.Errorf("compute recording id: %w", err)
	}
	rec.ID = id
	return rec, nil
}

// State reports the current lifecycle position.
func (e *Engine) State() State {
	switch {
	case !e.array.HasBackup():
		return StateIdle
	case e.recording:
		return StateRecording
	case !e.recorded:
		return StateReady
	case e.actionIndex == 0:
		return StateRecorded
	case e.actionIndex < e.log.Len():
		return StateReplaying
	default:
		return StateReplayed
	}
}

// Snapshot returns a copy of the working array.
func (e *Engine) Snapshot() []int {
	return e.array.Snapshot()
}

// Initial returns a copy of the pristine array replay starts from.
func (e *Engine) Initial() []int {
	return e.array.Backup()
}

// NumberOfElements returns the working array length.
func (e *Engine) NumberOfElements() int {
	return e.array.Len()
}

// ActionIndex returns how many actions have been replayed.
func (e *Engine) ActionIndex() int {
	return e.actionIndex
}

// Len returns the number of recorded actions.
func (e *Engine) Len() int {
	return e.log.Len()
}

// Action returns the recorded action at index i.
func (e *Engine) Action(i int) (ir.Action, error) {
	return e.log.At(i)
}

// Keys returns the cursor keys of the current run in index order.
func (e *Engine) Keys() []ir.KeyMapping {
	return e.keys.Keys()
}

// RunID returns the identifier of the recorded run, or "" if none.
func (e *Engine) RunID() string {
	return e.runID
}

// Highlights returns one entry per cursor traced so far in the replay,
// ordered by key index.
func (e *Engine) Highlights() []Highlight {
	out := make([]Highlight, 0, len(e.highlights))
	for idx := range e.keys.Len() {
		t, ok := e.highlights[idx]
		if !ok {
			continue
		}
		name, _ := e.keys.Name(idx)
		out = append(out, Highlight{KeyIndex: idx, Key: name, Position: t.Position})
	}
	return out
}

// IsSorted reports whether the working array is in non-decreasing order.
func (e *Engine) IsSorted() bool {
	return slices.IsSorted(e.array.working)
}

func (e *Engine) resetRun() {
	e.keys.Reset()
	e.log.Reset()
	e.resetReplay()
	e.recorded = false
	e.runID = ""
	e.source = ""
}

func (e *Engine) resetReplay() {
	e.actionIndex = 0
	clear(e.highlights)
}

func errRecordingInProgress(op string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeNotReady,
		Message: fmt.Sprintf("%s called while an algorithm is recording", op),
	}
}
