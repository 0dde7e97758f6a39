package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/soralvi/internal/catalog"
	"github.com/roach88/soralvi/internal/engine"
	"github.com/roach88/soralvi/internal/ir"
	"github.com/roach88/soralvi/internal/logging"
	"github.com/roach88/soralvi/internal/luarunner"
	"github.com/roach88/soralvi/internal/store"
	"github.com/roach88/soralvi/internal/testutil"
)

// defaultSeed seeds array generation when a scenario does not set one.
const defaultSeed = 1

// Harness is the test execution engine.
// It runs scenarios with a seeded array source and a fixed run ID.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Resolve the Lua source
// 2. Seed or generate the array and record the algorithm
// 3. Archive the recording and read it back
// 4. Replay the archived recording on a second engine
// 5. Evaluate assertions against the replay
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context bounding the recording.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	source, err := resolveSource(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	seed := scenario.Seed
	if seed == 0 {
		seed = defaultSeed
	}
	opts := []engine.EngineOption{
		engine.WithRand(testutil.NewSeededRand(seed)),
		engine.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(scenario.RunID)),
	}
	if scenario.MaxActions > 0 {
		opts = append(opts, engine.WithMaxActions(scenario.MaxActions))
	}

	h := &Harness{
		store:  st,
		engine: engine.New(luarunner.New(), opts...),
		logger: logging.NewNop(),
	}

	if len(scenario.Initial) > 0 {
		err = h.engine.Seed(scenario.Initial)
	} else {
		err = h.engine.CreateNew(scenario.Elements)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to prepare array: %w", err)
	}

	result := NewResult()
	result.Initial = h.engine.Initial()

	runErr := h.engine.RunAlgorithm(ctx, source)
	switch {
	case runErr != nil && scenario.ExpectError == "":
		return nil, fmt.Errorf("failed to record algorithm: %w", runErr)
	case runErr != nil:
		result.RunError = runErr.Error()
		if !strings.Contains(runErr.Error(), scenario.ExpectError) {
			result.AddError(fmt.Sprintf("run error %q does not contain %q", runErr.Error(), scenario.ExpectError))
		}
		// A failed run leaves the pristine array and no recording.
		result.Final = h.engine.Snapshot()
	case scenario.ExpectError != "":
		result.AddError(fmt.Sprintf("run succeeded, expected error containing %q", scenario.ExpectError))
	}

	if runErr == nil {
		if err := h.replayArchived(ctx, result); err != nil {
			return nil, err
		}
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"run_id", result.RunID,
		"actions", len(result.Trace),
		"pass", result.Pass,
	)
	return result, nil
}

// replayArchived writes the recording to the store, reads it back and replays
// it on a fresh engine, filling result's trace and final state.
func (h *Harness) replayArchived(ctx context.Context, result *Result) error {
	rec, err := h.engine.Recording()
	if err != nil {
		return fmt.Errorf("failed to export recording: %w", err)
	}
	if _, err := h.store.WriteRecording(ctx, rec); err != nil {
		return fmt.Errorf("failed to archive recording: %w", err)
	}
	archived, err := h.store.ReadRecording(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to read archived recording: %w", err)
	}

	replay := engine.New(luarunner.New())
	if err := replay.Load(archived); err != nil {
		return fmt.Errorf("failed to load archived recording: %w", err)
	}

	result.RunID = archived.RunID
	result.RecordingID = archived.ID
	for _, k := range archived.Keys {
		result.Keys = append(result.Keys, k.Key)
	}

	for i := 0; replay.Step(); i++ {
		a, err := replay.Action(i)
		if err != nil {
			return fmt.Errorf("failed to read action %d: %w", i, err)
		}
		switch act := a.(type) {
		case ir.TraceAction:
			name, _ := archived.KeyName(act.KeyIndex)
			result.AddTrace(name, act.Position)
		case ir.SwapAction:
			result.AddSwap(act.PositionA, act.PositionB, replay.Snapshot())
		}
	}

	result.Final = replay.Snapshot()
	for _, hl := range replay.Highlights() {
		result.Highlights[hl.Key] = hl.Position
	}

	h.logger.Info("recording replayed",
		"run_id", archived.RunID,
		"recording_id", archived.ID,
		"actions", replay.Len(),
	)
	return nil
}

// resolveSource returns the Lua the scenario selects.
func resolveSource(s *Scenario) (string, error) {
	switch {
	case s.Code != "":
		return s.Code, nil
	case s.Source != "":
		data, err := os.ReadFile(s.Source)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		result, errs := catalog.Load(s.Catalog, catalog.LoadModeFailFast)
		if len(errs) > 0 {
			return "", errs[0]
		}
		alg, ok := result.Find(s.Algorithm)
		if !ok {
			return "", fmt.Errorf("algorithm %q not in catalog %s", s.Algorithm, s.Catalog)
		}
		return alg.ReadSource()
	}
}
