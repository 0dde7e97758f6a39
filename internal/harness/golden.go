package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/soralvi/internal/ir"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string
	RunID        string
	Initial      []int
	Keys         []string
	Trace        []TraceEvent
	Final        []int
}

// NewTraceSnapshot builds the snapshot of a scenario result.
func NewTraceSnapshot(name string, result *Result) TraceSnapshot {
	return TraceSnapshot{
		ScenarioName: name,
		RunID:        result.RunID,
		Initial:      result.Initial,
		Keys:         result.Keys,
		Trace:        result.Trace,
		Final:        result.Final,
	}
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles IR types and primitives.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"seq":  event.Seq,
			"type": event.Type,
		}
		if event.Type == "swap" {
			eventMap["a"] = event.A
			eventMap["b"] = event.B
			eventMap["values"] = event.Values
		} else {
			eventMap["key"] = event.Key
			eventMap["position"] = event.Position
		}
		traceList[i] = eventMap
	}

	keys := s.Keys
	if keys == nil {
		keys = []string{}
	}
	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"initial":       s.Initial,
		"keys":          keys,
		"trace":         traceList,
		"final":         s.Final,
	}
	if s.RunID != "" {
		result["run_id"] = s.RunID
	}
	return result
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s *TraceSnapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// Golden files live in a "golden" directory beside the scenarios they
// belong to, one <scenario>.golden per scenario.
const (
	goldenDir    = "golden"
	goldenSuffix = ".golden"
)

// GoldenPath returns the golden file of the scenario defined in scenarioFile.
func GoldenPath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), goldenDir, name+goldenSuffix)
}

func goldenBytes(scenarioName string, result *Result) ([]byte, error) {
	snapshot := NewTraceSnapshot(scenarioName, result)
	data, err := snapshot.MarshalCanonical()
	if err != nil {
		return nil, fmt.Errorf("marshal trace of %s: %w", scenarioName, err)
	}
	return data, nil
}

// UpdateGolden writes the trace of result to path, creating its directory.
func UpdateGolden(path, scenarioName string, result *Result) error {
	data, err := goldenBytes(scenarioName, result)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create golden directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// MatchGolden reports whether the trace of result equals the golden file at
// path. A missing file is an error satisfying errors.Is(err, fs.ErrNotExist).
func MatchGolden(path, scenarioName string, result *Result) (bool, error) {
	want, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	got, err := goldenBytes(scenarioName, result)
	if err != nil {
		return false, err
	}
	return bytes.Equal(want, got), nil
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := goldenBytes(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(filepath.Join("testdata", goldenDir)),
		goldie.WithNameSuffix(goldenSuffix),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
