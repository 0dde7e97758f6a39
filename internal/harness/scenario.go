package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// A scenario records one algorithm over a known array, replays the recording
// and asserts on the resulting trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Exactly one of Source, Code and Algorithm selects the Lua to run.
	//
	// Source is a path to a .lua file, relative to the scenario file.
	Source string `yaml:"source,omitempty"`

	// Code is inline Lua.
	Code string `yaml:"code,omitempty"`

	// Algorithm names an entry of the CUE catalog at Catalog.
	Algorithm string `yaml:"algorithm,omitempty"`

	// Catalog is the catalog directory, relative to the scenario file.
	// Required when Algorithm is set.
	Catalog string `yaml:"catalog,omitempty"`

	// Initial is the array to record over. When empty, Elements values are
	// generated from Seed instead.
	Initial []int `yaml:"initial,omitempty"`

	// Elements is the size of the generated array (used when Initial is empty).
	Elements int `yaml:"elements,omitempty"`

	// Seed drives array generation. Defaults to 1.
	Seed uint64 `yaml:"seed,omitempty"`

	// MaxActions overrides the engine's action quota when positive.
	MaxActions int `yaml:"max_actions,omitempty"`

	// ExpectError, when set, requires the run to fail with an error whose
	// message contains this text.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assertions validate the recording and the replayed state.
	Assertions []Assertion `yaml:"assertions"`

	// RunID is an optional fixed run ID for deterministic tests.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`
}

// Assertion validates the trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "sorted": The replayed array is in non-decreasing order
	// - "final_state": The replayed array equals Values
	// - "action_count": The log holds exactly Count actions
	// - "swap_count": The log holds exactly Count swaps
	// - "trace_count": Key is traced exactly Count times
	// - "trace_contains": Key is traced at Position at least once
	// - "trace_order": Keys are first traced in the given order
	// - "final_highlight": Key is highlighted at Position after replay
	// - "keys": The registered cursor keys equal Keys, in index order
	Type string `yaml:"type"`

	// Key is the cursor key (used by trace_count, trace_contains, final_highlight).
	Key string `yaml:"key,omitempty"`

	// Position is the expected cursor position (used by trace_contains, final_highlight).
	Position int `yaml:"position,omitempty"`

	// Count is the expected number of occurrences.
	Count int `yaml:"count,omitempty"`

	// Keys is the expected key order (used by trace_order, keys).
	Keys []string `yaml:"keys,omitempty"`

	// Values is the expected final array (used by final_state).
	Values []int `yaml:"values,omitempty"`
}

// Assertion type constants.
const (
	AssertSorted         = "sorted"
	AssertFinalState     = "final_state"
	AssertActionCount    = "action_count"
	AssertSwapCount      = "swap_count"
	AssertTraceCount     = "trace_count"
	AssertTraceContains  = "trace_contains"
	AssertTraceOrder     = "trace_order"
	AssertFinalHighlight = "final_highlight"
	AssertKeys           = "keys"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
//
// Source and Catalog paths are resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	if scenario.Source != "" && !filepath.IsAbs(scenario.Source) {
		scenario.Source = filepath.Join(base, scenario.Source)
	}
	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) {
		scenario.Catalog = filepath.Join(base, scenario.Catalog)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every .yaml file in dir, in file name order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	selectors := 0
	for _, set := range []bool{s.Source != "", s.Code != "", s.Algorithm != ""} {
		if set {
			selectors++
		}
	}
	if selectors != 1 {
		return fmt.Errorf("exactly one of source, code and algorithm is required")
	}
	if s.Algorithm != "" && s.Catalog == "" {
		return fmt.Errorf("catalog is required with algorithm")
	}

	if s.Source != "" {
		if _, err := os.Stat(s.Source); os.IsNotExist(err) {
			return fmt.Errorf("source file not found: %s", s.Source)
		}
	}

	if len(s.Initial) == 0 && s.Elements <= 0 {
		return fmt.Errorf("initial or a positive elements is required")
	}
	if len(s.Initial) > 0 && s.Elements > 0 {
		return fmt.Errorf("initial and elements are mutually exclusive")
	}

	if s.MaxActions < 0 {
		return fmt.Errorf("max_actions must be non-negative")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertSorted:
	case AssertFinalState:
		if len(a.Values) == 0 {
			return fmt.Errorf("assertions[%d]: values is required for final_state", index)
		}
	case AssertActionCount, AssertSwapCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertTraceCount:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertTraceContains, AssertFinalHighlight:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for %s", index, a.Type)
		}
	case AssertTraceOrder:
		if len(a.Keys) == 0 {
			return fmt.Errorf("assertions[%d]: keys list is required for trace_order", index)
		}
	case AssertKeys:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
