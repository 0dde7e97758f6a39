package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ResolvesRelativePaths(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "selection_three.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "selection_three", s.Name)
	assert.Equal(t, filepath.Join("testdata", "lua", "selection.lua"), s.Source)
	assert.Equal(t, []int{3, 1, 2}, s.Initial)
	assert.Len(t, s.Assertions, 10)
	assert.Equal(t, AssertFinalHighlight, s.Assertions[8].Type)
	assert.Equal(t, "minIndex", s.Assertions[8].Key)
	assert.Equal(t, 2, s.Assertions[8].Position)

	s, err = LoadScenario(filepath.Join("testdata", "scenarios", "bubble_pair.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "catalog"), s.Catalog)
}

func TestLoadScenario_RejectsUnknownFields(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "misspelled assertions key"
code: "function sort(a) end"
initial: [1]
assertion:
  - type: sorted
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestValidateScenario(t *testing.T) {
	valid := func() Scenario {
		return Scenario{
			Name:        "ok",
			Description: "valid",
			Code:        "function sort(a) end",
			Initial:     []int{1},
			Assertions:  []Assertion{{Type: AssertSorted}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Scenario)
		errMsg string
	}{
		{"valid", func(*Scenario) {}, ""},
		{"no name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"no description", func(s *Scenario) { s.Description = "" }, "description is required"},
		{"no selector", func(s *Scenario) { s.Code = "" }, "exactly one of source, code and algorithm"},
		{"two selectors", func(s *Scenario) { s.Algorithm = "bubble"; s.Catalog = "x" }, "exactly one of source, code and algorithm"},
		{"algorithm without catalog", func(s *Scenario) { s.Code = ""; s.Algorithm = "bubble" }, "catalog is required"},
		{"missing source file", func(s *Scenario) { s.Code = ""; s.Source = "/nonexistent/x.lua" }, "source file not found"},
		{"no array", func(s *Scenario) { s.Initial = nil }, "initial or a positive elements"},
		{"both arrays", func(s *Scenario) { s.Elements = 4 }, "mutually exclusive"},
		{"negative quota", func(s *Scenario) { s.MaxActions = -1 }, "max_actions"},
		{"no assertions", func(s *Scenario) { s.Assertions = nil }, "assertions list is required"},
		{"untyped assertion", func(s *Scenario) { s.Assertions = []Assertion{{}} }, "type is required"},
		{"unknown assertion", func(s *Scenario) { s.Assertions = []Assertion{{Type: "stable"}} }, `unknown assertion type "stable"`},
		{"final_state without values", func(s *Scenario) { s.Assertions = []Assertion{{Type: AssertFinalState}} }, "values is required"},
		{"trace_count without key", func(s *Scenario) { s.Assertions = []Assertion{{Type: AssertTraceCount, Count: 1}} }, "key is required"},
		{"negative swap_count", func(s *Scenario) { s.Assertions = []Assertion{{Type: AssertSwapCount, Count: -1}} }, "count must be non-negative"},
		{"trace_order without keys", func(s *Scenario) { s.Assertions = []Assertion{{Type: AssertTraceOrder}} }, "keys list is required"},
		{"final_highlight without key", func(s *Scenario) { s.Assertions = []Assertion{{Type: AssertFinalHighlight}} }, "key is required for final_highlight"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			err := validateScenario(&s)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadScenarios_ReportsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: bad\n"), 0644))

	_, err := LoadScenarios(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}
