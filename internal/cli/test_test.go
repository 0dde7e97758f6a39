package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestCommand_Passes(t *testing.T) {
	out, err := execute(t, "test", "testdata/scenarios")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ bubble_pair")
	assert.Contains(t, out, "✓ bubble_sorted")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommand_Failing(t *testing.T) {
	out, err := execute(t, "test", "testdata/failing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_count")
	assert.Contains(t, out, "Test Summary:")
}

func TestTestCommand_JSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "test", "testdata/failing")
	require.Error(t, err)

	var result TestResult
	resp := decodeData(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Scenarios, 1)
	assert.NotEmpty(t, result.Scenarios[0].Errors)
}

func TestTestCommand_Filter(t *testing.T) {
	out, err := execute(t, "--format", "json", "test", "testdata/scenarios", "--filter", "*sorted")
	require.NoError(t, err)

	var result TestResult
	decodeData(t, out, &result)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "bubble_sorted", result.Scenarios[0].Name)

	out, err = execute(t, "test", "testdata/scenarios", "--filter", "quick*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommand_Update(t *testing.T) {
	dir := t.TempDir()
	scenario, err := os.ReadFile("testdata/scenarios/bubble_pair.yaml")
	require.NoError(t, err)
	lua, err := os.ReadFile("testdata/bubble.lua")
	require.NoError(t, err)

	// The scenario refers to ../bubble.lua.
	scenarios := filepath.Join(dir, "scenarios")
	require.NoError(t, os.MkdirAll(scenarios, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(scenarios, "bubble_pair.yaml"), scenario, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bubble.lua"), lua, 0644))

	out, err := execute(t, "test", scenarios, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ bubble_pair (golden updated)")

	got, err := os.ReadFile(filepath.Join(scenarios, "golden", "bubble_pair.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile("testdata/scenarios/golden/bubble_pair.golden")
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	// The regenerated file is then used for comparison.
	_, err = execute(t, "test", scenarios)
	require.NoError(t, err)
}

func TestTestCommand_GoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	scenario, err := os.ReadFile("testdata/scenarios/bubble_pair.yaml")
	require.NoError(t, err)
	lua, err := os.ReadFile("testdata/bubble.lua")
	require.NoError(t, err)

	scenarios := filepath.Join(dir, "scenarios")
	require.NoError(t, os.MkdirAll(filepath.Join(scenarios, "golden"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(scenarios, "bubble_pair.yaml"), scenario, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bubble.lua"), lua, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(scenarios, "golden", "bubble_pair.golden"), []byte("{}"), 0644))

	out, err := execute(t, "test", scenarios)
	require.Error(t, err)
	assert.Contains(t, out, "Golden file mismatch")
}

func TestTestCommand_MissingDirectory(t *testing.T) {
	_, err := execute(t, "test", "testdata/nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"b.yaml",
		"a.yml",
		"notes.txt",
		filepath.Join("nested", "c.yaml"),
		filepath.Join("golden", "stray.yaml"),
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, nil, 0644))
	}

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "nested", "c.yaml"),
	}, files)

	files, err = findScenarioFiles(dir, "[bc]")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b.yaml"), filepath.Join(dir, "nested", "c.yaml")}, files)

	_, err = findScenarioFiles(dir, "[")
	assert.ErrorContains(t, err, "invalid filter pattern")
}
