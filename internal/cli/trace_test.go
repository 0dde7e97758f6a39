package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceCommand_Text(t *testing.T) {
	rec := testRecording("run-sel")
	db := createArchive(t, rec)

	out, err := execute(t, "trace", "--db", db, "--id", rec.ID)
	require.NoError(t, err)

	assert.Contains(t, out, "Recording: "+rec.ID)
	assert.Contains(t, out, "Run: run-sel")
	assert.Contains(t, out, "Initial: [3 1 2]")
	assert.Contains(t, out, "  [1] trace i = 0\n")
	assert.Contains(t, out, "  [2] trace minIndex = 1\n")
	assert.Contains(t, out, "  [3] swap 0 <-> 1\n")
	assert.Contains(t, out, "  [6] swap 1 <-> 2\n")
	assert.Contains(t, out, "Stats: 6 actions (4 traces, 2 swaps)")
	assert.Contains(t, out, "  minIndex: 2\n")
}

func TestTraceCommand_KeyFilter(t *testing.T) {
	rec := testRecording("run-sel")
	db := createArchive(t, rec)

	out, err := execute(t, "--format", "json", "trace", "--db", db, "--id", "run-sel", "--key", "minIndex")
	require.NoError(t, err)

	var result TraceResult
	resp := decodeData(t, out, &result)
	assert.Equal(t, "run-sel", resp.RunID)

	require.Len(t, result.Timeline, 4)
	for _, e := range result.Timeline {
		if e.Type == "trace" {
			assert.Equal(t, "minIndex", e.Key)
			require.NotNil(t, e.Position)
		}
	}
	assert.Equal(t, 2, result.Timeline[0].Seq)
	assert.Equal(t, "swap", result.Timeline[1].Type)
	assert.Equal(t, 6, result.Stats.TotalActions, "stats cover the whole recording")
	assert.Equal(t, map[string]int{"i": 2, "minIndex": 2}, result.Stats.PerKey)
}

func TestTraceCommand_Errors(t *testing.T) {
	db := createArchive(t, testRecording("run-sel"))

	_, err := execute(t, "trace", "--db", db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "id" not set`)

	_, err = execute(t, "trace", "--db", db, "--id", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to find recording nope")
}
