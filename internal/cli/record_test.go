package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/soralvi/internal/store"
)

func TestRecordCommand_Values(t *testing.T) {
	db := filepath.Join(t.TempDir(), "soralvi.db")

	out, err := execute(t, "--format", "json", "record", "testdata/bubble.lua", "--db", db, "--values", "3,1,2")
	require.NoError(t, err)

	var result RecordResult
	resp := decodeData(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Inserted)
	assert.Equal(t, "bubble", result.Algorithm)
	assert.Equal(t, 3, result.Elements)
	assert.Equal(t, 5, result.Actions)
	assert.Equal(t, 2, result.Swaps)
	assert.Equal(t, []string{"j"}, result.Keys)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	rec, err := st.ReadRecording(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, rec.Initial)
	assert.Equal(t, result.RunID, rec.RunID)
}

func TestRecordCommand_Idempotent(t *testing.T) {
	db := filepath.Join(t.TempDir(), "soralvi.db")
	args := []string{"--format", "json", "record", "testdata/bubble.lua", "--db", db, "--values", "2,1"}

	out, err := execute(t, args...)
	require.NoError(t, err)
	var first RecordResult
	decodeData(t, out, &first)

	out, err = execute(t, args...)
	require.NoError(t, err)
	var second RecordResult
	decodeData(t, out, &second)

	assert.False(t, second.Inserted)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.RunID, second.RunID, "archived copy keeps the first run")
}

func TestRecordCommand_Text(t *testing.T) {
	db := filepath.Join(t.TempDir(), "soralvi.db")

	out, err := execute(t, "record", "--catalog", "testdata/catalog", "bubble", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded bubble: 4 elements")
	assert.Contains(t, out, "  ID: ")
	assert.Contains(t, out, "  Run: ")

	out, err = execute(t, "record", "--catalog", "testdata/catalog", "noop", "--db", db, "--values", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded noop: 1 elements, 0 actions (0 swaps)")
}

func TestRecordCommand_DatabaseFromEnv(t *testing.T) {
	db := filepath.Join(t.TempDir(), "env.db")
	t.Setenv("SORALVI_DB", db)

	_, err := execute(t, "record", "testdata/bubble.lua", "--values", "1,2")
	require.NoError(t, err)
	assert.FileExists(t, db)
}

func TestRecordCommand_Errors(t *testing.T) {
	db := filepath.Join(t.TempDir(), "soralvi.db")

	_, err := execute(t, "record", "testdata/bubble.lua", "--db", db, "--values", "1,2", "-n", "4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")

	_, err = execute(t, "record", "testdata/broken.lua", "--db", db, "--values", "1,2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.NoFileExists(t, db, "failed runs are not archived")
}
