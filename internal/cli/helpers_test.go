package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/soralvi/internal/ir"
	"github.com/roach88/soralvi/internal/store"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// decodeData unmarshals the data payload of a JSON CLI response into v.
func decodeData(t *testing.T, out string, v any) CLIResponse {
	t.Helper()
	var raw struct {
		CLIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), out)
	if v != nil {
		require.NoError(t, json.Unmarshal(raw.Data, v))
	}
	return raw.CLIResponse
}

// createArchive writes recs into a fresh database and returns its path.
func createArchive(t *testing.T, recs ...ir.Recording) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "soralvi.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()
	for _, rec := range recs {
		_, err := st.WriteRecording(context.Background(), rec)
		require.NoError(t, err)
	}
	return path
}

// testRecording builds a recording of selection sort over [3, 1, 2].
func testRecording(runID string) ir.Recording {
	source := "-- selection"
	initial := []int{3, 1, 2}
	return withID(ir.Recording{
		RunID:   runID,
		Source:  source,
		Initial: initial,
		Keys: []ir.KeyMapping{
			{Key: "i", Index: 0},
			{Key: "minIndex", Index: 1},
		},
		Actions: []ir.Action{
			ir.TraceAction{KeyIndex: 0, Position: 0},
			ir.TraceAction{KeyIndex: 1, Position: 1},
			ir.SwapAction{PositionA: 0, PositionB: 1},
			ir.TraceAction{KeyIndex: 0, Position: 1},
			ir.TraceAction{KeyIndex: 1, Position: 2},
			ir.SwapAction{PositionA: 1, PositionB: 2},
		},
	})
}

// withID sets rec.ID from its current content.
func withID(rec ir.Recording) ir.Recording {
	rec.ID = ir.MustRecordingID(rec)
	return rec
}
