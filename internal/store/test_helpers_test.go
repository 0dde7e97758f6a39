package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/soralvi/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecording builds a small valid recording for the given source.
func createTestRecording(source, runID string, initial ...int) ir.Recording {
	if len(initial) == 0 {
		initial = []int{3, 1, 2}
	}
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
