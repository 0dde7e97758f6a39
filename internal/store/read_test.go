package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/soralvi/internal/ir"
)

func TestReadRecording_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRecording(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestReadRecording_ActionOrderIsLogOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Twelve actions so lexical ordering of seq would differ from numeric.
	rec := createTestRecording("ordered", "run-1", 1, 2)
	rec.Actions = nil
	for i := 0; i < 12; i++ {
		rec.Actions = append(rec.Actions, ir.TraceAction{KeyIndex: 0, Position: i})
	}
	rec = withID(rec)
	_, err := s.WriteRecording(ctx, rec)
	require.NoError(t, err)

	got, err := s.ReadRecording(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, got.Actions, 12)
	for i, a := range got.Actions {
		assert.Equal(t, ir.TraceAction{KeyIndex: 0, Position: i}, a)
	}
}

func TestReadRecordingByRunID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rec := createTestRecording("src", "run-7")

	_, err := s.WriteRecording(ctx, rec)
	require.NoError(t, err)

	got, err := s.ReadRecordingByRunID(ctx, "run-7")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	_, err = s.ReadRecordingByRunID(ctx, "run-unknown")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListRecordings_InsertionOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	list, err := s.ListRecordings(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	sources := []string{"zeta", "alpha", "mid"}
	var ids []string
	for i, src := range sources {
		rec := createTestRecording(src, "run-"+src, 4, 3, 2, 1)
		rec.Actions = rec.Actions[:i+1]
		rec = withID(rec)
		_, err := s.WriteRecording(ctx, rec)
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}

	list, err = s.ListRecordings(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, sum := range list {
		assert.Equal(t, ids[i], sum.ID)
		assert.Equal(t, "run-"+sources[i], sum.RunID)
		assert.Equal(t, 4, sum.Elements)
		assert.Equal(t, i+1, sum.Actions)
		assert.Equal(t, int64(i+1), sum.Seq)
	}
}
