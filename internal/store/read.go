package store

import (
	"context"
	"fmt"

	"github.com/roach88/soralvi/internal/ir"
)

// RecordingSummary describes an archived recording without its action log.
type RecordingSummary struct {
	ID       string
	RunID    string
	Elements int
	Actions  int
	Seq      int64
}

// ReadRecording retrieves a recording with its keys and actions.
// Keys are returned in index order and actions in recorded order.
//
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadRecording(ctx context.Context, id string) (ir.Recording, error) {
	var (
		rec         ir.Recording
		initialJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, run_id, source, initial
		FROM recordings
		WHERE id = ?
	`, id).Scan(&rec.ID, &rec.RunID, &rec.Source, &initialJSON)
	if err != nil {
		return ir.Recording{}, fmt.Errorf("read recording %q: %w", id, err)
	}

	if rec.Initial, err = unmarshalInitial(initialJSON); err != nil {
		return ir.Recording{}, fmt.Errorf("read recording %q: %w", id, err)
	}
	if rec.Keys, err = s.readKeys(ctx, id); err != nil {
		return ir.Recording{}, err
	}
	if rec.Actions, err = s.readActions(ctx, id); err != nil {
		return ir.Recording{}, err
	}
	return rec, nil
}

// ReadRecordingByRunID retrieves the recording produced by a run.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadRecordingByRunID(ctx context.Context, runID string) (ir.Recording, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM recordings WHERE run_id = ?
		ORDER BY seq ASC
		LIMIT 1
	`, runID).Scan(&id)
	if err != nil {
		return ir.Recording{}, fmt.Errorf("read recording for run %q: %w", runID, err)
	}
	return s.ReadRecording(ctx, id)
}

// ListRecordings returns every archived recording in insertion order.
// Returns an empty slice (not nil) for an empty archive.
func (s *Store) ListRecordings(ctx context.Context) ([]RecordingSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, elements, action_count, seq
		FROM recordings
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query recordings: %w", err)
	}
	defer rows.Close()

	summaries := []RecordingSummary{}
	for rows.Next() {
		var sum RecordingSummary
		if err := rows.Scan(&sum.ID, &sum.RunID, &sum.Elements, &sum.Actions, &sum.Seq); err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recordings: %w", err)
	}
	return summaries, nil
}

func (s *Store) readKeys(ctx context.Context, id string) ([]ir.KeyMapping, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key_index, key
		FROM recording_keys
		WHERE recording_id = ?
		ORDER BY key_index ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query keys: %w", err)
	}
	defer rows.Close()

	keys := []ir.KeyMapping{}
	for rows.Next() {
		var k ir.KeyMapping
		if err := rows.Scan(&k.Index, &k.Key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return keys, nil
}

func (s *Store) readActions(ctx context.Context, id string) ([]ir.Action, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, key_index, position, position_a, position_b
		FROM actions
		WHERE recording_id = ?
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	actions := []ir.Action{}
	for rows.Next() {
		var row actionRow
		if err := rows.Scan(&row.kind, &row.keyIndex, &row.position, &row.positionA, &row.positionB); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		a, err := row.action()
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}
	return actions, nil
}
