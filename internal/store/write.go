package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/soralvi/internal/ir"
)

// ErrIDMismatch is returned when a recording's ID does not match its content.
var ErrIDMismatch = errors.New("recording id does not match its content")

// WriteRecording archives a recording with its cursor keys and action log.
// Returns whether a new record was inserted.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: the ID covers source,
// initial array, keys and actions, so a conflict means the archive already
// holds this exact log and the write returns inserted=false.
// The recording, its keys and its actions are written in one transaction.
//
// Returns ErrIDMismatch if rec.ID is not ir.RecordingID(rec).
func (s *Store) WriteRecording(ctx context.Context, rec ir.Recording) (inserted bool, err error) {
	rows := make([]actionRow, len(rec.Actions))
	for i, a := range rec.Actions {
		row, err := toActionRow(a)
		if err != nil {
			return false, fmt.Errorf("write recording: action %d: %w", i, err)
		}
		rows[i] = row
	}

	want, err := ir.RecordingID(rec)
	if err != nil {
		return false, fmt.Errorf("write recording: %w", err)
	}
	if rec.ID != want {
		return false, fmt.Errorf("write recording %q: %w", rec.ID, ErrIDMismatch)
	}

	initialJSON, err := marshalInitial(rec.Initial)
	if err != nil {
		return false, fmt.Errorf("write recording: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write recording: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// seq is the archive's insertion order; next value is derived inside the
	// transaction so concurrent writers cannot collide.
	result, err := tx.ExecContext(ctx, `
		INSERT INTO recordings
		(id, run_id, source, initial, elements, action_count, seq)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM recordings))
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.RunID,
		rec.Source,
		initialJSON,
		len(rec.Initial),
		len(rec.Actions),
	)
	if err != nil {
		return false, fmt.Errorf("write recording: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write recording: rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	for _, k := range rec.Keys {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recording_keys (recording_id, key_index, key)
			VALUES (?, ?, ?)
		`, rec.ID, k.Index, k.Key); err != nil {
			return false, fmt.Errorf("write recording: key %q: %w", k.Key, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO actions
		(recording_id, seq, kind, key_index, position, position_a, position_b)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return false, fmt.Errorf("write recording: prepare actions: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx,
			rec.ID, i, row.kind, row.keyIndex, row.position, row.positionA, row.positionB,
		); err != nil {
			return false, fmt.Errorf("write recording: action %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write recording: commit: %w", err)
	}
	return true, nil
}
