// Package store provides the SQLite-backed archive of recorded algorithm runs.
//
// The archive holds:
//   - Recordings: algorithm source, pristine array and content-addressed ID
//   - Recording Keys: cursor name to index mappings, one row per cursor
//   - Actions: the action log, one row per recorded trace or swap
//
// # Critical Patterns
//
// Content-Addressed Idempotency
//   - recordings.id is ir.RecordingID over source, initial array, keys and actions
//   - Writing the same recording twice is a no-op (ON CONFLICT DO NOTHING)
//   - Two runs that recorded different logs never share an ID
//
// Logical Ordering
//   - Recordings are ordered by seq (insertion order), NEVER timestamps
//   - Actions are ordered by their seq within a recording, which is the
//     position in the engine's action log
//
// Deterministic Query Results
//   - All multi-row queries include an ORDER BY on seq or key_index
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity and cascading deletes
//
// The engine itself never reads the archive. Callers export a run with
// engine.Engine.Recording, write it here, and later hand a read recording
// to engine.Engine.Load to replay it.
package store
