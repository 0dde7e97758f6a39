package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/soralvi/internal/engine"
	"github.com/roach88/soralvi/internal/ir"
	"github.com/roach88/soralvi/internal/luarunner"
	"github.com/roach88/soralvi/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	ID       string // optional - specific recording (ID or run ID) only
}

// ReplayRecordingResult holds the replay result for a single recording.
type ReplayRecordingResult struct {
	ID            string `json:"id"`
	RunID         string `json:"run_id"`
	Elements      int    `json:"elements"`
	Actions       int    `json:"actions"`
	Skipped       int    `json:"skipped"` // swaps outside the array
	Final         []int  `json:"final"`
	Sorted        bool   `json:"sorted"`
	Deterministic bool   `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Recordings       []ReplayRecordingResult `json:"recordings"`
	TotalRecordings  int                     `json:"total_recordings"`
	AllDeterministic bool                    `json:"all_deterministic"`
	AllSorted        bool                    `json:"all_sorted"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay archived recordings and verify determinism",
		Long: `Replay archived recordings to verify determinism and sortedness.

Each recording is read from the archive and replayed twice on fresh
engines. The two replays must end in the same array and the same cursor
highlights, and the final array must be sorted.

Exit codes:
  0 - All recordings are deterministic and sorted
  1 - Verification failed
  2 - Command error (database not found, etc.)

Examples:
  soralvi replay --db ./soralvi.db
  soralvi replay --db ./soralvi.db --id 0190d1c4-...
  soralvi replay --db ./soralvi.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.ID, "id", "", "replay one recording (recording ID or run ID)")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	// Get recording IDs to process
	var ids []string
	if opts.ID != "" {
		rec, err := findRecording(ctx, st, opts.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to find recording %s", opts.ID), err)
		}
		ids = []string{rec.ID}
	} else {
		summaries, err := st.ListRecordings(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list recordings", err)
		}
		for _, s := range summaries {
			ids = append(ids, s.ID)
		}
	}

	result := ReplayResult{
		Recordings:       make([]ReplayRecordingResult, 0, len(ids)),
		TotalRecordings:  len(ids),
		AllDeterministic: true,
		AllSorted:        true,
	}

	if len(ids) == 0 {
		if opts.Format == "json" {
			return outputReplayJSON(opts, cmd, result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No recordings found in database.")
		return nil
	}

	for _, id := range ids {
		recResult, err := replayAndVerify(ctx, st, id)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay recording %s", id), err)
		}

		result.Recordings = append(result.Recordings, recResult)
		if !recResult.Deterministic {
			result.AllDeterministic = false
		}
		if !recResult.Sorted {
			result.AllSorted = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(opts, cmd, result)
	}

	return outputReplayText(cmd, result, opts.Verbose)
}

// replayOutcome is the end state of one full replay.
type replayOutcome struct {
	final      []int
	highlights []engine.Highlight
	steps      int
	skipped    int
}

// replayAndVerify reads a recording twice and replays each copy to completion.
func replayAndVerify(ctx context.Context, st *store.Store, id string) (ReplayRecordingResult, error) {
	first, err := st.ReadRecording(ctx, id)
	if err != nil {
		return ReplayRecordingResult{}, fmt.Errorf("first read failed: %w", err)
	}
	second, err := st.ReadRecording(ctx, id)
	if err != nil {
		return ReplayRecordingResult{}, fmt.Errorf("second read failed: %w", err)
	}

	out1, err := replayToEnd(first)
	if err != nil {
		return ReplayRecordingResult{}, fmt.Errorf("first replay failed: %w", err)
	}
	out2, err := replayToEnd(second)
	if err != nil {
		return ReplayRecordingResult{}, fmt.Errorf("second replay failed: %w", err)
	}

	return ReplayRecordingResult{
		ID:            first.ID,
		RunID:         first.RunID,
		Elements:      len(first.Initial),
		Actions:       len(first.Actions),
		Skipped:       out1.skipped,
		Final:         out1.final,
		Sorted:        slices.IsSorted(out1.final),
		Deterministic: outcomesEqual(out1, out2),
	}, nil
}

// replayToEnd loads rec into a fresh engine and steps through every action.
func replayToEnd(rec ir.Recording) (replayOutcome, error) {
	eng := engine.New(luarunner.New())
	if err := eng.Load(rec); err != nil {
		return replayOutcome{}, err
	}

	var out replayOutcome
	for eng.Step() {
		out.steps++
	}
	out.final = eng.Snapshot()
	out.highlights = eng.Highlights()

	// The array never changes length, so a swap is skipped exactly when one
	// of its positions falls outside the initial array.
	n := len(rec.Initial)
	for _, a := range rec.Actions {
		if s, ok := a.(ir.SwapAction); ok && !inRange(s, n) {
			out.skipped++
		}
	}
	return out, nil
}

func inRange(s ir.SwapAction, n int) bool {
	return s.PositionA >= 0 && s.PositionA < n && s.PositionB >= 0 && s.PositionB < n
}

// outcomesEqual compares two replays for equality.
func outcomesEqual(a, b replayOutcome) bool {
	return a.steps == b.steps &&
		a.skipped == b.skipped &&
		slices.Equal(a.final, b.final) &&
		slices.Equal(a.highlights, b.highlights)
}

// findRecording looks id up as a recording ID, then as a run ID.
func findRecording(ctx context.Context, st *store.Store, id string) (ir.Recording, error) {
	rec, err := st.ReadRecording(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return st.ReadRecordingByRunID(ctx, id)
	}
	return rec, err
}

// outputReplayJSON writes result as JSON. A failed verification is an
// E_REPLAY error carrying the full result.
func outputReplayJSON(opts *ReplayOptions, cmd *cobra.Command, result ReplayResult) error {
	out := opts.output(cmd)
	failure := replayFailure(result)
	if failure == "" {
		return out.Result(result, "")
	}
	if err := out.Failure("E_REPLAY", failure, result, nil); err != nil {
		return err
	}
	return NewExitError(ExitFailure, failure)
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d recording(s)\n", result.TotalRecordings)
	fmt.Fprintln(w)

	for _, rec := range result.Recordings {
		status := "✓"
		if !rec.Deterministic || !rec.Sorted {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Recording: %s\n", status, rec.ID)

		if verbose {
			fmt.Fprintf(w, "  Run: %s\n", rec.RunID)
			fmt.Fprintf(w, "  Elements: %d\n", rec.Elements)
			fmt.Fprintf(w, "  Actions: %d\n", rec.Actions)
			fmt.Fprintf(w, "  Final: %v\n", rec.Final)
		} else {
			fmt.Fprintf(w, "  Actions: %d over %d elements\n", rec.Actions, rec.Elements)
		}

		if rec.Skipped > 0 {
			fmt.Fprintf(w, "  Warning: %d out-of-range swap(s) skipped\n", rec.Skipped)
		}
		if !rec.Deterministic {
			fmt.Fprintln(w, "  Warning: Non-deterministic replay detected!")
		}
		if !rec.Sorted {
			fmt.Fprintln(w, "  Warning: Replay did not end sorted!")
		}
		fmt.Fprintln(w)
	}

	if failure := replayFailure(result); failure != "" {
		fmt.Fprintf(w, "✗ %s\n", failure)
		return NewExitError(ExitFailure, failure)
	}

	fmt.Fprintln(w, "✓ All recordings verified deterministic and sorted")
	return nil
}

func replayFailure(result ReplayResult) string {
	switch {
	case !result.AllDeterministic:
		return "determinism verification failed"
	case !result.AllSorted:
		return "sortedness verification failed"
	default:
		return ""
	}
}

// openExisting opens an archive that must already exist.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}
