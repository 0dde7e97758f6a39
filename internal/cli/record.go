package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/soralvi/internal/engine"
	"github.com/roach88/soralvi/internal/luarunner"
	"github.com/roach88/soralvi/internal/store"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	Database   string
	Catalog    string
	Elements   int
	Values     []int // explicit initial array
	MaxActions int

	// Rand and RunIDGenerator allow overriding randomness (for testing).
	Rand           engine.Rand
	RunIDGenerator engine.RunIDGenerator
}

// RecordResult describes an archived recording.
type RecordResult struct {
	ID        string   `json:"id"`
	RunID     string   `json:"run_id"`
	Algorithm string   `json:"algorithm"`
	Elements  int      `json:"elements"`
	Actions   int      `json:"actions"`
	Swaps     int      `json:"swaps"`
	Keys      []string `json:"keys"`
	Inserted  bool     `json:"inserted"` // false if an identical recording was already archived
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record <algorithm.lua | name>",
		Short: "Record an algorithm into the trace archive",
		Long: `Record the algorithm over a generated permutation (or --values) and
write the recording to the SQLite archive.

Recordings are content-addressed by source and initial array; recording the
same algorithm over the same array twice keeps the first run.

Examples:
  soralvi record ./algorithms/bubble.lua --db ./soralvi.db
  soralvi record --catalog ./algorithms selection --elements 8
  soralvi record ./algorithms/bubble.lua --values 3,1,2 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default SORALVI_DB)")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "CUE catalog directory; the argument is then an entry name")
	cmd.Flags().IntVarP(&opts.Elements, "elements", "n", 0, "number of elements (default SORALVI_ELEMENTS)")
	cmd.Flags().IntSliceVar(&opts.Values, "values", nil, "explicit initial array, e.g. 3,1,2")
	cmd.Flags().IntVar(&opts.MaxActions, "max-actions", 0, "maximum recorded actions (default SORALVI_MAX_ACTIONS)")
	cmd.MarkFlagsMutuallyExclusive("elements", "values")

	return cmd
}

func runRecord(opts *RecordOptions, arg string, cmd *cobra.Command) error {
	cfg := opts.settings()

	alg, err := resolveAlgorithm(arg, opts.Catalog)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to resolve algorithm", err)
	}

	maxActions := cfg.MaxActions
	if cmd.Flags().Changed("max-actions") {
		maxActions = opts.MaxActions
	}
	eng := engine.New(luarunner.New(), engineOptions(maxActions, opts.Rand, opts.RunIDGenerator)...)

	if len(opts.Values) > 0 {
		err = eng.Seed(opts.Values)
	} else {
		elements := cfg.Elements
		if alg.Elements > 0 {
			elements = alg.Elements
		}
		if cmd.Flags().Changed("elements") {
			elements = opts.Elements
		}
		err = eng.CreateNew(elements)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create elements", err)
	}

	if err := eng.RunAlgorithm(cmd.Context(), alg.Code); err != nil {
		return WrapExitError(ExitFailure, "algorithm failed", err)
	}
	rec, err := eng.Recording()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to export recording", err)
	}

	dbPath := cfg.DB
	if opts.Database != "" {
		dbPath = opts.Database
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	inserted, err := st.WriteRecording(cmd.Context(), rec)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to write recording", err)
	}

	if !inserted {
		// The archive already holds this exact log; report the run that wrote it.
		archived, err := st.ReadRecording(cmd.Context(), rec.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read archived recording", err)
		}
		rec.RunID = archived.RunID
	}

	_, swaps := rec.Counts()
	result := RecordResult{
		ID:        rec.ID,
		RunID:     rec.RunID,
		Algorithm: alg.Name,
		Elements:  len(rec.Initial),
		Actions:   len(rec.Actions),
		Swaps:     swaps,
		Keys:      keyNames(rec.Keys),
		Inserted:  inserted,
	}
	slog.Info("recording archived",
		"recording_id", result.ID,
		"run_id", result.RunID,
		"actions", result.Actions,
		"inserted", inserted,
	)

	if out := opts.output(cmd); out.IsJSON() {
		return out.Result(result, result.RunID)
	}

	w := cmd.OutOrStdout()
	if inserted {
		fmt.Fprintf(w, "Recorded %s: %d elements, %d actions (%d swaps)\n",
			result.Algorithm, result.Elements, result.Actions, result.Swaps)
	} else {
		fmt.Fprintf(w, "Already archived %s: %d elements, %d actions\n",
			result.Algorithm, result.Elements, result.Actions)
	}
	fmt.Fprintf(w, "  ID: %s\n", result.ID)
	fmt.Fprintf(w, "  Run: %s\n", result.RunID)
	return nil
}
