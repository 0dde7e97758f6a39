package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/soralvi/internal/engine"
	"github.com/roach88/soralvi/internal/ir"
	"github.com/roach88/soralvi/internal/luarunner"
	"github.com/roach88/soralvi/internal/playback"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Catalog    string
	Elements   int
	FPS        float64
	MaxActions int
	Quiet      bool // skip frame rendering

	// Rand and RunIDGenerator allow overriding randomness (for testing).
	// If nil, the engine defaults are used.
	Rand           engine.Rand
	RunIDGenerator engine.RunIDGenerator
}

// RunSummary is the outcome of one run command.
type RunSummary struct {
	Algorithm string   `json:"algorithm"`
	RunID     string   `json:"run_id"`
	Elements  int      `json:"elements"`
	Initial   []int    `json:"initial"`
	Final     []int    `json:"final"`
	Actions   int      `json:"actions"`
	Swaps     int      `json:"swaps"`
	Keys      []string `json:"keys"`
	Replayed  int      `json:"replayed"`
	Finished  bool     `json:"finished"`
	Sorted    bool     `json:"sorted"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <algorithm.lua | name>",
		Short: "Record an algorithm and replay it frame by frame",
		Long: `Generate a random permutation, record the algorithm over it once,
then replay the recording at --fps, drawing a frame per action.

With --catalog the argument names an entry of a CUE algorithm catalog
instead of a Lua file. Ctrl-C stops playback.

Defaults come from SORALVI_ELEMENTS, SORALVI_FPS and SORALVI_MAX_ACTIONS;
flags override them.

Examples:
  soralvi run ./algorithms/bubble.lua
  soralvi run --catalog ./algorithms selection --elements 16 --fps 60
  soralvi run ./algorithms/bubble.lua --fps 0 --quiet --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlgorithm(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "CUE catalog directory; the argument is then an entry name")
	cmd.Flags().IntVarP(&opts.Elements, "elements", "n", 0, "number of elements (default SORALVI_ELEMENTS)")
	cmd.Flags().Float64Var(&opts.FPS, "fps", 0, "replay frames per second, 0 for unpaced (default SORALVI_FPS)")
	cmd.Flags().IntVar(&opts.MaxActions, "max-actions", 0, "maximum recorded actions (default SORALVI_MAX_ACTIONS)")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "do not render frames")

	return cmd
}

func runAlgorithm(opts *RunOptions, arg string, cmd *cobra.Command) error {
	cfg := opts.settings()

	alg, err := resolveAlgorithm(arg, opts.Catalog)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to resolve algorithm", err)
	}

	elements := cfg.Elements
	if alg.Elements > 0 {
		elements = alg.Elements
	}
	if cmd.Flags().Changed("elements") {
		elements = opts.Elements
	}
	fps := cfg.FPS
	if cmd.Flags().Changed("fps") {
		fps = opts.FPS
	}
	maxActions := cfg.MaxActions
	if cmd.Flags().Changed("max-actions") {
		maxActions = opts.MaxActions
	}

	eng := engine.New(luarunner.New(), engineOptions(maxActions, opts.Rand, opts.RunIDGenerator)...)
	if err := eng.CreateNew(elements); err != nil {
		return WrapExitError(ExitCommandError, "failed to create elements", err)
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("recording algorithm", "algorithm", alg.Name, "elements", elements)
	if err := eng.RunAlgorithm(ctx, alg.Code); err != nil {
		return WrapExitError(ExitFailure, "algorithm failed", err)
	}

	rec, err := eng.Recording()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to export recording", err)
	}
	_, swaps := rec.Counts()
	summary := RunSummary{
		Algorithm: alg.Name,
		RunID:     rec.RunID,
		Elements:  elements,
		Initial:   rec.Initial,
		Actions:   len(rec.Actions),
		Swaps:     swaps,
		Keys:      keyNames(rec.Keys),
	}

	var playerOpts []playback.Option
	if !opts.Quiet && opts.Format != "json" {
		renderer := NewFrameRenderer(cmd.OutOrStdout())
		playerOpts = append(playerOpts, playback.WithInitialFrame(), playback.WithFrameFunc(renderer.Render))
	}

	stats, err := playback.New(fps, playerOpts...).Play(ctx, eng)
	if err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "playback failed", err)
	}

	summary.Replayed = eng.ActionIndex()
	summary.Finished = stats.Finished
	summary.Final = eng.Snapshot()
	summary.Sorted = eng.IsSorted()

	slog.Debug("playback finished",
		"run_id", summary.RunID,
		"steps", stats.Steps,
		"finished", stats.Finished,
	)

	if out := opts.output(cmd); out.IsJSON() {
		return out.Result(summary, summary.RunID)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s: %d elements, %d actions (%d swaps), run %s\n",
		summary.Algorithm, summary.Elements, summary.Actions, summary.Swaps, summary.RunID)
	if !summary.Finished {
		fmt.Fprintf(w, "Stopped after %d of %d actions\n", summary.Replayed, summary.Actions)
		return nil
	}
	if summary.Sorted {
		fmt.Fprintln(w, "✓ Sorted")
	} else {
		fmt.Fprintln(w, "✗ Not sorted")
	}
	return nil
}

// engineOptions builds the engine options shared by run and record.
func engineOptions(maxActions int, rng engine.Rand, gen engine.RunIDGenerator) []engine.EngineOption {
	opts := []engine.EngineOption{engine.WithMaxActions(maxActions)}
	if rng != nil {
		opts = append(opts, engine.WithRand(rng))
	}
	if gen != nil {
		opts = append(opts, engine.WithRunIDGenerator(gen))
	}
	return opts
}

func keyNames(keys []ir.KeyMapping) []string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.Key
	}
	return names
}
