package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/soralvi/internal/ir"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	ID       string
	Key      string // optional - filter traces to one cursor key
}

// TimelineEvent represents a single action in the trace timeline.
type TimelineEvent struct {
	Seq      int    `json:"seq"`
	Type     string `json:"type"` // "trace" or "swap"
	Key      string `json:"key,omitempty"`
	Position *int   `json:"position,omitempty"`
	A        *int   `json:"a,omitempty"`
	B        *int   `json:"b,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	ID       string          `json:"id"`
	RunID    string          `json:"run_id"`
	Initial  []int           `json:"initial"`
	Keys     []string        `json:"keys"`
	Timeline []TimelineEvent `json:"timeline"`
	Stats    TraceStats      `json:"stats"`
}

// TraceStats holds summary statistics for the recording.
type TraceStats struct {
	TotalActions int            `json:"total_actions"`
	Traces       int            `json:"traces"`
	Swaps        int            `json:"swaps"`
	PerKey       map[string]int `json:"per_key"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the action timeline of a recording",
		Long: `Show the recorded actions of one archived recording in log order.

Trace actions are shown with their cursor key names. Swaps are shown with
both positions. --key limits the timeline to one cursor's traces (swaps are
always shown).

Examples:
  soralvi trace --db ./soralvi.db --id 0190d1c4-...
  soralvi trace --db ./soralvi.db --id 0190d1c4-... --key minIndex
  soralvi trace --db ./soralvi.db --id 0190d1c4-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.ID, "id", "", "recording ID or run ID (required)")
	_ = cmd.MarkFlagRequired("id")
	cmd.Flags().StringVar(&opts.Key, "key", "", "filter traces to one cursor key")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := findRecording(cmd.Context(), st, opts.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to find recording %s", opts.ID), err)
	}

	result := TraceResult{
		ID:       rec.ID,
		RunID:    rec.RunID,
		Initial:  rec.Initial,
		Keys:     keyNames(rec.Keys),
		Timeline: buildTimeline(rec, opts.Key),
		Stats:    buildStats(rec),
	}

	if out := opts.output(cmd); out.IsJSON() {
		return out.Result(result, result.RunID)
	}
	return outputTraceText(cmd, result)
}

// buildTimeline converts recorded actions to timeline events, keeping only
// traces of key when key is set.
func buildTimeline(rec ir.Recording, key string) []TimelineEvent {
	timeline := make([]TimelineEvent, 0, len(rec.Actions))
	for i, a := range rec.Actions {
		switch act := a.(type) {
		case ir.TraceAction:
			name, _ := rec.KeyName(act.KeyIndex)
			if key != "" && name != key {
				continue
			}
			timeline = append(timeline, TimelineEvent{
				Seq:      i + 1,
				Type:     string(ir.KindTrace),
				Key:      name,
				Position: intPtr(act.Position),
			})
		case ir.SwapAction:
			timeline = append(timeline, TimelineEvent{
				Seq:  i + 1,
				Type: string(ir.KindSwap),
				A:    intPtr(act.PositionA),
				B:    intPtr(act.PositionB),
			})
		}
	}
	return timeline
}

func buildStats(rec ir.Recording) TraceStats {
	traces, swaps := rec.Counts()
	stats := TraceStats{
		TotalActions: len(rec.Actions),
		Traces:       traces,
		Swaps:        swaps,
		PerKey:       make(map[string]int, len(rec.Keys)),
	}
	for _, k := range rec.Keys {
		stats.PerKey[k.Key] = 0
	}
	for _, a := range rec.Actions {
		if t, ok := a.(ir.TraceAction); ok {
			name, _ := rec.KeyName(t.KeyIndex)
			stats.PerKey[name]++
		}
	}
	return stats
}

func intPtr(v int) *int { return &v }

// outputTraceText outputs the trace as text.
func outputTraceText(cmd *cobra.Command, result TraceResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Recording: %s\n", result.ID)
	fmt.Fprintf(w, "Run: %s\n", result.RunID)
	fmt.Fprintf(w, "Initial: %v\n", result.Initial)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Timeline:")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no actions)")
	}
	for _, e := range result.Timeline {
		if e.Type == string(ir.KindSwap) {
			fmt.Fprintf(w, "  [%d] swap %d <-> %d\n", e.Seq, *e.A, *e.B)
			continue
		}
		fmt.Fprintf(w, "  [%d] trace %s = %d\n", e.Seq, e.Key, *e.Position)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Stats: %d actions (%d traces, %d swaps)\n",
		result.Stats.TotalActions, result.Stats.Traces, result.Stats.Swaps)
	for _, k := range result.Keys {
		fmt.Fprintf(w, "  %s: %d\n", k, result.Stats.PerKey[k])
	}
	return nil
}
