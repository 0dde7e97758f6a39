package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/soralvi/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance harness",
		Long: `Run conformance tests using the harness framework.

Each scenario records its algorithm, archives and replays the recording,
then validates the replayed trace and final array. When a golden file
exists under <scenarios-dir>/golden the trace must also match it.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  soralvi test ./scenarios
  soralvi test ./scenarios --filter "selection*"
  soralvi test ./scenarios --update
  soralvi test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	out := opts.output(cmd)
	w := cmd.OutOrStdout()
	if len(files) == 0 && !out.IsJSON() {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		res, note := runScenario(cmd.Context(), file, opts.Update)
		result.Scenarios = append(result.Scenarios, res)
		if res.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		if !out.IsJSON() {
			printScenario(w, res, note)
		}
	}

	var failure string
	if result.Failed > 0 {
		failure = fmt.Sprintf("%d scenario(s) failed", result.Failed)
	}

	switch {
	case out.IsJSON() && failure == "":
		return out.Result(result, "")
	case out.IsJSON():
		if err := out.Failure("E_TEST_FAILED", failure, result, nil); err != nil {
			return err
		}
	default:
		fmt.Fprintf(w, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
		if failure == "" {
			fmt.Fprintln(w, "✓ All scenarios passed")
		}
	}

	if failure != "" {
		return NewExitError(ExitFailure, failure)
	}
	return nil
}

// findScenarioFiles returns the .yaml and .yml files under dir whose base
// name matches filter, in lexical order. Golden directories are skipped.
func findScenarioFiles(dir, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern %q: %w", filter, err)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case d.IsDir() && path != dir && d.Name() == "golden":
			return filepath.SkipDir
		case d.IsDir():
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			if ok, _ := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext)); !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// runScenario loads, runs and checks one scenario file. note annotates a
// passing scenario in text output.
//
// With update set the golden file is rewritten from the run. Otherwise the
// run must satisfy the scenario's assertions and, when a golden file exists,
// reproduce it byte for byte.
func runScenario(ctx context.Context, file string, update bool) (res ScenarioResult, note string) {
	res.Name = filepath.Base(file)

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		res.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return res, ""
	}
	res.Name = scenario.Name

	result, err := harness.RunContext(ctx, scenario)
	if err != nil {
		res.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return res, ""
	}

	goldenPath := harness.GoldenPath(file)
	if update {
		if err := harness.UpdateGolden(goldenPath, scenario.Name, result); err != nil {
			res.Errors = []string{fmt.Sprintf("failed to update golden file: %v", err)}
			return res, ""
		}
		res.Pass = true
		return res, "golden updated"
	}

	match, err := harness.MatchGolden(goldenPath, scenario.Name, result)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Assertions alone decide.
	case err != nil:
		res.Errors = []string{fmt.Sprintf("golden comparison failed: %v", err)}
		return res, ""
	case !match:
		res.Errors = []string{"Golden file mismatch (run with --update to regenerate)"}
		return res, ""
	}

	res.Pass = result.Pass
	res.Errors = result.Errors
	return res, ""
}

// printScenario writes one scenario's outcome as text.
func printScenario(w io.Writer, res ScenarioResult, note string) {
	if !res.Pass {
		fmt.Fprintf(w, "✗ %s\n", res.Name)
		for _, e := range res.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
		return
	}
	if note != "" {
		fmt.Fprintf(w, "✓ %s (%s)\n", res.Name, note)
		return
	}
	fmt.Fprintf(w, "✓ %s\n", res.Name)
}
