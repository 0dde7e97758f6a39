package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/soralvi/internal/catalog"
)

// ListEntry describes one catalog algorithm.
type ListEntry struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"` // empty for inline code
	Elements    int    `json:"elements,omitempty"`
}

// ListResult holds the list command output.
type ListResult struct {
	Algorithms []ListEntry `json:"algorithms"`
	FileCount  int         `json:"file_count"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <catalog-dir>",
		Short: "List the algorithms of a CUE catalog",
		Long: `List the algorithms defined in a CUE catalog directory.

Every entry is validated; any invalid entry fails the command with its
CUE position.

Examples:
  soralvi list ./algorithms
  soralvi list ./algorithms --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runList(opts *RootOptions, dir string, cmd *cobra.Command) error {
	o := opts.output(cmd)

	result, errs := catalog.Load(dir, catalog.LoadModeCollectAll)
	if len(errs) > 0 {
		messages := make([]string, len(errs))
		for i, err := range errs {
			messages[i] = err.Error()
		}
		if err := o.Failure("E_CATALOG", fmt.Sprintf("%d catalog error(s)", len(errs)), nil, messages); err != nil {
			return err
		}
		return WrapExitError(ExitCommandError, "invalid catalog", errs[0])
	}

	out := ListResult{
		Algorithms: make([]ListEntry, 0, len(result.Algorithms)),
		FileCount:  result.FileCount,
	}
	for _, a := range result.Algorithms {
		out.Algorithms = append(out.Algorithms, ListEntry{
			Name:        a.Name,
			Description: a.Description,
			Source:      a.Source,
			Elements:    a.Elements,
		})
	}

	if o.IsJSON() {
		return o.Result(out, "")
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%d algorithm(s) in %d file(s)\n", len(out.Algorithms), out.FileCount)
	for _, a := range out.Algorithms {
		origin := "inline"
		if a.Source != "" {
			origin = a.Source
		}
		line := fmt.Sprintf("  %-12s %s", a.Name, origin)
		if a.Elements > 0 {
			line += fmt.Sprintf(" (%d elements)", a.Elements)
		}
		fmt.Fprintln(w, line)
		if a.Description != "" {
			fmt.Fprintf(w, "    %s\n", a.Description)
		}
	}
	return nil
}
