package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/tracefold/internal/checkpoint"
)

// RunSummary describes one checkpoint run.
type RunSummary struct {
	ID     string `json:"id"`
	Mode   string `json:"mode"`
	Terms  int    `json:"terms"`
	Chunks int    `json:"chunks"`
	Merged int    `json:"merged"`
	Done   bool   `json:"done"`
}

// RunsResult is the runs command's output.
type RunsResult struct {
	Runs []RunSummary `json:"runs"`
}

// String renders the runs as an aligned table.
func (r RunsResult) String() string {
	if len(r.Runs) == 0 {
		return "No runs."
	}
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODE\tTERMS\tMERGED\tSTATUS")
	for _, run := range r.Runs {
		status := "partial"
		if run.Done {
			status = "done"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d/%d\t%s\n", run.ID, run.Mode, run.Terms, run.Merged, run.Chunks, status)
	}
	w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs <checkpoint-dir>",
		Short: "List checkpoint runs",
		Long: `List the runs recorded in a checkpoint directory with how many of
their chunks have been merged.

Example:
  tracefold runs ./runs`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runRuns(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if _, err := os.Stat(dir); err != nil {
		return formatter.Fail(ErrCodeNotFound, ExitCommandError, fmt.Sprintf("checkpoint directory not found: %s", dir), err)
	}

	st, err := openStore(dir, nil)
	if err != nil {
		return formatter.Fail(ErrCodeCheckpoint, ExitCommandError, "failed to open checkpoint directory", err)
	}
	defer closeStore(st)

	runs, err := st.Runs(cmd.Context())
	if err != nil {
		return formatter.Fail(ErrCodeCheckpoint, ExitFailure, "failed to list runs", err)
	}

	result := RunsResult{Runs: make([]RunSummary, len(runs))}
	for i, run := range runs {
		result.Runs[i] = summarize(run)
	}
	return formatter.Success(result)
}

// summarize derives chunk progress from a run. Chunks merge in seq order,
// so MergedSeq+1 chunks are merged.
func summarize(run checkpoint.Run) RunSummary {
	chunks := (run.TotalTerms + run.PerFile - 1) / run.PerFile
	merged := run.MergedSeq + 1
	return RunSummary{
		ID:     run.ID,
		Mode:   string(run.Mode),
		Terms:  run.TotalTerms,
		Chunks: chunks,
		Merged: merged,
		Done:   merged == chunks,
	}
}
