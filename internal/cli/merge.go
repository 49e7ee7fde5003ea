package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tracefold/internal/checkpoint"
	"github.com/roach88/tracefold/internal/pipeline"
)

// MergeOptions holds flags for the merge command.
type MergeOptions struct {
	*RootOptions
	ConfigFlags
}

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MergeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "merge <checkpoint-dir> <run-id>",
		Short: "Finish a checkpoint run",
		Long: `Resume a checkpoint run from its saved accumulator, folding in every
chunk not merged yet, and print the final sum. A finished run prints its
stored result.

Runs started by "evaluate" evaluate their remaining chunks, so pass the
same --order, --odd and --config values the run was started with.

Example:
  tracefold merge ./runs 01936c4e-7a8b-7c3d-9e1f-2a3b4c5d6e7f`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(opts, args[0], args[1], cmd)
		},
	}

	opts.ConfigFlags.register(cmd)
	return cmd
}

func runMerge(opts *MergeOptions, dir, runID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(dir); err != nil {
		return formatter.Fail(ErrCodeNotFound, ExitCommandError, fmt.Sprintf("checkpoint directory not found: %s", dir), err)
	}

	cfg, err := opts.ConfigFlags.resolve(cmd)
	if err != nil {
		return formatter.Fail(ErrCodeInvalidConfig, ExitCommandError, "invalid configuration", err)
	}

	st, err := openStore(dir, nil)
	if err != nil {
		return formatter.Fail(ErrCodeCheckpoint, ExitCommandError, "failed to open checkpoint directory", err)
	}
	defer closeStore(st)

	ctx, stop := signalContext(cmd)
	defer stop()

	var result EvaluateResult
	err = withEvaluator(cfg, formatter, func(e *pipeline.Evaluator) error {
		out, err := e.Resume(ctx, st, runID)
		if err != nil {
			return err
		}
		result = EvaluateResult{RunID: runID, Terms: out.Len(), Rendered: out.String()}
		return nil
	})
	if err != nil {
		if errors.Is(err, checkpoint.ErrRunNotFound) {
			return formatter.Fail(ErrCodeNotFound, ExitCommandError, fmt.Sprintf("run not found: %s", runID), err)
		}
		code, exit := classify(err)
		return formatter.Fail(code, exit, "merge failed", err)
	}

	slog.Info("run merged", "run", runID, "terms", result.Terms)
	return formatter.Success(result)
}
