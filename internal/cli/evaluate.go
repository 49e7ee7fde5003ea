package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/tracefold/internal/checkpoint"
	"github.com/roach88/tracefold/internal/pipeline"
	"github.com/roach88/tracefold/internal/series"
	"github.com/roach88/tracefold/internal/term"
)

// EvaluateOptions holds flags for the evaluate command.
type EvaluateOptions struct {
	*RootOptions
	ConfigFlags

	CheckpointDir string
	FlavorA       string
	FlavorB       string

	// IDGenerator overrides the checkpoint run id generator (for testing).
	// If nil, defaults to checkpoint.UUIDv7Generator.
	IDGenerator checkpoint.IDGenerator
}

// EvaluateResult is the evaluate command's output.
type EvaluateResult struct {
	RunID    string `json:"run_id,omitempty"`
	Terms    int    `json:"terms"`
	Rendered string `json:"rendered"`
}

// String renders the result for text output.
func (r EvaluateResult) String() string {
	return r.Rendered
}

// NewEvaluateCommand creates the evaluate command.
func NewEvaluateCommand(rootOpts *RootOptions) *cobra.Command {
	return newEvaluateWith(&EvaluateOptions{RootOptions: rootOpts})
}

func newEvaluateWith(opts *EvaluateOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a determinant product",
		Long: `Build det(1 + A K_a S) and det(1 + A K_b S) to the given order, expand
their product and evaluate it into a merged sum of contraction classes.

Without --checkpoint-dir the product is expanded one term of the first
determinant at a time, each evaluated in parallel chunks. With it, the
expanded product is split into checkpoint files that are evaluated and
merged one at a time; an interrupted run can be finished with
"tracefold merge".

Flags override values from --config.

Examples:
  tracefold evaluate --order 4
  tracefold evaluate --order 6 --workers 16 --checkpoint-dir ./runs
  tracefold evaluate --config ./order6.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(opts, cmd)
		},
	}

	opts.ConfigFlags.register(cmd)
	cmd.Flags().StringVar(&opts.CheckpointDir, "checkpoint-dir", "", "evaluate through checkpoint files in this directory")
	cmd.Flags().StringVar(&opts.FlavorA, "flavor-a", "up", "flavor of the first determinant")
	cmd.Flags().StringVar(&opts.FlavorB, "flavor-b", "dn", "flavor of the second determinant")

	return cmd
}

func runEvaluate(opts *EvaluateOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := opts.ConfigFlags.resolve(cmd)
	if err != nil {
		return formatter.Fail(ErrCodeInvalidConfig, ExitCommandError, "invalid configuration", err)
	}
	slog.Debug("configuration", "order", cfg.Order, "even_only", cfg.EvenOnly,
		"pool", cfg.Pool, "workers", cfg.Workers, "file_terms", cfg.FileTerms)

	ctx, stop := signalContext(cmd)
	defer stop()

	var result EvaluateResult
	err = withEvaluator(cfg, formatter, func(e *pipeline.Evaluator) error {
		a := series.Expanded(cfg.Order, opts.FlavorA)
		b := series.Expanded(cfg.Order, opts.FlavorB)
		slog.Info("determinants expanded", "left", a.Len(), "right", b.Len())

		var out *term.Sum
		var err error
		if opts.CheckpointDir != "" {
			result.RunID, out, err = checkpointed(ctx, e, opts, a, b)
		} else {
			out, err = e.ExpandAndEvaluate(ctx, a, b)
		}
		if err != nil {
			return err
		}
		result.Terms, result.Rendered = out.Len(), out.String()
		return nil
	})
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return formatter.Fail(ErrCodeCheckpoint, exitErr.Code, exitErr.Message, exitErr.Err)
		}
		code, exit := classify(err)
		return formatter.Fail(code, exit, "evaluation failed", err)
	}

	slog.Info("evaluation finished", "terms", result.Terms, "run", result.RunID)
	return formatter.Success(result)
}

func checkpointed(ctx context.Context, e *pipeline.Evaluator, opts *EvaluateOptions, a, b *term.Sum) (string, *term.Sum, error) {
	st, err := openStore(opts.CheckpointDir, opts.IDGenerator)
	if err != nil {
		return "", nil, WrapExitError(ExitCommandError, "failed to open checkpoint directory", err)
	}
	defer closeStore(st)

	product := term.Expand(term.NewProduct(a, b))
	term.Reduce(product)
	slog.Info("product expanded", "terms", product.Len())

	return e.Checkpointed(ctx, st, product)
}

// withEvaluator builds an evaluator for cfg and runs fn with it. In verbose
// mode, progress reports are printed to the diagnostic writer.
func withEvaluator(cfg pipeline.Config, formatter *OutputFormatter, fn func(*pipeline.Evaluator) error) error {
	var opts []pipeline.Option
	done := make(chan struct{})
	if formatter.Verbose {
		events := make(chan pipeline.Progress, 64)
		opts = append(opts, pipeline.WithProgress(events))
		go func() {
			defer close(done)
			for ev := range events {
				formatter.VerboseLog("%s %d/%d", ev.Stage, ev.Done, ev.Total)
			}
		}()
		defer func() {
			close(events)
			<-done
		}()
	}

	e, err := pipeline.New(cfg, opts...)
	if err != nil {
		return err
	}
	return fn(e)
}

func openStore(dir string, ids checkpoint.IDGenerator) (*checkpoint.Store, error) {
	var opts []checkpoint.Option
	if ids != nil {
		opts = append(opts, checkpoint.WithIDGenerator(ids))
	}
	slog.Info("opening checkpoint directory", "dir", dir)
	return checkpoint.Open(dir, opts...)
}

func closeStore(st *checkpoint.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing checkpoint manifest", "error", err)
	}
}

// signalContext returns the command's context, cancelled on SIGINT or
// SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, cancelling", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
