package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/roach88/tracefold/internal/checkpoint"
	"github.com/roach88/tracefold/internal/merge"
	"github.com/roach88/tracefold/internal/term"
)

// CheckpointStore persists runs of chunk files. Implemented by
// *checkpoint.Store.
type CheckpointStore interface {
	CreateRun(ctx context.Context, perFile int, mode checkpoint.Mode) (checkpoint.Run, error)
	Run(ctx context.Context, id string) (checkpoint.Run, error)
	Split(ctx context.Context, run checkpoint.Run, sum *term.Sum) ([]checkpoint.Chunk, error)
	Chunks(ctx context.Context, runID string) ([]checkpoint.Chunk, error)
	Load(ctx context.Context, chunk checkpoint.Chunk) (*term.Sum, error)
	SaveAccumulator(ctx context.Context, runID string, seq int, sum *term.Sum) error
	LoadAccumulator(ctx context.Context, runID string) (*term.Sum, int, error)
}

// Checkpointed splits sum into files of at most FileTerms terms, then
// evaluates them one at a time, folding each result into the run's
// accumulator. It returns the run id and the merged result. sum is not
// modified.
func (e *Evaluator) Checkpointed(ctx context.Context, st CheckpointStore, sum *term.Sum) (string, *term.Sum, error) {
	return e.startRun(ctx, st, sum, checkpoint.ModeEvaluate)
}

// MergeCheckpointed splits an already evaluated sum into files of at most
// FileTerms terms and merges them back one at a time. The result equals a
// single merge over sum.
func (e *Evaluator) MergeCheckpointed(ctx context.Context, st CheckpointStore, sum *term.Sum) (string, *term.Sum, error) {
	return e.startRun(ctx, st, sum, checkpoint.ModeMerge)
}

// Resume finishes a run from its persisted accumulator, skipping the
// chunks already folded into it.
func (e *Evaluator) Resume(ctx context.Context, st CheckpointStore, runID string) (*term.Sum, error) {
	run, err := st.Run(ctx, runID)
	if err != nil {
		return nil, e.fail(checkpointError("resume", err))
	}
	return e.drain(ctx, st, run)
}

func (e *Evaluator) startRun(ctx context.Context, st CheckpointStore, sum *term.Sum, mode checkpoint.Mode) (string, *term.Sum, error) {
	run, err := st.CreateRun(ctx, e.cfg.FileTerms, mode)
	if err != nil {
		return "", nil, e.fail(checkpointError("create run", err))
	}

	chunks, err := st.Split(ctx, run, sum)
	if err != nil {
		return run.ID, nil, e.fail(checkpointError("split", err))
	}
	slog.Info("checkpoint written",
		"run", run.ID,
		"mode", mode,
		"terms", sum.Len(),
		"files", len(chunks))

	out, err := e.drain(ctx, st, run)
	return run.ID, out, err
}

// drain folds every chunk after the accumulator's seq into the
// accumulator, persisting it after each chunk.
func (e *Evaluator) drain(ctx context.Context, st CheckpointStore, run checkpoint.Run) (*term.Sum, error) {
	ctx, span := tracer.Start(ctx, "pipeline.drain")
	defer span.End()
	defer observe("checkpoint", time.Now())
	span.SetAttributes(attribute.String("run", run.ID), attribute.String("mode", string(run.Mode)))

	acc, last, err := st.LoadAccumulator(ctx, run.ID)
	if err != nil {
		return nil, e.fail(checkpointError("load accumulator", err))
	}
	chunks, err := st.Chunks(ctx, run.ID)
	if err != nil {
		return nil, e.fail(checkpointError("list chunks", err))
	}
	if last >= 0 {
		slog.Info("resuming checkpoint run", "run", run.ID, "merged_seq", last, "chunks", len(chunks))
	}

	prog := startProgress(e.progress)
	defer prog.stop()

	for _, c := range chunks {
		if c.Seq <= last {
			continue
		}

		part, err := st.Load(ctx, c)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, e.fail(checkpointError(fmt.Sprintf("load chunk %d", c.Seq), err))
		}

		if run.Mode == checkpoint.ModeEvaluate {
			part, err = e.ByParts(ctx, part)
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
		}

		acc.Add(part.Terms...)
		term.Reduce(acc)
		acc = merge.CombineBatched(acc, e.cfg.Pool)
		mergePasses.Inc()

		if err := st.SaveAccumulator(ctx, run.ID, c.Seq, acc); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, e.fail(checkpointError(fmt.Sprintf("save accumulator after chunk %d", c.Seq), err))
		}
		chunksEvaluated.WithLabelValues("checkpoint").Inc()
		prog.advance(StageCheckpoint, len(chunks))
		slog.Debug("checkpoint chunk merged", "run", run.ID, "seq", c.Seq, "terms", acc.Len())
	}

	if len(chunks) == 0 {
		acc = merge.CombineBatched(acc, e.cfg.Pool)
	}
	return acc, nil
}
