package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/tracefold/internal/contraction"
	"github.com/roach88/tracefold/internal/fold"
	"github.com/roach88/tracefold/internal/merge"
	"github.com/roach88/tracefold/internal/term"
)

// Evaluator runs the evaluation pipeline with a fixed Config.
//
// Thread-safety: an Evaluator is safe for concurrent use. The enumerator
// caches patterns behind its own lock; the sine table is read-only.
type Evaluator struct {
	cfg      Config
	enum     *contraction.Enumerator
	table    *contraction.Table
	progress chan<- Progress

	// onFactor, when set, runs as each term of the left factor starts.
	onFactor func(i int)
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithProgress forwards progress reports to ch. Reports are dropped while
// ch is not ready to receive.
func WithProgress(ch chan<- Progress) Option {
	return func(e *Evaluator) {
		e.progress = ch
	}
}

// WithEnumerator shares a pattern cache between evaluators.
func WithEnumerator(enum *contraction.Enumerator) Option {
	return func(e *Evaluator) {
		e.enum = enum
	}
}

// New creates an Evaluator after validating cfg.
func New(cfg Config, opts ...Option) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Evaluator{
		cfg:   cfg,
		enum:  contraction.NewEnumerator(),
		table: contraction.DefaultTable(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the evaluator's configuration.
func (e *Evaluator) Config() Config {
	return e.cfg
}

// Direct evaluates sum in one pass and returns the merged normal form.
// It takes ownership of sum.
func (e *Evaluator) Direct(ctx context.Context, sum *term.Sum) (*term.Sum, error) {
	if err := ctx.Err(); err != nil {
		return nil, cancelledError("direct", err)
	}
	defer observe("direct", time.Now())

	term.Reduce(sum)
	s := fold.TruncateOrder(sum, e.cfg.Order)
	if e.cfg.EvenOnly {
		s = fold.TruncateOdd(s)
	}
	s = fold.SortTraces(s)
	s = fold.IndexTraces(s)
	term.Reduce(s)

	s, err := fold.PathIntegrate(s, e.enum, e.table)
	if err != nil {
		return nil, e.fail(&Error{Code: ErrCodeEvaluation, Op: "path integrate", Err: err})
	}
	term.Reduce(s)
	term.Simplify(s)

	s = term.Expand(s)
	term.Reduce(s)
	term.Simplify(s)

	s = fold.FourierTransform(s)
	s = fold.ReduceDummyIndices(s)
	s = merge.CombineBatched(s, e.cfg.Pool)
	term.Simplify(s)

	termsEvaluated.Add(float64(s.Len()))
	return s, nil
}

// ByParts evaluates sum in chunks of at most Pool terms on up to Workers
// goroutines and merges the chunk results. sum is not modified.
func (e *Evaluator) ByParts(ctx context.Context, sum *term.Sum) (*term.Sum, error) {
	if sum.Len() <= e.cfg.Pool {
		return e.Direct(ctx, sum.Clone().(*term.Sum))
	}

	ctx, span := tracer.Start(ctx, "pipeline.ByParts")
	defer span.End()
	defer observe("by_parts", time.Now())

	n := (sum.Len() + e.cfg.Pool - 1) / e.cfg.Pool
	span.SetAttributes(attribute.Int("terms", sum.Len()), attribute.Int("chunks", n))
	slog.Info("evaluating by parts", "terms", sum.Len(), "chunks", n, "workers", e.cfg.Workers)

	prog := startProgress(e.progress)
	defer prog.stop()

	results := make([]*term.Sum, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i := 0; i < n; i++ {
		from := i * e.cfg.Pool
		to := min(from+e.cfg.Pool, sum.Len())

		g.Go(func() error {
			slog.Debug("evaluating chunk", "chunk", i, "from", from, "to", to)
			res, err := e.Direct(gctx, sum.Slice(from, to))
			if err != nil {
				return err
			}
			results[i] = res
			chunksEvaluated.WithLabelValues("parallel").Inc()
			prog.advance(StageChunk, n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return e.mergeResults(results), nil
}

// ExpandAndEvaluate evaluates the product a × b one term of a at a time:
// each term is expanded against b and evaluated by parts into its own
// slot, on up to Workers goroutines, and the slots are merged. Neither
// input is modified.
func (e *Evaluator) ExpandAndEvaluate(ctx context.Context, a, b *term.Sum) (*term.Sum, error) {
	ctx, span := tracer.Start(ctx, "pipeline.ExpandAndEvaluate")
	defer span.End()
	defer observe("expand_and_evaluate", time.Now())

	span.SetAttributes(attribute.Int("left", a.Len()), attribute.Int("right", b.Len()))
	slog.Info("expanding product", "left", a.Len(), "right", b.Len(), "workers", e.cfg.Workers)

	prog := startProgress(e.progress)
	defer prog.stop()

	results := make([]*term.Sum, a.Len())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, t := range a.Terms {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return cancelledError("expand", err)
			}
			if e.onFactor != nil {
				e.onFactor(i)
			}

			expanded := term.Expand(term.NewProduct(t.Clone(), b.Clone()))
			term.Reduce(expanded)
			slog.Debug("expanded factor", "term", i, "terms", expanded.Len())

			res, err := e.ByParts(gctx, expanded)
			if err != nil {
				return err
			}
			results[i] = res
			prog.advance(StageFactor, a.Len())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, cancelledError("expand", err)
	}

	return e.mergeResults(results), nil
}

// mergeResults concatenates results in slot order and merges them.
func (e *Evaluator) mergeResults(results []*term.Sum) *term.Sum {
	out := term.NewSum()
	for _, r := range results {
		out.Add(r.Terms...)
	}
	term.Reduce(out)

	mergePasses.Inc()
	return merge.CombineBatched(out, e.cfg.Pool)
}

// fail counts err by code and returns it. Only the step that creates an
// *Error calls it.
func (e *Evaluator) fail(err error) error {
	var pe *Error
	if errors.As(err, &pe) {
		failures.WithLabelValues(string(pe.Code)).Inc()
	}
	return err
}

func observe(stage string, start time.Time) {
	stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
