package harness

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/tracefold/internal/checkpoint"
	"github.com/roach88/tracefold/internal/contraction"
	"github.com/roach88/tracefold/internal/merge"
	"github.com/roach88/tracefold/internal/pipeline"
	"github.com/roach88/tracefold/internal/series"
	"github.com/roach88/tracefold/internal/term"
	"github.com/roach88/tracefold/internal/testutil"
)

// Run executes a scenario and evaluates its assertions.
//
// Checkpoint runs use a fresh temporary directory that is removed
// afterwards. An error means the scenario could not run; failed
// assertions are reported through Result.Pass and Result.Errors.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	result := NewResult()

	var err error
	switch scenario.Kind {
	case KindEvaluate:
		err = runEvaluate(ctx, scenario, result)
	case KindEnumerate:
		err = runEnumerate(scenario, result)
	case KindMerge:
		err = runMerge(ctx, scenario, result)
	default:
		err = fmt.Errorf("unknown kind %q", scenario.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func runEvaluate(ctx context.Context, s *Scenario, result *Result) error {
	e, err := pipeline.New(s.Config())
	if err != nil {
		return err
	}

	a := series.Expanded(s.Config().Order, s.Flavors[0])
	b := series.Expanded(s.Config().Order, s.Flavors[1])

	var out *term.Sum
	if s.Checkpoint {
		err = withStore(func(st *checkpoint.Store) error {
			product := term.Expand(term.NewProduct(a, b))
			term.Reduce(product)

			runID, sum, err := e.Checkpointed(ctx, st, product)
			result.RunID, out = runID, sum
			return err
		})
	} else {
		out, err = e.ExpandAndEvaluate(ctx, a, b)
	}
	if err != nil {
		return err
	}

	record(result, out)
	return nil
}

func runEnumerate(s *Scenario, result *Result) error {
	patterns, err := contraction.NewEnumerator().Patterns(s.Points)
	if err != nil {
		return err
	}
	for _, p := range patterns {
		result.Output = append(result.Output, contraction.FormatShape(p.Shape))
		for _, sig := range p.Signatures {
			result.Output = append(result.Output, "  "+sig.String())
		}
		result.Terms += len(p.Signatures)
	}
	return nil
}

func runMerge(ctx context.Context, s *Scenario, result *Result) error {
	input, err := LoadInput(s.Input)
	if err != nil {
		return err
	}

	e, err := pipeline.New(s.Config())
	if err != nil {
		return err
	}

	var out *term.Sum
	err = withStore(func(st *checkpoint.Store) error {
		runID, sum, err := e.MergeCheckpointed(ctx, st, input.Clone().(*term.Sum))
		result.RunID, out = runID, sum
		return err
	})
	if err != nil {
		return err
	}

	record(result, out)
	result.SinglePass = merge.CombineBatched(input, s.Config().Pool).String()
	return nil
}

// LoadInput decodes a JSON term file that must hold a Sum.
func LoadInput(path string) (*term.Sum, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	t, err := term.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("input %s: %w", path, err)
	}
	sum, ok := t.(*term.Sum)
	if !ok {
		return nil, fmt.Errorf("input %s: expected a sum, got %s", path, t.Kind())
	}
	return sum, nil
}

// withStore opens a checkpoint store in a fresh temporary directory with
// sequential run ids and removes it after fn returns.
func withStore(fn func(*checkpoint.Store) error) error {
	dir, err := os.MkdirTemp("", "tracefold-scenario-")
	if err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	defer os.RemoveAll(dir)

	st, err := checkpoint.Open(dir, checkpoint.WithIDGenerator(testutil.NewSequentialIDs("run")))
	if err != nil {
		return err
	}
	defer st.Close()

	return fn(st)
}

func record(result *Result, out *term.Sum) {
	for _, t := range out.Terms {
		result.Output = append(result.Output, t.String())
	}
	result.Rendered = out.String()
	result.Terms = out.Len()
}
