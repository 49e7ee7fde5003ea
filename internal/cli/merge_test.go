package cli

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracefold/internal/checkpoint"
	"github.com/roach88/tracefold/internal/merge"
	"github.com/roach88/tracefold/internal/pipeline"
	"github.com/roach88/tracefold/internal/term"
	"github.com/roach88/tracefold/internal/testutil"
)

// failAfter fails SaveAccumulator once allowed saves have succeeded.
type failAfter struct {
	pipeline.CheckpointStore
	allowed int
}

func (f *failAfter) SaveAccumulator(ctx context.Context, runID string, seq int, sum *term.Sum) error {
	if f.allowed == 0 {
		return errors.New("interrupted")
	}
	f.allowed--
	return f.CheckpointStore.SaveAccumulator(ctx, runID, seq, sum)
}

// partialRun leaves a merge run of 12 like terms in dir with one of its
// three chunks merged.
func partialRun(t *testing.T, dir string) string {
	t.Helper()
	st, err := checkpoint.Open(dir, checkpoint.WithIDGenerator(testutil.NewSequentialIDs("run")))
	require.NoError(t, err)
	defer st.Close()

	cfg := pipeline.DefaultConfig()
	cfg.FileTerms = 5
	e, err := pipeline.New(cfg)
	require.NoError(t, err)

	runID, _, err := e.MergeCheckpointed(context.Background(), &failAfter{CheckpointStore: st, allowed: 1}, testutil.LikeTerms(12, 3))
	require.Error(t, err)
	return runID
}

func TestMerge_ResumesPartialRun(t *testing.T) {
	dir := t.TempDir()
	runID := partialRun(t, dir)
	require.Equal(t, "run-0001", runID)

	runs, err := execute(t, NewRunsCommand(&RootOptions{Format: "json"}), dir)
	require.NoError(t, err)
	var before struct {
		Data RunsResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(runs), &before))
	assert.Equal(t, []RunSummary{
		{ID: "run-0001", Mode: "merge", Terms: 12, Chunks: 3, Merged: 1, Done: false},
	}, before.Data.Runs)

	out, err := execute(t, NewMergeCommand(&RootOptions{Format: "text"}), dir, runID)
	require.NoError(t, err)
	want := merge.CombineBatched(testutil.LikeTerms(12, 3), pipeline.DefaultPool)
	assert.Equal(t, want.String()+"\n", out)

	runs, err = execute(t, NewRunsCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, runs, "run-0001")
	assert.Contains(t, runs, "3/3")
	assert.Contains(t, runs, "done")
}

func TestMerge_UnknownRun(t *testing.T) {
	dir := t.TempDir()
	partialRun(t, dir)

	_, err := execute(t, NewMergeCommand(&RootOptions{Format: "text"}), dir, "run-0009")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "run not found: run-0009")
}

func TestMerge_MissingDirectory(t *testing.T) {
	_, err := execute(t, NewMergeCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "nope"), "run-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "checkpoint directory not found")
}

func TestRuns_Empty(t *testing.T) {
	out, err := execute(t, NewRunsCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No runs.\n", out)
}

func TestRuns_MissingDirectory(t *testing.T) {
	_, err := execute(t, NewRunsCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		run  checkpoint.Run
		want RunSummary
	}{
		{
			name: "fresh",
			run:  checkpoint.Run{ID: "a", Mode: checkpoint.ModeEvaluate, PerFile: 5, TotalTerms: 12, MergedSeq: -1},
			want: RunSummary{ID: "a", Mode: "evaluate", Terms: 12, Chunks: 3, Merged: 0},
		},
		{
			name: "finished",
			run:  checkpoint.Run{ID: "b", Mode: checkpoint.ModeMerge, PerFile: 6, TotalTerms: 12, MergedSeq: 1},
			want: RunSummary{ID: "b", Mode: "merge", Terms: 12, Chunks: 2, Merged: 2, Done: true},
		},
		{
			name: "empty",
			run:  checkpoint.Run{ID: "c", Mode: checkpoint.ModeMerge, PerFile: 6, MergedSeq: -1},
			want: RunSummary{ID: "c", Mode: "merge", Done: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, summarize(tt.run))
		})
	}
}
