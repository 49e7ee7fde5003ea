package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracefold/internal/term"
)

// createTestStore opens a store in a fresh directory with fixed run ids.
func createTestStore(t *testing.T, ids ...string) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), WithIDGenerator(NewFixedGenerator(ids...)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// markers returns a Sum of n distinct single-marker products.
func markers(n int) *term.Sum {
	s := term.NewSum()
	for i := 0; i < n; i++ {
		s.Add(term.NewProduct(term.NewParam(), term.NewMarker(i)))
	}
	return s
}

func TestOpen_CreatesManifest(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "checkpoints")

	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, ManifestFile))
	assert.NoError(t, err)
	assert.Equal(t, dir, s.Dir())
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_Idempotent(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 3; i++ {
		s, err := Open(dir)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, s.Close())
	}

	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	for _, table := range []string{"runs", "chunks"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		assert.NoError(t, err, "table %q", table)
	}
}

func TestCreateRun(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, "run-1")

	run, err := s.CreateRun(ctx, 5, ModeMerge)
	require.NoError(t, err)
	assert.Equal(t, Run{ID: "run-1", Mode: ModeMerge, PerFile: 5, MergedSeq: -1}, run)

	info, err := os.Stat(filepath.Join(s.Dir(), "run-1"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	got, err := s.Run(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run, got)
}

func TestCreateRun_InvalidPerFile(t *testing.T) {
	s := createTestStore(t, "run-1")

	_, err := s.CreateRun(context.Background(), 0, ModeMerge)
	assert.Error(t, err)
}

func TestCreateRun_UnknownMode(t *testing.T) {
	s := createTestStore(t, "run-1")

	_, err := s.CreateRun(context.Background(), 2, Mode("replay"))
	assert.Error(t, err)
}

func TestRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Run(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRuns_OrderedByID(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, "b-run", "a-run")

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)

	_, err = s.CreateRun(ctx, 2, ModeMerge)
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, 3, ModeMerge)
	require.NoError(t, err)

	runs, err = s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "a-run", runs[0].ID)
	assert.Equal(t, "b-run", runs[1].ID)
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		terms   int
		perFile int
		sizes   []int
	}{
		{name: "twelve by five", terms: 12, perFile: 5, sizes: []int{5, 5, 2}},
		{name: "twelve by six", terms: 12, perFile: 6, sizes: []int{6, 6}},
		{name: "fits one file", terms: 3, perFile: 10, sizes: []int{3}},
		{name: "one per file", terms: 3, perFile: 1, sizes: []int{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := createTestStore(t, "run")
			run, err := s.CreateRun(ctx, tt.perFile, ModeEvaluate)
			require.NoError(t, err)

			sum := markers(tt.terms)
			written, err := s.Split(ctx, run, sum)
			require.NoError(t, err)

			chunks, err := s.Chunks(ctx, run.ID)
			require.NoError(t, err)
			assert.Equal(t, written, chunks)
			require.Len(t, chunks, len(tt.sizes))

			var reloaded []term.Term
			for i, c := range chunks {
				assert.Equal(t, i, c.Seq)
				assert.Equal(t, ChunkFile(i), c.File)
				assert.Equal(t, tt.sizes[i], c.Terms)
				assert.False(t, c.Merged)

				part, err := s.Load(ctx, c)
				require.NoError(t, err)
				assert.Equal(t, c.Terms, part.Len())
				reloaded = append(reloaded, part.Terms...)
			}
			assert.True(t, term.Equal(sum, term.NewSum(reloaded...)))

			got, err := s.Run(ctx, run.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.terms, got.TotalTerms)
		})
	}
}

func TestSplit_Empty(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, "run")
	run, err := s.CreateRun(ctx, 4, ModeMerge)
	require.NoError(t, err)

	chunks, err := s.Split(ctx, run, term.NewSum())
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplit_UnknownRun(t *testing.T) {
	s := createTestStore(t)
	run := Run{ID: "ghost", PerFile: 2}
	require.NoError(t, os.MkdirAll(filepath.Join(s.Dir(), run.ID), 0o755))

	_, err := s.Split(context.Background(), run, markers(3))
	assert.Error(t, err)
}

func TestSplit_Cancelled(t *testing.T) {
	s := createTestStore(t, "run")
	run, err := s.CreateRun(context.Background(), 2, ModeMerge)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Split(ctx, run, markers(3))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplit_FileNames(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, "run")
	run, err := s.CreateRun(ctx, 2, ModeMerge)
	require.NoError(t, err)

	_, err = s.Split(ctx, run, markers(5))
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(s.Dir(), "run"))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"chunk-000000.json", "chunk-000001.json", "chunk-000002.json"}, names)
}

func TestLoad_DigestMismatch(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, "run")
	run, err := s.CreateRun(ctx, 2, ModeMerge)
	require.NoError(t, err)

	chunks, err := s.Split(ctx, run, markers(2))
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	path := filepath.Join(s.Dir(), "run", chunks[0].File)
	require.NoError(t, os.WriteFile(path, []byte(`{"kind":"sum","terms":[]}`), 0o644))

	_, err = s.Load(ctx, chunks[0])
	assert.ErrorIs(t, err, ErrDigestMismatch)
}

func TestLoad_MissingFile(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, "run")
	run, err := s.CreateRun(ctx, 2, ModeMerge)
	require.NoError(t, err)

	chunks, err := s.Split(ctx, run, markers(2))
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(s.Dir(), "run", chunks[0].File)))

	_, err = s.Load(ctx, chunks[0])
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAccumulator(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, "run")
	run, err := s.CreateRun(ctx, 2, ModeMerge)
	require.NoError(t, err)
	_, err = s.Split(ctx, run, markers(4))
	require.NoError(t, err)

	acc, seq, err := s.LoadAccumulator(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, -1, seq)
	assert.Equal(t, 0, acc.Len())

	want := markers(3)
	require.NoError(t, s.SaveAccumulator(ctx, run.ID, 0, want))

	acc, seq, err = s.LoadAccumulator(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, seq)
	assert.True(t, term.Equal(want, acc))

	chunks, err := s.Chunks(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, chunks[0].Merged)
	assert.False(t, chunks[1].Merged)

	got, err := s.Run(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.MergedSeq)
}

func TestAccumulator_UnknownRun(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, _, err := s.LoadAccumulator(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	require.NoError(t, os.MkdirAll(filepath.Join(s.Dir(), "missing"), 0o755))
	err = s.SaveAccumulator(ctx, "missing", 0, markers(1))
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestAccumulator_Tampered(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, "run")
	run, err := s.CreateRun(ctx, 2, ModeMerge)
	require.NoError(t, err)
	require.NoError(t, s.SaveAccumulator(ctx, run.ID, 0, markers(1)))

	path := filepath.Join(s.Dir(), "run", AccumulatorFile)
	require.NoError(t, os.WriteFile(path, []byte(`{"kind":"sum","terms":[]}`), 0o644))

	_, _, err = s.LoadAccumulator(ctx, run.ID)
	assert.ErrorIs(t, err, ErrDigestMismatch)
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", gen.Generate())
	assert.Equal(t, "b", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
