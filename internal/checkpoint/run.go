package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/tracefold/internal/term"
)

// AccumulatorFile is the running merge result of a run.
const AccumulatorFile = "accumulator.json"

// Mode tells a resumed run what to do with each chunk.
type Mode string

const (
	// ModeEvaluate chunks hold unevaluated input; each is evaluated before
	// it is merged.
	ModeEvaluate Mode = "evaluate"

	// ModeMerge chunks hold evaluated terms that only need merging.
	ModeMerge Mode = "merge"
)

// Run is one checkpointed evaluation.
type Run struct {
	ID         string
	Mode       Mode
	PerFile    int
	TotalTerms int
	// MergedSeq is the seq of the last chunk folded into the accumulator,
	// or -1 before the first.
	MergedSeq int
}

// Chunk is one manifest entry.
type Chunk struct {
	RunID  string
	Seq    int
	File   string
	Terms  int
	Digest string
	Merged bool
}

// ChunkFile returns the file name for a zero-based chunk sequence number.
func ChunkFile(seq int) string {
	return fmt.Sprintf("chunk-%06d.json", seq)
}

// CreateRun registers a run whose chunks hold at most perFile terms.
func (s *Store) CreateRun(ctx context.Context, perFile int, mode Mode) (Run, error) {
	if perFile < 1 {
		return Run{}, fmt.Errorf("create run: per-file term count must be positive, got %d", perFile)
	}
	if mode != ModeEvaluate && mode != ModeMerge {
		return Run{}, fmt.Errorf("create run: unknown mode %q", mode)
	}

	run := Run{ID: s.ids.Generate(), Mode: mode, PerFile: perFile, MergedSeq: -1}
	if err := os.MkdirAll(s.runDir(run.ID), 0o755); err != nil {
		return Run{}, fmt.Errorf("create run directory: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, mode, per_file) VALUES (?, ?, ?)
	`, run.ID, string(run.Mode), run.PerFile)
	if err != nil {
		return Run{}, fmt.Errorf("create run: %w", err)
	}

	slog.Debug("checkpoint run created", "run", run.ID, "mode", mode, "per_file", perFile)
	return run, nil
}

// Run returns the manifest entry for id.
func (s *Store) Run(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, mode, per_file, total_terms, accumulator_seq
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	return run, nil
}

// Runs lists all runs ordered by id.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mode, per_file, total_terms, accumulator_seq
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var mode string
	err := row.Scan(&run.ID, &mode, &run.PerFile, &run.TotalTerms, &run.MergedSeq)
	run.Mode = Mode(mode)
	return run, err
}

// Split writes sum as consecutive chunk files of at most run.PerFile terms
// and records them in the manifest in one transaction. An empty Sum
// produces no chunks.
func (s *Store) Split(ctx context.Context, run Run, sum *term.Sum) ([]Chunk, error) {
	if run.PerFile < 1 {
		return nil, fmt.Errorf("split: run %s has invalid per-file count %d", run.ID, run.PerFile)
	}

	var chunks []Chunk
	for from, seq := 0, 0; from < sum.Len(); from, seq = from+run.PerFile, seq+1 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("split: %w", err)
		}

		to := min(from+run.PerFile, sum.Len())
		part := term.NewSum(sum.Terms[from:to]...)
		data, err := term.Marshal(part)
		if err != nil {
			return nil, fmt.Errorf("split: encode chunk %d: %w", seq, err)
		}

		chunk := Chunk{
			RunID:  run.ID,
			Seq:    seq,
			File:   ChunkFile(seq),
			Terms:  to - from,
			Digest: term.ChunkDigest(data),
		}
		if err := writeFileAtomic(filepath.Join(s.runDir(run.ID), chunk.File), data); err != nil {
			return nil, fmt.Errorf("split: %w", err)
		}
		slog.Debug("checkpoint chunk written", "run", run.ID, "seq", seq, "terms", chunk.Terms)
		chunks = append(chunks, chunk)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("split: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, c := range chunks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO chunks (run_id, seq, file, terms, digest)
			VALUES (?, ?, ?, ?, ?)
		`, c.RunID, c.Seq, c.File, c.Terms, c.Digest)
		if err != nil {
			return nil, fmt.Errorf("split: insert chunk %d: %w", c.Seq, err)
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE runs SET total_terms = total_terms + ? WHERE id = ?
	`, sum.Len(), run.ID)
	if err != nil {
		return nil, fmt.Errorf("split: update run: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("split: rows affected: %w", err)
	} else if n == 0 {
		return nil, fmt.Errorf("split: %w: %s", ErrRunNotFound, run.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("split: commit: %w", err)
	}
	return chunks, nil
}

// Chunks returns the manifest entries of a run in seq order.
//
// Returns an empty slice (not nil) if the run has no chunks.
func (s *Store) Chunks(ctx context.Context, runID string) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, file, terms, digest, merged
		FROM chunks
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	chunks := []Chunk{}
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.RunID, &c.Seq, &c.File, &c.Terms, &c.Digest, &c.Merged); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return chunks, nil
}

// Load reads a chunk file, verifies its digest and decodes it.
func (s *Store) Load(ctx context.Context, chunk Chunk) (*term.Sum, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load chunk %d: %w", chunk.Seq, err)
	}

	sum, err := s.readSum(filepath.Join(s.runDir(chunk.RunID), chunk.File), chunk.Digest)
	if err != nil {
		return nil, fmt.Errorf("load chunk %d: %w", chunk.Seq, err)
	}
	return sum, nil
}

// SaveAccumulator persists the running merge result of a run after the
// chunk seq has been folded into it, and marks that chunk merged.
func (s *Store) SaveAccumulator(ctx context.Context, runID string, seq int, sum *term.Sum) error {
	data, err := term.Marshal(sum)
	if err != nil {
		return fmt.Errorf("save accumulator: encode: %w", err)
	}
	digest := term.ChunkDigest(data)

	if err := writeFileAtomic(filepath.Join(s.runDir(runID), AccumulatorFile), data); err != nil {
		return fmt.Errorf("save accumulator: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save accumulator: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		UPDATE runs SET accumulator_seq = ?, accumulator_digest = ? WHERE id = ?
	`, seq, digest, runID)
	if err != nil {
		return fmt.Errorf("save accumulator: update run: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("save accumulator: rows affected: %w", err)
	} else if n == 0 {
		return fmt.Errorf("save accumulator: %w: %s", ErrRunNotFound, runID)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE chunks SET merged = 1 WHERE run_id = ? AND seq = ?
	`, runID, seq); err != nil {
		return fmt.Errorf("save accumulator: mark chunk %d: %w", seq, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save accumulator: commit: %w", err)
	}
	return nil
}

// LoadAccumulator returns the running merge result of a run and the seq of
// the last chunk folded into it. Before the first save it returns an empty
// Sum and -1.
func (s *Store) LoadAccumulator(ctx context.Context, runID string) (*term.Sum, int, error) {
	var seq int
	var digest string
	err := s.db.QueryRowContext(ctx, `
		SELECT accumulator_seq, accumulator_digest FROM runs WHERE id = ?
	`, runID).Scan(&seq, &digest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("load accumulator: %w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load accumulator: %w", err)
	}

	if seq < 0 {
		return term.NewSum(), -1, nil
	}

	sum, err := s.readSum(filepath.Join(s.runDir(runID), AccumulatorFile), digest)
	if err != nil {
		return nil, 0, fmt.Errorf("load accumulator: %w", err)
	}
	return sum, seq, nil
}

func (s *Store) runDir(runID string) string {
	return filepath.Join(s.dir, runID)
}

func (s *Store) readSum(path, digest string) (*term.Sum, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if got := term.ChunkDigest(data); got != digest {
		return nil, fmt.Errorf("%w: %s", ErrDigestMismatch, filepath.Base(path))
	}

	t, err := term.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	sum, ok := t.(*term.Sum)
	if !ok {
		return nil, fmt.Errorf("decode %s: expected a sum, got %s", filepath.Base(path), t.Kind())
	}
	return sum, nil
}

// writeFileAtomic writes data next to path and renames it into place once
// it is synced and closed.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
