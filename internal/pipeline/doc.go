// Package pipeline evaluates seed expressions too large to expand, fold
// and merge in one pass.
//
// ARCHITECTURE:
//
// Direct evaluation runs the whole chain on one Sum: canonicalize,
// truncate by formal order and parity, index traces, path integrate,
// expand, Fourier transform and merge like terms.
//
// Evaluation by parts splits a Sum into chunks of at most Pool terms and
// evaluates them on a bounded worker pool. Each worker owns a cloned chunk
// and writes its result into the slot of its chunk position, so the
// results array needs no locking. The chunk results are concatenated in
// position order and merged.
//
// Checkpointed evaluation persists the input as chunk files through a
// CheckpointStore, then streams them back in manifest order, folding each
// into a running accumulator that is persisted after every chunk.
//
// CRITICAL PATTERNS:
//
// Deterministic results:
// Chunk results are combined in chunk order, never in completion order.
// Progress reporting is diagnostic only and never feeds back into
// evaluation.
//
// Fail fast:
// The first worker error cancels the remaining work and is returned as a
// *Error. There is no partial-result salvage; a lost chunk would silently
// corrupt the merged Sum.
package pipeline
