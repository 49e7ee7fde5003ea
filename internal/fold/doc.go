// Package fold implements the per-batch rewrites applied between
// canonicalization and merging: order and parity truncation, trace
// indexing, path integration over the diagonal atoms, the symbolic
// Fourier transform and dummy-index normalization.
//
// Every function takes a Sum and returns a Sum. A non-Sum input is a
// structural precondition violation: it is logged with slog.Error and an
// empty Sum is returned. A Sum child that is not a Product, zero or one is
// logged with slog.Warn and coerced into a one-factor Product; processing
// continues.
//
// Functions take ownership of their input. Callers that need the input
// afterwards Clone it first.
package fold
