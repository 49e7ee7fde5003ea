// Package contraction enumerates the index-pairing patterns used to fold
// nested index sums into closed forms.
//
// For a point count n, Shapes lists the ways to group the points into
// chains of at least two. Each shape has a canonical Signature laid out
// over 0..n-1: tied pairs chain the points of a group together, broken
// pairs separate adjacent groups. Assignments enumerates every way to hand
// concrete labels to the groups, and Realize relabels the canonical
// signature through each assignment, keeping the first member of every
// degenerate class.
//
// # Critical Patterns
//
// Assignments is exponential in n. Callers go through an Enumerator, which
// caches realized signatures per shape, shares concurrent computations and
// refuses point counts above MaxPoints.
//
// The sine-power path-integral constants live in an immutable Table built
// once by DefaultTable and passed explicitly to the code that needs it.
package contraction
