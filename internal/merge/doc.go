// Package merge combines like terms of an expanded Sum.
//
// Two Products are like terms when they have the same formal order and
// carry equal Contraction factors (compared as sets of unordered pairs).
// A Product without a Contraction is never a like term of anything.
//
// Combine keeps the first Product of every like-term class, strips its
// coefficient factors and appends the summed coefficient of the class as a
// single Fraction. The other members of the class are zeroed in place; a
// zeroed member later comes out as the zero coefficient "0 / 1" and is
// removed by the next Simplify.
//
// CombineBatched bounds the working set by merging contiguous chunks and
// re-merging their concatenation until no chunk boundary hides a match.
package merge
