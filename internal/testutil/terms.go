package testutil

import "github.com/roach88/tracefold/internal/term"

// LikeTerms returns n first-order products spread round-robin over
// classes distinct contractions:
//
//	{A} {FourierSum[ ( 0, k ) ]} {1 / 1}    k = i mod classes
//
// Every class merges to a positive coefficient, so nothing cancels.
func LikeTerms(n, classes int) *term.Sum {
	s := term.NewSum()
	for i := 0; i < n; i++ {
		k := i % classes
		s.Add(term.NewProduct(
			term.NewParam(),
			term.NewContraction([]term.Pair{{I: 0, J: k}}, 1),
			term.NewFraction(1, 1),
		))
	}
	return s
}
