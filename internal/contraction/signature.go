package contraction

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/tracefold/internal/term"
)

// ErrInvalidCount is returned for a point count that is not even and
// positive.
var ErrInvalidCount = errors.New("contraction: point count must be even and positive")

// Signature is one index-pairing pattern: tied pairs must carry equal
// labels, broken pairs must carry distinct ones.
type Signature struct {
	Tied   []term.Pair
	Broken []term.Pair
}

// String renders "{ [ ( 0, 1 )  ( 2, 3 ) ] | [ ( 1, 2 ) ] }".
func (s Signature) String() string {
	return "{ " + formatPairs(s.Tied) + " | " + formatPairs(s.Broken) + " }"
}

func formatPairs(pairs []term.Pair) string {
	if len(pairs) == 0 {
		return "[]"
	}
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.String()
	}
	return "[ " + strings.Join(parts, "  ") + " ]"
}

// Shapes returns the contraction shapes of n points: [n] followed by every
// shape of n-2 prefixed with a 2.
func Shapes(n int) ([][]int, error) {
	if n <= 0 || n%2 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}
	if n == 2 {
		return [][]int{{2}}, nil
	}

	rest, err := Shapes(n - 2)
	if err != nil {
		return nil, err
	}
	out := make([][]int, 0, len(rest)+1)
	out = append(out, []int{n})
	for _, shape := range rest {
		out = append(out, append([]int{2}, shape...))
	}
	return out, nil
}

// Canonical lays the groups of shape out contiguously over 0..n-1. Each
// group of size g at offset o ties (o, o+1) .. (o+g-2, o+g-1); each
// boundary between adjacent groups breaks (e, e+1) where e ends the
// earlier group.
func Canonical(shape []int) Signature {
	var sig Signature
	offset := 0
	for k, g := range shape {
		for i := offset; i < offset+g-1; i++ {
			sig.Tied = append(sig.Tied, term.Pair{I: i, J: i + 1})
		}
		end := offset + g - 1
		if k < len(shape)-1 {
			sig.Broken = append(sig.Broken, term.Pair{I: end, J: end + 1})
		}
		offset += g
	}
	return sig
}

// Points returns the number of points a shape covers.
func Points(shape []int) int {
	n := 0
	for _, g := range shape {
		n += g
	}
	return n
}

// Combinations returns every size-k subset of pool in ascending
// lexicographic order of positions. k == 0 yields nothing.
func Combinations(pool []int, k int) [][]int {
	if k <= 0 || k > len(pool) {
		return nil
	}

	var out [][]int
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		combo := make([]int, k)
		for i, j := range idx {
			combo[i] = pool[j]
		}
		out = append(out, combo)

		// Advance the rightmost index that still has room.
		i := k - 1
		for i >= 0 && idx[i] == len(pool)-k+i {
			i--
		}
		if i < 0 {
			return out
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// Assignments enumerates the ways to hand the labels in pool to the groups
// of shape, in group order. Each result is a permutation of pool whose
// first shape[0] entries label the first group, and so on.
func Assignments(shape []int, pool []int) [][]int {
	if len(shape) == 0 {
		return nil
	}
	if len(shape) == 1 {
		return [][]int{slices.Clone(pool)}
	}

	var out [][]int
	for _, combo := range Combinations(pool, shape[0]) {
		rest := without(pool, combo)
		for _, tail := range Assignments(shape[1:], rest) {
			assignment := make([]int, 0, len(pool))
			assignment = append(assignment, combo...)
			assignment = append(assignment, tail...)
			out = append(out, assignment)
		}
	}
	return out
}

func without(pool, drop []int) []int {
	out := make([]int, 0, len(pool)-len(drop))
	for _, v := range pool {
		if !slices.Contains(drop, v) {
			out = append(out, v)
		}
	}
	return out
}

// Realize relabels sig through every assignment (position k becomes
// assignment[k]) and keeps each concrete signature unless an earlier kept
// one is degenerate with it.
func Realize(assignments [][]int, sig Signature) []Signature {
	var kept []Signature
	for _, assignment := range assignments {
		concrete := Signature{
			Tied:   relabel(sig.Tied, assignment),
			Broken: relabel(sig.Broken, assignment),
		}
		if slices.ContainsFunc(kept, func(k Signature) bool { return Degenerate(k, concrete) }) {
			continue
		}
		kept = append(kept, concrete)
	}
	return kept
}

func relabel(pairs []term.Pair, assignment []int) []term.Pair {
	out := make([]term.Pair, len(pairs))
	for i, p := range pairs {
		out[i] = term.Pair{I: assignment[p.I], J: assignment[p.J]}
	}
	return out
}

// Degenerate reports whether a and b tie the same label pairs, ignoring
// pair order and orientation. Broken pairs are not compared.
func Degenerate(a, b Signature) bool {
	if len(a.Tied) != len(b.Tied) {
		return false
	}
	return slices.Equal(canonicalPairs(a.Tied), canonicalPairs(b.Tied))
}

func canonicalPairs(pairs []term.Pair) []term.Pair {
	return term.NewContraction(pairs, len(pairs)).Canonical()
}
