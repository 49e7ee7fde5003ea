package fold

import (
	"fmt"

	"github.com/roach88/tracefold/internal/contraction"
	"github.com/roach88/tracefold/internal/term"
)

// Integral builds the coordinate-space path integral over n diagonal
// atoms labelled 0..n-1. For every shape of n it multiplies the table
// entries of the shape's groups by the sum, over realized signatures, of
// the signature's tied deltas times (1 - delta) for each broken pair.
// The result is reduced.
func Integral(n int, e *contraction.Enumerator, table *contraction.Table) (*term.Sum, error) {
	patterns, err := e.Patterns(n)
	if err != nil {
		return nil, fmt.Errorf("integral of %d points: %w", n, err)
	}

	out := term.NewSum()
	for _, pattern := range patterns {
		shapeTerm := term.NewProduct()
		for _, g := range pattern.Shape {
			q, ok := table.Fraction(g)
			if !ok {
				return nil, fmt.Errorf("integral of %d points: no table entry for power %d", n, g)
			}
			shapeTerm.Add(q)
		}

		signatures := term.NewSum()
		for _, sig := range pattern.Signatures {
			p := term.NewProduct()
			for _, pair := range sig.Tied {
				p.Add(term.NewDelta(pair.I, pair.J))
			}
			for _, pair := range sig.Broken {
				p.Add(term.NewSum(
					term.NewFloat(1),
					term.NewProduct(term.NewFloat(-1), term.NewDelta(pair.I, pair.J)),
				))
			}
			signatures.Add(p)
		}
		shapeTerm.Add(signatures)
		out.Add(shapeTerm)
	}

	term.Reduce(out)
	return out, nil
}

// PathIntegrate replaces every diagonal atom of each Product by a delta on
// the atom's own indices and appends the path integral over those atoms.
// Position k of the integral is relabelled to the second index of the
// k-th diagonal atom. An odd number of diagonal atoms integrates to zero.
func PathIntegrate(expr term.Term, e *contraction.Enumerator, table *contraction.Table) (*term.Sum, error) {
	s, ok := asSum(expr, "path integrate")
	if !ok {
		return term.NewSum(), nil
	}

	for _, t := range s.Terms {
		p, ok := t.(*term.Product)
		if !ok {
			continue
		}

		var positions []int
		for i, f := range p.Terms {
			d, ok := f.(*term.Diagonal)
			if !ok {
				continue
			}
			p.Terms[i] = term.NewDelta(d.I, d.J)
			positions = append(positions, d.J)
		}

		switch {
		case len(positions) == 0:
		case len(positions)%2 != 0:
			p.Add(term.NewFloat(0))
		default:
			integral, err := Integral(len(positions), e, table)
			if err != nil {
				return nil, err
			}
			relabelDeltas(integral, positions)
			p.Add(term.Unpack(integral))
		}
	}
	return s, nil
}

// relabelDeltas rewrites every delta index k below t to positions[k].
func relabelDeltas(t term.Term, positions []int) {
	switch c := t.(type) {
	case *term.Delta:
		c.I, c.J = positions[c.I], positions[c.J]
	case *term.Sum:
		for _, child := range c.Terms {
			relabelDeltas(child, positions)
		}
	case *term.Product:
		for _, child := range c.Terms {
			relabelDeltas(child, positions)
		}
	case *term.Trace:
		relabelDeltas(c.Expr, positions)
	}
}
