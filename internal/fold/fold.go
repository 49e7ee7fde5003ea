package fold

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/tracefold/internal/term"
)

// asSum returns expr as a Sum, logging a precondition violation otherwise.
func asSum(expr term.Term, op string) (*term.Sum, bool) {
	s, ok := expr.(*term.Sum)
	if !ok {
		slog.Error("expected a sum", "op", op, "kind", kindOf(expr))
	}
	return s, ok
}

func kindOf(t term.Term) string {
	if t == nil {
		return "nil"
	}
	return t.Kind().String()
}

// Coerce returns t as a Product, wrapping any other term in a one-factor
// Product. Terms other than zero or one are logged as unexpected.
func Coerce(t term.Term, op string) *term.Product {
	if p, ok := t.(*term.Product); ok {
		return p
	}
	if !isTrivial(t) {
		slog.Warn("unexpected non-product term; output should be inspected",
			"op", op,
			"kind", t.Kind().String(),
			"term", t.String())
	}
	return term.NewProduct(t)
}

func isTrivial(t term.Term) bool {
	r := strings.TrimSpace(t.String())
	return r == "0" || r == "1" || r == "1 / 1" || r == "0 / 1"
}

// TruncateOrder keeps the terms whose formal order is at most highest.
// Non-Product terms count as order zero.
func TruncateOrder(expr term.Term, highest int) *term.Sum {
	s, ok := asSum(expr, "truncate order")
	if !ok {
		return term.NewSum()
	}

	out := term.NewSum()
	for _, t := range s.Terms {
		order := 0
		if p, ok := t.(*term.Product); ok {
			order = p.Order()
		}
		if order <= highest {
			out.Add(t)
		}
	}
	return out
}

// TruncateOdd keeps the terms of even formal order.
func TruncateOdd(expr term.Term) *term.Sum {
	s, ok := asSum(expr, "truncate odd")
	if !ok {
		return term.NewSum()
	}

	out := term.NewSum()
	for _, t := range s.Terms {
		p := Coerce(t, "truncate odd")
		if p.Order()%2 == 0 {
			out.Add(p)
		}
	}
	return out
}

// IndexTraces assigns closed-chain position indices to the factors of
// every Trace and replaces the Trace by its argument. Within one Product
// the counter continues across traces: a trace of n factors starting at
// k indexes its factors (k, k+1) .. (k+n-2, k+n-1), (k+n-1, k).
//
// A Trace whose argument is not a Product is logged and indexing stops;
// terms already visited keep their indices.
func IndexTraces(expr term.Term) *term.Sum {
	s, ok := asSum(expr, "index traces")
	if !ok {
		return term.NewSum()
	}

	for _, t := range s.Terms {
		p, ok := t.(*term.Product)
		if !ok {
			continue
		}

		next := 0
		for i, f := range p.Terms {
			tr, ok := f.(*term.Trace)
			if !ok {
				continue
			}
			arg, ok := tr.Expr.(*term.Product)
			if !ok {
				slog.Error("trace argument is not a product; distribute traces first",
					"kind", kindOf(tr.Expr),
					"term", tr.String())
				return s
			}

			n := len(arg.Terms)
			for j, factor := range arg.Terms {
				idx, ok := factor.(term.Indexed)
				if !ok {
					continue
				}
				if j == n-1 {
					idx.SetIndices(next+j, next)
				} else {
					idx.SetIndices(next+j, next+j+1)
				}
			}
			next += n
			p.Terms[i] = arg
		}
	}
	return s
}

// FourierTransform moves each Product to its transformed representation.
// Atoms are transformed and their index pairs collected; unbarred deltas
// are removed and contract their indices together. The atom pairs are
// rewritten through the contraction Dictionary and appended as one
// Contraction whose order is the number of atoms.
func FourierTransform(expr term.Term) *term.Sum {
	s, ok := asSum(expr, "fourier transform")
	if !ok {
		return term.NewSum()
	}

	out := term.NewSum()
	for _, t := range s.Terms {
		p := Coerce(t, "fourier transform")

		transformed := term.NewProduct()
		var atoms, contracted []term.Pair
		for _, f := range p.Terms {
			switch c := f.(type) {
			case *term.Atom:
				c.Transform()
				transformed.Add(c)
				atoms = append(atoms, term.Pair{I: c.I, J: c.J})
			case *term.Delta:
				if !c.Barred {
					contracted = append(contracted, c.Pair())
					continue
				}
				transformed.Add(c)
			default:
				transformed.Add(f)
			}
		}

		if len(atoms) > 0 {
			dict := Dictionary(contracted)
			for i, pair := range atoms {
				atoms[i] = term.Pair{I: lookup(dict, pair.I), J: lookup(dict, pair.J)}
			}
			transformed.Add(term.NewContraction(atoms, len(atoms)))
		}
		out.Add(transformed)
	}
	return out
}

func lookup(dict map[int]int, idx int) int {
	if v, ok := dict[idx]; ok {
		return v
	}
	return idx
}

// Dictionary maps every index mentioned by pairs to the smallest index of
// its connected component, treating each pair as an undirected edge.
func Dictionary(pairs []term.Pair) map[int]int {
	parent := make(map[int]int)
	var find func(int) int
	find = func(x int) int {
		if _, ok := parent[x]; !ok {
			parent[x] = x
		}
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	for _, p := range pairs {
		a, b := find(p.I), find(p.J)
		switch {
		case a < b:
			parent[b] = a
		case b < a:
			parent[a] = b
		}
	}

	dict := make(map[int]int, len(parent))
	for idx := range parent {
		dict[idx] = find(idx)
	}
	return dict
}

// ReduceDummyIndices normalizes the labels of every Contraction factor.
func ReduceDummyIndices(expr term.Term) *term.Sum {
	s, ok := asSum(expr, "reduce dummy indices")
	if !ok {
		return term.NewSum()
	}

	for _, t := range s.Terms {
		p, ok := t.(*term.Product)
		if !ok {
			continue
		}
		for _, f := range p.Terms {
			if c, ok := f.(*term.Contraction); ok {
				c.ReduceDummyIndices()
			}
		}
	}
	return s
}

// SortTraces moves the traces of every Product behind its other factors,
// ordered by argument size. Equal sizes keep their relative order.
func SortTraces(expr term.Term) *term.Sum {
	s, ok := asSum(expr, "sort traces")
	if !ok {
		return term.NewSum()
	}

	for _, t := range s.Terms {
		p, ok := t.(*term.Product)
		if !ok {
			continue
		}

		others := make([]term.Term, 0, len(p.Terms))
		var traces []*term.Trace
		for _, f := range p.Terms {
			if tr, ok := f.(*term.Trace); ok {
				traces = append(traces, tr)
				continue
			}
			others = append(others, f)
		}
		slices.SortStableFunc(traces, func(a, b *term.Trace) int {
			return a.Size() - b.Size()
		})
		for _, tr := range traces {
			others = append(others, tr)
		}
		p.Terms = others
	}
	return s
}
