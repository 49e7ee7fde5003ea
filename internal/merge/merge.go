package merge

import (
	"log/slog"
	"slices"

	"github.com/roach88/tracefold/internal/fold"
	"github.com/roach88/tracefold/internal/term"
)

// Common reports whether a and b are like terms. Both must be Products;
// anything else is logged as a precondition violation.
func Common(a, b term.Term) bool {
	pa, okA := a.(*term.Product)
	pb, okB := b.(*term.Product)
	if !okA || !okB {
		slog.Error("like-term check expects products",
			"a", a.Kind().String(),
			"b", b.Kind().String())
		return false
	}

	if pa.Order() != pb.Order() {
		return false
	}
	ca, cb := pa.Contraction(), pb.Contraction()
	if ca == nil || cb == nil {
		return false
	}
	return ca.Equal(cb)
}

// Coefficient multiplies the Float and Fraction factors of p into one
// reduced Fraction and returns it with the remaining factors, in order.
func Coefficient(p *term.Product) (*term.Fraction, []term.Term) {
	q := term.NewFraction(1, 1)
	rest := make([]term.Term, 0, len(p.Terms))
	for _, f := range p.Terms {
		switch c := f.(type) {
		case *term.Float:
			q = q.MulFloat(c.Value)
		case *term.Fraction:
			q = q.Mul(c)
		default:
			rest = append(rest, f)
		}
	}
	return q, rest
}

// Combine merges like terms of expr. It simplifies expr first and takes
// ownership of it. The result is not simplified.
func Combine(expr *term.Sum) *term.Sum {
	term.Simplify(expr)

	products := make([]*term.Product, len(expr.Terms))
	buckets := make(map[string][]int)
	for i, t := range expr.Terms {
		p := fold.Coerce(t, "combine like terms")
		products[i] = p
		if key, ok := term.SignatureKey(p); ok {
			buckets[key] = append(buckets[key], i)
		}
	}

	out := term.NewSum()
	out.Terms = make([]term.Term, 0, len(products))
	for i, p := range products {
		coefficient, rest := Coefficient(p)
		running := term.NewFraction(0, 1).Add(coefficient)

		if key, ok := term.SignatureKey(p); ok {
			for _, j := range buckets[key] {
				if j == i {
					continue
				}
				other, _ := Coefficient(products[j])
				running = running.Add(other)
				products[j].Zero()
			}
			// Members are zeroed; their signature no longer matches.
			delete(buckets, key)
		}

		out.Add(term.NewProduct(append(slices.Clip(rest), running)...))
	}
	return out
}

// CombineBatched merges like terms in chunks of at most batch terms. It
// takes ownership of expr. The result is simplified.
func CombineBatched(expr *term.Sum, batch int) *term.Sum {
	if batch < 1 {
		batch = 1
	}
	term.Simplify(expr)

	if expr.Len() <= batch {
		out := Combine(expr)
		term.Simplify(out)
		return out
	}

	combined := term.NewSum()
	for from := 0; from < expr.Len(); from += batch {
		to := min(from+batch, expr.Len())
		slog.Debug("combining like terms", "from", from, "to", to, "of", expr.Len())

		part := term.NewSum(slices.Clone(expr.Terms[from:to])...)
		combined.Add(CombineBatched(part, batch).Terms...)
	}
	term.Reduce(combined)
	term.Simplify(combined)

	if combined.Len() >= expr.Len() {
		// No chunk found a match; only a pass over all terms can.
		slog.Debug("batched merge reached a fixed point above the batch size",
			"terms", combined.Len(),
			"batch", batch)
		out := Combine(combined)
		term.Simplify(out)
		return out
	}
	return CombineBatched(combined, batch)
}
