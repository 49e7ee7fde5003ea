package term

import "slices"

// Equal reports whether a and b are structurally identical: same variant,
// same fields, same children in the same order.
func Equal(a, b Term) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch x := a.(type) {
	case *Float:
		return x.Value == b.(*Float).Value
	case *Fraction:
		y := b.(*Fraction)
		return x.Num == y.Num && x.Den == y.Den
	case *Param:
		return true
	case *Atom:
		y := b.(*Atom)
		return x.Flavor == y.Flavor && x.I == y.I && x.J == y.J && x.Transformed == y.Transformed
	case *Diagonal:
		y := b.(*Diagonal)
		return x.I == y.I && x.J == y.J
	case *Delta:
		y := b.(*Delta)
		return x.I == y.I && x.J == y.J && x.Barred == y.Barred
	case *Marker:
		return x.ID == b.(*Marker).ID
	case *Sum:
		return equalAll(x.Terms, b.(*Sum).Terms)
	case *Product:
		return equalAll(x.Terms, b.(*Product).Terms)
	case *Trace:
		return Equal(x.Expr, b.(*Trace).Expr)
	case *Contraction:
		y := b.(*Contraction)
		return x.Order == y.Order && slices.Equal(x.Pairs, y.Pairs)
	default:
		unknown(a)
		return false
	}
}

func equalAll(a, b []Term) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
