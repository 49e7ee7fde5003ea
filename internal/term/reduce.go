package term

// Unpack replaces a Sum or Product holding exactly one child by that child,
// repeatedly. Any other term is returned unchanged.
func Unpack(t Term) Term {
	for {
		switch c := t.(type) {
		case *Sum:
			if len(c.Terms) != 1 {
				return t
			}
			t = c.Terms[0]
		case *Product:
			if len(c.Terms) != 1 {
				return t
			}
			t = c.Terms[0]
		default:
			return t
		}
	}
}

// Reduce flattens redundant nesting below t in place and returns t.
//
// Children are unpacked and reduced depth-first; a child whose variant
// matches its parent container is spliced into the parent. The top-level
// term itself is never unwrapped, so a singleton Sum stays a Sum.
func Reduce(t Term) Term {
	switch c := t.(type) {
	case *Sum:
		c.Terms = reduceChildren(c.Terms, KindSum)
	case *Product:
		c.Terms = reduceChildren(c.Terms, KindProduct)
	case *Trace:
		Reduce(c.Expr)
	case *Float, *Fraction, *Param, *Atom, *Diagonal, *Delta, *Marker, *Contraction:
	default:
		unknown(t)
	}
	return t
}

func reduceChildren(children []Term, parent Kind) []Term {
	out := make([]Term, 0, len(children))
	for _, child := range children {
		child = Unpack(child)
		Reduce(child)
		child = Unpack(child)

		if child.Kind() == parent {
			// Already reduced: its own children are neither singletons
			// nor of the parent's kind.
			out = append(out, childrenOf(child)...)
			continue
		}
		out = append(out, child)
	}
	return out
}

func childrenOf(t Term) []Term {
	switch c := t.(type) {
	case *Sum:
		return c.Terms
	case *Product:
		return c.Terms
	default:
		return []Term{t}
	}
}
