package term

// Expand distributes products over sums and returns a new Sum whose
// children are sum-free Products or irreducible terms. The input is not
// modified.
func Expand(t Term) *Sum {
	switch c := t.(type) {
	case *Sum:
		out := &Sum{Terms: make([]Term, 0, len(c.Terms))}
		for _, child := range c.Terms {
			out.Terms = append(out.Terms, Expand(child).Terms...)
		}
		return out
	case *Product:
		return expandProduct(c)
	case *Float, *Fraction, *Param, *Atom, *Diagonal, *Delta, *Marker, *Trace, *Contraction:
		return NewSum(t.Clone())
	default:
		unknown(t)
		return nil
	}
}

func expandProduct(p *Product) *Sum {
	switch {
	case len(p.Terms) <= 1:
		return NewSum(p.Clone())
	case len(p.Terms) == 2:
		return expandPair(p)
	}

	// Split so that every distribution step sees exactly two factors.
	head := Unpack(Expand(NewProduct(p.Terms[0], p.Terms[1])))
	tail := Unpack(Expand(NewProduct(p.Terms[2:]...)))
	return Expand(NewProduct(head, tail))
}

func expandPair(p *Product) *Sum {
	first := preExpand(Unpack(p.Terms[0]))
	second := preExpand(Unpack(p.Terms[1]))

	if s, ok := first.(*Sum); ok {
		out := &Sum{Terms: make([]Term, 0, len(s.Terms))}
		for _, child := range s.Terms {
			child = preExpand(Unpack(child))
			out.Terms = append(out.Terms, Expand(NewProduct(child, second)).Terms...)
		}
		return out
	}
	if s, ok := second.(*Sum); ok {
		out := &Sum{Terms: make([]Term, 0, len(s.Terms))}
		for _, child := range s.Terms {
			child = preExpand(Unpack(child))
			out.Terms = append(out.Terms, Expand(NewProduct(first, child)).Terms...)
		}
		return out
	}
	return NewSum(p.Clone())
}

// preExpand expands a Product factor that directly holds a Sum, so the
// caller can distribute over it. Other terms are returned unchanged.
func preExpand(t Term) Term {
	if p, ok := t.(*Product); ok && p.ContainsSum() {
		return Unpack(Expand(p))
	}
	return t
}
