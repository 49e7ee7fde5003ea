package term

import "strings"

// Simplify removes provably zero and identity children in place.
//
// Product: a zero factor collapses the whole product to a single zero
// coefficient; identity factors are dropped unless one is the last factor
// left. Sum: zero children are dropped; a Sum emptied this way holds a
// single zero coefficient. Trace delegates to its argument.
func Simplify(t Term) {
	switch c := t.(type) {
	case *Sum:
		simplifySum(c)
	case *Product:
		simplifyProduct(c)
	case *Trace:
		Simplify(c.Expr)
	case *Float, *Fraction, *Param, *Atom, *Diagonal, *Delta, *Marker, *Contraction:
	default:
		unknown(t)
	}
}

func simplifySum(s *Sum) {
	kept := s.Terms[:0]
	for _, child := range s.Terms {
		Simplify(child)
		child = Unpack(child)
		if isZeroSummand(child) {
			continue
		}
		kept = append(kept, child)
	}
	clear(s.Terms[len(kept):])
	s.Terms = kept

	if len(s.Terms) == 0 {
		s.Terms = []Term{NewFloat(0)}
	}
}

func simplifyProduct(p *Product) {
	for i := 0; i < len(p.Terms); {
		child := p.Terms[i]
		Simplify(child)
		child = Unpack(child)
		p.Terms[i] = child

		if isZeroFactor(child) {
			p.Zero()
			return
		}
		if isIdentity(child) && len(p.Terms) != 1 {
			p.Terms = append(p.Terms[:i], p.Terms[i+1:]...)
			continue
		}
		i++
	}
}

// IsZeroTrace reports whether t is a Trace of an empty Sum or Product, or
// a Trace whose argument renders as zero.
func IsZeroTrace(t Term) bool {
	tr, ok := t.(*Trace)
	if !ok {
		return false
	}
	switch e := tr.Expr.(type) {
	case *Sum:
		if len(e.Terms) == 0 {
			return true
		}
	case *Product:
		if len(e.Terms) == 0 {
			return true
		}
	}
	return IsZero(Unpack(tr.Expr))
}

// IsZero reports whether t renders as the zero scalar.
func IsZero(t Term) bool {
	r := strings.TrimSpace(t.String())
	return r == "0" || r == "-0" || r == "0 / 1" || r == "{0}" || r == "{0 / 1}"
}

func isZeroSummand(t Term) bool {
	return IsZero(t) || IsZeroTrace(t)
}

func isZeroFactor(t Term) bool {
	r := strings.TrimSpace(t.String())
	return r == "0" || r == "-0" || r == "0 / 1" || IsZeroTrace(t)
}

func isIdentity(t Term) bool {
	r := strings.TrimSpace(t.String())
	return r == "1" || r == "1 / 1"
}
