package term

import (
	"slices"
	"strings"
)

// Sum is an unordered (commutative) sequence of terms.
type Sum struct {
	Terms []Term
}

// NewSum creates a Sum owning the given terms.
func NewSum(terms ...Term) *Sum {
	return &Sum{Terms: terms}
}

func (*Sum) term()      {}
func (*Sum) Kind() Kind { return KindSum }

// Clone deep-copies the sum.
func (s *Sum) Clone() Term {
	return &Sum{Terms: cloneAll(s.Terms)}
}

// String joins the rendered children with " + ". An empty Sum renders "0".
func (s *Sum) String() string {
	if len(s.Terms) == 0 {
		return "0"
	}
	parts := make([]string, len(s.Terms))
	for i, t := range s.Terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " + ")
}

// Add appends terms.
func (s *Sum) Add(terms ...Term) {
	s.Terms = append(s.Terms, terms...)
}

// Len returns the number of top-level terms.
func (s *Sum) Len() int {
	return len(s.Terms)
}

// Slice returns a new Sum holding clones of Terms[from:to].
func (s *Sum) Slice(from, to int) *Sum {
	return &Sum{Terms: cloneAll(s.Terms[from:to])}
}

// Product is a sequence of factors. Representation order is preserved.
type Product struct {
	Terms []Term
}

// NewProduct creates a Product owning the given factors.
func NewProduct(factors ...Term) *Product {
	return &Product{Terms: factors}
}

func (*Product) term()      {}
func (*Product) Kind() Kind { return KindProduct }

// Clone deep-copies the product.
func (p *Product) Clone() Term {
	return &Product{Terms: cloneAll(p.Terms)}
}

// String renders " {f1} {f2} ... ".
func (p *Product) String() string {
	var b strings.Builder
	b.WriteByte(' ')
	for _, t := range p.Terms {
		b.WriteByte('{')
		b.WriteString(t.String())
		b.WriteString("} ")
	}
	return b.String()
}

// Add appends factors.
func (p *Product) Add(factors ...Term) {
	p.Terms = append(p.Terms, factors...)
}

// Len returns the number of factors.
func (p *Product) Len() int {
	return len(p.Terms)
}

// ContainsSum reports whether any direct factor is a Sum.
func (p *Product) ContainsSum() bool {
	for _, t := range p.Terms {
		if _, ok := t.(*Sum); ok {
			return true
		}
	}
	return false
}

// Zero replaces every factor with a single zero coefficient.
func (p *Product) Zero() {
	p.Terms = []Term{NewFloat(0)}
}

// Order returns the number of formal parameter factors.
func (p *Product) Order() int {
	n := 0
	for _, t := range p.Terms {
		if _, ok := t.(*Param); ok {
			n++
		}
	}
	return n
}

// Contraction returns the first Contraction factor, or nil.
func (p *Product) Contraction() *Contraction {
	for _, t := range p.Terms {
		if c, ok := t.(*Contraction); ok {
			return c
		}
	}
	return nil
}

// Trace wraps a single argument, normally a Product of atoms.
type Trace struct {
	Expr Term
}

// NewTrace creates a Trace owning expr.
func NewTrace(expr Term) *Trace {
	return &Trace{Expr: expr}
}

func (*Trace) term()      {}
func (*Trace) Kind() Kind { return KindTrace }

// Clone deep-copies the trace.
func (t *Trace) Clone() Term {
	return &Trace{Expr: t.Expr.Clone()}
}

// String renders "Trace[ expr ]".
func (t *Trace) String() string {
	return "Trace[ " + t.Expr.String() + " ]"
}

// Size returns the number of factors in the trace argument. A Sum argument
// reports its term count.
func (t *Trace) Size() int {
	switch e := t.Expr.(type) {
	case *Product:
		return len(e.Terms)
	case *Sum:
		return len(e.Terms)
	default:
		return 0
	}
}

// Contraction is a contracted-index sum: one index pair per transformed
// atom removed from a product, plus the number of such atoms.
type Contraction struct {
	Pairs []Pair
	Order int
}

// NewContraction creates a Contraction over the given pairs.
func NewContraction(pairs []Pair, order int) *Contraction {
	return &Contraction{Pairs: slices.Clone(pairs), Order: order}
}

func (*Contraction) term()      {}
func (*Contraction) Kind() Kind { return KindContraction }

// Clone deep-copies the contraction.
func (c *Contraction) Clone() Term {
	return &Contraction{Pairs: slices.Clone(c.Pairs), Order: c.Order}
}

// String renders "FourierSum[ ( i, j )  ( k, l ) ]".
func (c *Contraction) String() string {
	var b strings.Builder
	b.WriteString("FourierSum[")
	for _, p := range c.Pairs {
		b.WriteByte(' ')
		b.WriteString(p.String())
		b.WriteByte(' ')
	}
	b.WriteByte(']')
	return b.String()
}

// Canonical returns the pairs oriented (min, max) and sorted. Two
// contractions are equal iff their canonical pairs are equal.
func (c *Contraction) Canonical() []Pair {
	out := make([]Pair, len(c.Pairs))
	for i, p := range c.Pairs {
		out[i] = p.Oriented()
	}
	slices.SortFunc(out, comparePairs)
	return out
}

// Equal compares the pairs as a multiset, ignoring order and orientation.
func (c *Contraction) Equal(o *Contraction) bool {
	if len(c.Pairs) != len(o.Pairs) {
		return false
	}
	return slices.Equal(c.Canonical(), o.Canonical())
}

// ReduceDummyIndices rewrites self-contractions (a, a) to (0, 0), then
// relabels the remaining indices densely from 0 in ascending order.
func (c *Contraction) ReduceDummyIndices() {
	for i, p := range c.Pairs {
		if p.I == p.J {
			c.Pairs[i] = Pair{}
		}
	}

	present := make([]int, 0, 2*len(c.Pairs))
	for _, p := range c.Pairs {
		present = append(present, p.I, p.J)
	}
	slices.Sort(present)
	present = slices.Compact(present)

	relabel := make(map[int]int, len(present))
	for i, idx := range present {
		relabel[idx] = i
	}
	for i, p := range c.Pairs {
		c.Pairs[i] = Pair{I: relabel[p.I], J: relabel[p.J]}
	}
}

func comparePairs(a, b Pair) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}

func cloneAll(terms []Term) []Term {
	if terms == nil {
		return nil
	}
	out := make([]Term, len(terms))
	for i, t := range terms {
		out[i] = t.Clone()
	}
	return out
}
