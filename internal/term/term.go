package term

import "fmt"

// Kind identifies a Term variant.
type Kind int

const (
	KindFloat Kind = iota + 1
	KindFraction
	KindParam
	KindAtom
	KindDiagonal
	KindDelta
	KindMarker
	KindSum
	KindProduct
	KindTrace
	KindContraction
)

var kindNames = map[Kind]string{
	KindFloat:       "float",
	KindFraction:    "fraction",
	KindParam:       "param",
	KindAtom:        "atom",
	KindDiagonal:    "diagonal",
	KindDelta:       "delta",
	KindMarker:      "marker",
	KindSum:         "sum",
	KindProduct:     "product",
	KindTrace:       "trace",
	KindContraction: "contraction",
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Term is a sealed interface over the expression tree variants.
type Term interface {
	// Kind reports the variant.
	Kind() Kind

	// Clone returns a deep, independently owned copy.
	Clone() Term

	// String renders the debug form.
	String() string

	term() // Sealed - only this package implements it
}

// Indexed is implemented by the two-index atoms that receive positions
// during trace indexing.
type Indexed interface {
	Term
	Indices() (int, int)
	SetIndices(i, j int)
}

// Pair is one (i, j) index pair of a Contraction or a Delta signature.
type Pair struct {
	I int
	J int
}

// Oriented returns the pair with I <= J.
func (p Pair) Oriented() Pair {
	if p.I > p.J {
		return Pair{I: p.J, J: p.I}
	}
	return p
}

// Less orders pairs by I, then J.
func (p Pair) Less(o Pair) bool {
	if p.I != o.I {
		return p.I < o.I
	}
	return p.J < o.J
}

// String renders the pair as "( i, j )".
func (p Pair) String() string {
	return fmt.Sprintf("( %d, %d )", p.I, p.J)
}

// unknown panics on a Term that is not one of this package's variants.
// Reaching it means the sealed interface was bypassed.
func unknown(t Term) {
	panic(fmt.Sprintf("term: unknown variant %T", t))
}
