package term

import "fmt"

// Param is the formal expansion parameter A. A Product's order is the
// number of Param factors it holds.
type Param struct{}

// NewParam creates a formal parameter.
func NewParam() *Param {
	return &Param{}
}

func (*Param) term()          {}
func (*Param) Kind() Kind     { return KindParam }
func (*Param) Clone() Term    { return &Param{} }
func (*Param) String() string { return "A" }

// Atom is a flavored two-index matrix atom. Indices default to (0, 0),
// meaning unassigned. Transformed marks the momentum-space representation.
type Atom struct {
	Flavor      string
	I, J        int
	Transformed bool
}

// NewAtom creates a position-space atom with unassigned indices.
func NewAtom(flavor string) *Atom {
	return &Atom{Flavor: flavor}
}

func (*Atom) term()      {}
func (*Atom) Kind() Kind { return KindAtom }

// Clone returns a copy of the atom.
func (a *Atom) Clone() Term {
	cp := *a
	return &cp
}

// String renders "K_flavor_( i, j )", or "D_flavor_( i, j )" once transformed.
func (a *Atom) String() string {
	prefix := "K"
	if a.Transformed {
		prefix = "D"
	}
	return fmt.Sprintf("%s_%s_( %d, %d )", prefix, a.Flavor, a.I, a.J)
}

// Transform flips the atom to its transformed representation in place.
// Indices are unchanged.
func (a *Atom) Transform() {
	a.Transformed = true
}

// Indices returns the atom's position indices.
func (a *Atom) Indices() (int, int) { return a.I, a.J }

// SetIndices assigns position indices.
func (a *Atom) SetIndices(i, j int) { a.I, a.J = i, j }

// Diagonal is the diagonal (auxiliary field) atom.
type Diagonal struct {
	I, J int
}

// NewDiagonal creates a diagonal atom with unassigned indices.
func NewDiagonal() *Diagonal {
	return &Diagonal{}
}

func (*Diagonal) term()      {}
func (*Diagonal) Kind() Kind { return KindDiagonal }

// Clone returns a copy of the atom.
func (d *Diagonal) Clone() Term {
	return &Diagonal{I: d.I, J: d.J}
}

// String renders "S_(i, j)".
func (d *Diagonal) String() string {
	return fmt.Sprintf("S_(%d, %d)", d.I, d.J)
}

// Indices returns the atom's position indices.
func (d *Diagonal) Indices() (int, int) { return d.I, d.J }

// SetIndices assigns position indices.
func (d *Diagonal) SetIndices(i, j int) { d.I, d.J = i, j }

// Delta is a Kronecker delta over two indices. A barred delta stands
// for 1 - delta.
type Delta struct {
	I, J   int
	Barred bool
}

// NewDelta creates an unbarred delta.
func NewDelta(i, j int) *Delta {
	return &Delta{I: i, J: j}
}

// NewDeltaBar creates a barred delta.
func NewDeltaBar(i, j int) *Delta {
	return &Delta{I: i, J: j, Barred: true}
}

func (*Delta) term()      {}
func (*Delta) Kind() Kind { return KindDelta }

// Clone returns a copy of the delta, barred flag included.
func (d *Delta) Clone() Term {
	return &Delta{I: d.I, J: d.J, Barred: d.Barred}
}

// String renders "Delta( i, j )" or "DeltaBar( i, j )".
func (d *Delta) String() string {
	name := "Delta"
	if d.Barred {
		name = "DeltaBar"
	}
	return fmt.Sprintf("%s( %d, %d )", name, d.I, d.J)
}

// Pair returns the delta's indices as a pair.
func (d *Delta) Pair() Pair {
	return Pair{I: d.I, J: d.J}
}

// Marker is an opaque numbered atom with no algebraic meaning. Tests use it
// to observe how containers move their children around.
type Marker struct {
	ID int
}

// NewMarker creates a marker atom.
func NewMarker(id int) *Marker {
	return &Marker{ID: id}
}

func (*Marker) term()      {}
func (*Marker) Kind() Kind { return KindMarker }

// Clone returns a copy of the marker.
func (m *Marker) Clone() Term {
	return &Marker{ID: m.ID}
}

// String renders "GT_id".
func (m *Marker) String() string {
	return fmt.Sprintf("GT_%d", m.ID)
}
