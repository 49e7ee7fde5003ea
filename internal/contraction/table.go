package contraction

import (
	"github.com/roach88/tracefold/internal/term"
)

// Table holds the normalized sine-power path integrals
// (1/2π)∫ sin^k over one period, as exact fractions. Odd powers vanish.
// A Table is immutable once built.
type Table struct {
	values []*term.Fraction
}

// DefaultTable builds the table for powers 0..MaxPoints.
func DefaultTable() *Table {
	return NewTable(MaxPoints)
}

// NewTable builds the table for powers 0..maxPower. Even powers k > 0
// hold (k-1)!! / k!!; zero and odd powers hold 0 / 1.
func NewTable(maxPower int) *Table {
	values := make([]*term.Fraction, maxPower+1)
	for k := range values {
		if k == 0 || k%2 != 0 {
			values[k] = term.NewFraction(0, 1)
			continue
		}
		q := term.NewFraction(1, 1)
		for i := 2; i <= k; i += 2 {
			q = q.Mul(term.NewFraction(float64(i-1), float64(i)))
		}
		values[k] = q
	}
	return &Table{values: values}
}

// Fraction returns a copy of the entry for power k, or false when k is
// outside the table.
func (t *Table) Fraction(k int) (*term.Fraction, bool) {
	if k < 0 || k >= len(t.values) {
		return nil, false
	}
	return t.values[k].Clone().(*term.Fraction), true
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.values)
}
