package term

import (
	"math"
	"strconv"
)

// zeroThreshold is the magnitude below which a Float renders as "0".
const zeroThreshold = 1e-10

// Float is a floating-point coefficient.
type Float struct {
	Value float64
}

// NewFloat creates a Float coefficient.
func NewFloat(v float64) *Float {
	return &Float{Value: v}
}

func (*Float) term()      {}
func (*Float) Kind() Kind { return KindFloat }

// Clone returns a copy of the coefficient.
func (f *Float) Clone() Term {
	return &Float{Value: f.Value}
}

// String renders the value with six significant digits, or "0" when the
// value is numerically zero.
func (f *Float) String() string {
	if math.Abs(f.Value) < zeroThreshold {
		return "0"
	}
	return formatNumber(f.Value)
}

// Fraction is a rational coefficient num / den.
//
// Parts are stored as float64 so that fractions built from non-integral
// values still render; GCD reduction only applies when both parts are
// integral. Arithmetic never mutates its operands.
type Fraction struct {
	Num float64
	Den float64
}

// NewFraction creates a Fraction without reducing it.
func NewFraction(num, den float64) *Fraction {
	return &Fraction{Num: num, Den: den}
}

func (*Fraction) term()      {}
func (*Fraction) Kind() Kind { return KindFraction }

// Clone returns a copy of the fraction.
func (q *Fraction) Clone() Term {
	return &Fraction{Num: q.Num, Den: q.Den}
}

// String renders "num / den".
func (q *Fraction) String() string {
	return formatNumber(q.Num) + " / " + formatNumber(q.Den)
}

// Value returns num / den.
func (q *Fraction) Value() float64 {
	return q.Num / q.Den
}

// Reduced returns a new fraction divided through by the GCD of its parts.
// Non-integral fractions are returned unchanged.
func (q *Fraction) Reduced() *Fraction {
	num, den := q.Num, q.Den
	if isIntegral(num) && isIntegral(den) {
		g := gcd(uint64(math.Abs(num)), uint64(math.Abs(den)))
		if g != 0 {
			num /= float64(g)
			den /= float64(g)
		}
	}
	return &Fraction{Num: num, Den: den}
}

// Mul returns q * o, reduced.
func (q *Fraction) Mul(o *Fraction) *Fraction {
	return NewFraction(q.Num*o.Num, q.Den*o.Den).Reduced()
}

// Add returns q + o, reduced.
func (q *Fraction) Add(o *Fraction) *Fraction {
	return NewFraction(q.Num*o.Den+q.Den*o.Num, q.Den*o.Den).Reduced()
}

// MulFloat returns q * v, reduced.
func (q *Fraction) MulFloat(v float64) *Fraction {
	return NewFraction(q.Num*v, q.Den).Reduced()
}

// AddFloat returns q + v, reduced.
func (q *Fraction) AddFloat(v float64) *Fraction {
	return NewFraction(q.Num+v*q.Den, q.Den).Reduced()
}

// gcd returns the greatest common divisor of a and b, with gcd(0, b) = b.
func gcd(a, b uint64) uint64 {
	for a != 0 {
		a, b = b%a, a
	}
	return b
}

func isIntegral(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v) && math.Floor(v) == v
}

// formatNumber renders v the way a default-configured C-style stream does:
// shortest of %e/%f with six significant digits.
func formatNumber(v float64) string {
	if v == 0 {
		// Avoid "-0" for negative zero produced by arithmetic.
		return "0"
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}
