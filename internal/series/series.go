package series

import "github.com/roach88/tracefold/internal/term"

// Factorial returns n!, with 0! = 1.
func Factorial(n int) int {
	out := 1
	for i := 2; i <= n; i++ {
		out *= i
	}
	return out
}

// Exponential returns 1 + Σ_{i=1..order} x^i / i!, reduced and simplified.
// Every power holds its own clones of x.
func Exponential(order int, x term.Term) *term.Sum {
	s := term.NewSum(term.NewFloat(1))
	for i := 1; i <= order; i++ {
		p := term.NewProduct(term.NewFraction(1, float64(Factorial(i))))
		for j := 0; j < i; j++ {
			p.Add(x.Clone())
		}
		s.Add(p)
	}

	term.Reduce(s)
	term.Simplify(s)
	return s
}

// LogTrace returns ((-1)^(k+1) / k) Tr[(K S)^k] with unassigned indices.
func LogTrace(k int, flavor string) *term.Product {
	sign := 1.0
	if k%2 == 0 {
		sign = -1
	}

	arg := term.NewProduct()
	for i := 0; i < k; i++ {
		arg.Add(term.NewAtom(flavor), term.NewDiagonal())
	}
	return term.NewProduct(term.NewFraction(sign, float64(k)), term.NewTrace(arg))
}

// Determinant returns det(1 + A K S) to the given order in A as a Sum
// holding one Product of exponential series, one per trace power.
func Determinant(order int, flavor string) *term.Sum {
	expansion := term.NewProduct()
	for i := 1; i <= order; i++ {
		x := term.NewProduct()
		for j := 0; j < i; j++ {
			x.Add(term.NewParam())
		}
		x.Add(LogTrace(i, flavor))

		expansion.Add(Exponential(order/i, x))
	}

	term.Reduce(expansion)
	return term.NewSum(expansion)
}

// Expanded returns Determinant(order, flavor) expanded into a flat Sum of
// Products.
func Expanded(order int, flavor string) *term.Sum {
	s := term.Expand(Determinant(order, flavor))
	term.Reduce(s)
	return s
}
