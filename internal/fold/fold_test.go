package fold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracefold/internal/contraction"
	"github.com/roach88/tracefold/internal/term"
)

func params(n int, extra ...term.Term) *term.Product {
	p := term.NewProduct()
	for i := 0; i < n; i++ {
		p.Add(term.NewParam())
	}
	p.Add(extra...)
	return p
}

func kd(flavor string, i, j int) *term.Atom {
	a := term.NewAtom(flavor)
	a.SetIndices(i, j)
	return a
}

func sd(i, j int) *term.Diagonal {
	d := term.NewDiagonal()
	d.SetIndices(i, j)
	return d
}

// chain returns (K S)^n with unassigned indices.
func chain(flavor string, n int) *term.Product {
	p := term.NewProduct()
	for i := 0; i < n; i++ {
		p.Add(term.NewAtom(flavor), term.NewDiagonal())
	}
	return p
}

func TestTruncateOrder(t *testing.T) {
	got := TruncateOrder(term.NewSum(params(1), params(2)), 1)
	assert.Equal(t, " {A} ", got.String())

	got = TruncateOrder(term.NewSum(term.NewFloat(1), params(1), params(3)), 2)
	assert.Equal(t, "1 +  {A} ", got.String())
}

func TestTruncateOdd(t *testing.T) {
	s := term.NewSum()
	for n := 1; n <= 6; n++ {
		s.Add(params(n))
	}

	got := TruncateOdd(s)
	assert.Equal(t, " {A} {A}  +  {A} {A} {A} {A}  +  {A} {A} {A} {A} {A} {A} ", got.String())
}

func TestTruncateOddCoercesScalars(t *testing.T) {
	got := TruncateOdd(term.NewSum(term.NewFloat(1), term.NewMarker(3)))

	require.Equal(t, 2, got.Len())
	assert.Equal(t, " {1} ", got.Terms[0].String())
	assert.Equal(t, " {GT_3} ", got.Terms[1].String())
}

func TestNonSumInput(t *testing.T) {
	p := params(2)

	assert.Equal(t, 0, TruncateOrder(p, 4).Len())
	assert.Equal(t, 0, TruncateOdd(p).Len())
	assert.Equal(t, 0, IndexTraces(p).Len())
	assert.Equal(t, 0, FourierTransform(p).Len())
	assert.Equal(t, 0, ReduceDummyIndices(p).Len())
	assert.Equal(t, 0, SortTraces(p).Len())

	got, err := PathIntegrate(p, contraction.NewEnumerator(), contraction.DefaultTable())
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestIndexTraces(t *testing.T) {
	tests := []struct {
		name     string
		input    *term.Sum
		expected string
	}{
		{
			"single trace",
			term.NewSum(term.NewProduct(term.NewTrace(term.NewProduct(
				term.NewAtom("up"), term.NewDiagonal(), term.NewAtom("dn"), term.NewDiagonal())))),
			" { {K_up_( 0, 1 )} {S_(1, 2)} {K_dn_( 2, 3 )} {S_(3, 0)} } ",
		},
		{
			"two traces share a counter",
			term.NewSum(term.NewProduct(
				term.NewTrace(term.NewProduct(
					term.NewAtom("up"), term.NewDiagonal(), term.NewAtom("dn"), term.NewDiagonal())),
				term.NewTrace(term.NewProduct(term.NewAtom("up"), term.NewDiagonal())),
			)),
			" { {K_up_( 0, 1 )} {S_(1, 2)} {K_dn_( 2, 3 )} {S_(3, 0)} } { {K_up_( 4, 5 )} {S_(5, 4)} } ",
		},
		{
			"counter restarts per product",
			term.NewSum(
				term.NewProduct(term.NewTrace(chain("", 1))),
				term.NewProduct(term.NewTrace(chain("", 1))),
			),
			" { {K__( 0, 1 )} {S_(1, 0)} }  +  { {K__( 0, 1 )} {S_(1, 0)} } ",
		},
		{
			"coefficient kept",
			term.NewSum(term.NewProduct(term.NewFraction(1, 3), term.NewTrace(chain("", 3)))),
			" {1 / 3} { {K__( 0, 1 )} {S_(1, 2)} {K__( 2, 3 )} {S_(3, 4)} {K__( 4, 5 )} {S_(5, 0)} } ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IndexTraces(tt.input).String())
		})
	}
}

func TestIndexTracesMalformedTrace(t *testing.T) {
	s := term.NewSum(term.NewProduct(term.NewTrace(term.NewSum(term.NewMarker(0), term.NewMarker(1)))))

	got := IndexTraces(s)
	assert.Equal(t, " {Trace[ GT_0 + GT_1 ]} ", got.String())
}

func TestIntegral(t *testing.T) {
	e := contraction.NewEnumerator()
	table := contraction.DefaultTable()

	got, err := Integral(2, e, table)
	require.NoError(t, err)
	assert.Equal(t, " {1 / 2} {Delta( 0, 1 )} ", got.String())

	got, err = Integral(4, e, table)
	require.NoError(t, err)
	assert.Equal(t,
		" {3 / 8} {Delta( 0, 1 )} {Delta( 1, 2 )} {Delta( 2, 3 )}  +  "+
			"{1 / 2} {1 / 2} { {Delta( 0, 1 )} {Delta( 2, 3 )} {1 +  {-1} {Delta( 1, 2 )} }  +  "+
			"{Delta( 0, 2 )} {Delta( 1, 3 )} {1 +  {-1} {Delta( 2, 1 )} }  +  "+
			"{Delta( 0, 3 )} {Delta( 1, 2 )} {1 +  {-1} {Delta( 3, 1 )} } } ",
		got.String())

	_, err = Integral(3, e, table)
	assert.ErrorIs(t, err, contraction.ErrInvalidCount)
}

func TestPathIntegrate(t *testing.T) {
	e := contraction.NewEnumerator()
	table := contraction.DefaultTable()

	s := term.NewSum(term.NewProduct(kd("", 0, 1), sd(1, 0), kd("", 2, 3), sd(3, 2)))
	got, err := PathIntegrate(s, e, table)
	require.NoError(t, err)
	assert.Equal(t,
		" {K__( 0, 1 )} {Delta( 1, 0 )} {K__( 2, 3 )} {Delta( 3, 2 )} { {1 / 2} {Delta( 0, 2 )} } ",
		got.String())
}

func TestPathIntegrateFour(t *testing.T) {
	e := contraction.NewEnumerator()
	table := contraction.DefaultTable()

	s := term.NewSum(term.NewProduct(
		kd("", 0, 1), sd(1, 0), kd("", 2, 3), sd(3, 2),
		kd("", 4, 5), sd(5, 4), kd("", 6, 7), sd(7, 6),
	))
	got, err := PathIntegrate(s, e, table)
	require.NoError(t, err)

	p := got.Terms[0].(*term.Product)
	integral, ok := p.Terms[len(p.Terms)-1].(*term.Sum)
	require.True(t, ok)
	assert.Equal(t, " {3 / 8} {Delta( 0, 2 )} {Delta( 2, 4 )} {Delta( 4, 6 )} ", integral.Terms[0].String())
}

func TestPathIntegrateOddIsZero(t *testing.T) {
	s := term.NewSum(term.NewProduct(kd("", 0, 1), sd(1, 0)), params(1))
	got, err := PathIntegrate(s, contraction.NewEnumerator(), contraction.DefaultTable())
	require.NoError(t, err)

	// A single diagonal atom is an odd count.
	assert.Equal(t, " {K__( 0, 1 )} {Delta( 1, 0 )} {0}  +  {A} ", got.String())
}

func TestPathIntegrateTooManyPoints(t *testing.T) {
	p := term.NewProduct()
	for i := 0; i < contraction.MaxPoints+2; i++ {
		p.Add(sd(i, i))
	}
	_, err := PathIntegrate(term.NewSum(p), contraction.NewEnumerator(), contraction.DefaultTable())
	assert.ErrorIs(t, err, contraction.ErrInvalidCount)
}

func TestDictionary(t *testing.T) {
	tests := []struct {
		name     string
		pairs    []term.Pair
		expected map[int]int
	}{
		{"chain", []term.Pair{{I: 0, J: 1}, {I: 1, J: 2}, {I: 2, J: 3}}, map[int]int{0: 0, 1: 0, 2: 0, 3: 0}},
		{"joined", []term.Pair{{I: 0, J: 1}, {I: 2, J: 3}, {I: 0, J: 2}}, map[int]int{0: 0, 1: 0, 2: 0, 3: 0}},
		{"two groups", []term.Pair{{I: 0, J: 1}, {I: 2, J: 3}, {I: 3, J: 4}}, map[int]int{0: 0, 1: 0, 2: 2, 3: 2, 4: 2}},
		{"cycle", []term.Pair{{I: 1, J: 2}, {I: 0, J: 1}, {I: 0, J: 2}}, map[int]int{0: 0, 1: 0, 2: 0}},
		{"reversed pair", []term.Pair{{I: 0, J: 2}, {I: 0, J: 3}, {I: 3, J: 2}}, map[int]int{0: 0, 2: 0, 3: 0}},
		{
			"interleaved",
			[]term.Pair{{I: 1, J: 2}, {I: 3, J: 4}, {I: 0, J: 5}, {I: 0, J: 2}, {I: 4, J: 6}},
			map[int]int{0: 0, 1: 0, 2: 0, 3: 3, 4: 3, 5: 0, 6: 3},
		},
		{
			"two interleaved groups",
			[]term.Pair{{I: 1, J: 2}, {I: 3, J: 4}, {I: 5, J: 6}, {I: 0, J: 7}, {I: 0, J: 4}, {I: 2, J: 6}},
			map[int]int{0: 0, 1: 1, 2: 1, 3: 0, 4: 0, 5: 1, 6: 1, 7: 0},
		},
		{
			"everything joined",
			[]term.Pair{{I: 1, J: 2}, {I: 3, J: 4}, {I: 5, J: 6}, {I: 7, J: 0}, {I: 2, J: 4}, {I: 6, J: 0}, {I: 4, J: 6}},
			map[int]int{0: 0, 1: 0, 2: 0, 3: 0, 4: 0, 5: 0, 6: 0, 7: 0},
		},
		{"empty", nil, map[int]int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Dictionary(tt.pairs))
		})
	}
}

func TestFourierTransform(t *testing.T) {
	s := term.NewSum(term.NewProduct(kd("", 0, 1), kd("", 1, 0), term.NewDelta(0, 1)))

	got := FourierTransform(s)
	assert.Equal(t, " {D__( 0, 1 )} {D__( 1, 0 )} {FourierSum[ ( 0, 0 )  ( 0, 0 ) ]} ", got.String())
}

func TestFourierTransformKeepsBarredDeltas(t *testing.T) {
	s := term.NewSum(
		term.NewProduct(term.NewFraction(1, 2), kd("up", 0, 1), kd("up", 2, 3), term.NewDeltaBar(1, 2), term.NewDelta(3, 0)),
		params(2),
	)

	got := FourierTransform(s)
	require.Equal(t, 2, got.Len())
	assert.Equal(t,
		" {1 / 2} {D_up_( 0, 1 )} {D_up_( 2, 3 )} {DeltaBar( 1, 2 )} {FourierSum[ ( 0, 1 )  ( 2, 0 ) ]} ",
		got.Terms[0].String())
	assert.Equal(t, " {A} {A} ", got.Terms[1].String(), "no atoms, no contraction")
}

func TestReduceDummyIndices(t *testing.T) {
	s := term.NewSum(
		params(1, term.NewContraction([]term.Pair{{I: 0, J: 1}, {I: 3, J: 4}, {I: 0, J: 0}}, 3)),
		term.NewFloat(1),
	)

	got := ReduceDummyIndices(s)
	assert.Equal(t, " {A} {FourierSum[ ( 0, 1 )  ( 2, 3 )  ( 0, 0 ) ]}  + 1", got.String())
}

func TestSortTraces(t *testing.T) {
	tr := func(n int) *term.Trace { return term.NewTrace(chain("", n)) }

	s := term.NewSum(
		term.NewProduct(tr(2), term.NewParam(), tr(3), term.NewParam(), tr(1)),
		term.NewProduct(tr(3), tr(2), tr(1)),
		term.NewFloat(1),
	)

	got := SortTraces(s)
	require.Equal(t, 3, got.Len())

	first := got.Terms[0].(*term.Product)
	require.Len(t, first.Terms, 5)
	assert.Equal(t, term.KindParam, first.Terms[0].Kind())
	assert.Equal(t, term.KindParam, first.Terms[1].Kind())
	assert.Equal(t, 1, first.Terms[2].(*term.Trace).Size()/2)
	assert.Equal(t, 2, first.Terms[3].(*term.Trace).Size()/2)
	assert.Equal(t, 3, first.Terms[4].(*term.Trace).Size()/2)

	assert.Equal(t, got.Terms[0].(*term.Product).Terms[2].String(), got.Terms[1].(*term.Product).Terms[0].String())
	assert.Equal(t, "1", got.Terms[2].String())
}
