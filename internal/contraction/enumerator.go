package contraction

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// MaxPoints is the largest point count an Enumerator accepts.
const MaxPoints = 10

// Pattern pairs a shape with its realized, de-duplicated signatures.
type Pattern struct {
	Shape      []int
	Signatures []Signature
}

// Enumerator computes and caches the patterns for each point count.
// It is safe for concurrent use; concurrent requests for the same count
// share a single computation. Cached results are read-only.
type Enumerator struct {
	group singleflight.Group

	mu    sync.RWMutex
	cache map[int][]Pattern
}

// NewEnumerator creates an empty Enumerator.
func NewEnumerator() *Enumerator {
	return &Enumerator{cache: make(map[int][]Pattern)}
}

// Patterns returns one Pattern per shape of n, in Shapes order.
func (e *Enumerator) Patterns(n int) ([]Pattern, error) {
	if n > MaxPoints {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrInvalidCount, n, MaxPoints)
	}

	e.mu.RLock()
	cached, ok := e.cache[n]
	e.mu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err, _ := e.group.Do(strconv.Itoa(n), func() (any, error) {
		patterns, err := compute(n)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		e.cache[n] = patterns
		e.mu.Unlock()
		return patterns, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Pattern), nil
}

func compute(n int) ([]Pattern, error) {
	shapes, err := Shapes(n)
	if err != nil {
		return nil, err
	}

	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}

	patterns := make([]Pattern, len(shapes))
	for i, shape := range shapes {
		patterns[i] = Pattern{
			Shape:      shape,
			Signatures: Realize(Assignments(shape, pool), Canonical(shape)),
		}
	}
	return patterns, nil
}

// FormatShape renders a shape as "[ 2 2 ]".
func FormatShape(shape []int) string {
	parts := make([]string, len(shape))
	for i, g := range shape {
		parts[i] = strconv.Itoa(g)
	}
	return "[ " + strings.Join(parts, " ") + " ]"
}
