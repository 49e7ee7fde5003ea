package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracefold/internal/checkpoint"
	"github.com/roach88/tracefold/internal/merge"
)

var _ checkpoint.IDGenerator = (*SequentialIDs)(nil)

func TestSequentialIDs(t *testing.T) {
	ids := NewSequentialIDs("")
	assert.Equal(t, "run-0001", ids.Generate())
	assert.Equal(t, "run-0002", ids.Generate())

	ids.Reset()
	assert.Equal(t, "run-0001", ids.Generate())

	custom := NewSequentialIDs("job")
	assert.Equal(t, "job-0001", custom.Generate())
}

func TestSequentialIDs_ThreadSafe(t *testing.T) {
	ids := NewSequentialIDs("run")
	const goroutines = 20
	const perGoroutine = 50

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				id := ids.Generate()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines*perGoroutine)
}

func TestLikeTerms(t *testing.T) {
	s := LikeTerms(12, 3)
	require.Equal(t, 12, s.Len())
	assert.Equal(t, " {A} {FourierSum[ ( 0, 1 ) ]} {1 / 1} ", s.Terms[4].String())

	merged := merge.CombineBatched(s, 100)
	assert.Equal(t,
		" {A} {FourierSum[ ( 0, 0 ) ]} {4 / 1}  +  {A} {FourierSum[ ( 0, 1 ) ]} {4 / 1}  +  {A} {FourierSum[ ( 0, 2 ) ]} {4 / 1} ",
		merged.String())
}
