package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates checkpoint run ids "run-0001", "run-0002", ...
//
// Unlike checkpoint.FixedGenerator, SequentialIDs never runs out and can be
// reset, so the same scenario can run several times against fresh stores
// with identical run ids.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	seq    int
}

// NewSequentialIDs creates a generator whose first id is "<prefix>-0001".
// An empty prefix defaults to "run".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "run"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id.
//
// Implements checkpoint.IDGenerator.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%04d", g.prefix, g.seq)
}

// Reset restarts the sequence. The next Generate returns "<prefix>-0001".
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
