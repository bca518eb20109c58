package testutil

import (
	"fmt"
	"sync"
)

// SeqIDGenerator returns "id-1", "id-2", ... with a configurable
// prefix. Implements engine.IDGenerator.
//
// Unlike engine.FixedGenerator, which replays an explicit list, this
// generator never runs out: it is the right default for scenarios where
// ids only need to be stable, not chosen.
type SeqIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSeqIDGenerator creates a sequential id generator.
// An empty prefix defaults to "id".
func NewSeqIDGenerator(prefix string) *SeqIDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &SeqIDGenerator{prefix: prefix}
}

// Generate returns the next sequential id.
func (g *SeqIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Reset restarts the sequence. After Reset the next id is prefix-1.
func (g *SeqIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
