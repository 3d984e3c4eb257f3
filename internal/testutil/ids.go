package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator hands out document IDs in a predictable order: first the
// IDs it was built with, then synthetic UUID-shaped IDs numbered from 1.
//
// Two generators built with the same arguments produce the same sequence, so
// stored documents and golden snapshots stay byte-identical between runs.
type FixedIDGenerator struct {
	mu   sync.Mutex
	ids  []string
	next int
	n    int
}

// NewFixedIDGenerator returns a generator that yields ids before falling
// back to synthetic IDs.
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	return &FixedIDGenerator{ids: ids}
}

// NewID returns the next ID.
func (g *FixedIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.next < len(g.ids) {
		id := g.ids[g.next]
		g.next++
		return id
	}
	g.n++
	return SyntheticID(g.n)
}

// Reset restarts the sequence from the first configured ID.
func (g *FixedIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next = 0
	g.n = 0
}

// SyntheticID formats n as a version 7 shaped UUID.
func SyntheticID(n int) string {
	return fmt.Sprintf("00000000-0000-7000-8000-%012d", n)
}
