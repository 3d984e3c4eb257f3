package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedIDGenerator_ConfiguredThenSynthetic(t *testing.T) {
	gen := NewFixedIDGenerator("doc-a", "doc-b")

	assert.Equal(t, "doc-a", gen.NewID())
	assert.Equal(t, "doc-b", gen.NewID())
	assert.Equal(t, "00000000-0000-7000-8000-000000000001", gen.NewID())
	assert.Equal(t, "00000000-0000-7000-8000-000000000002", gen.NewID())
}

func TestFixedIDGenerator_Reset(t *testing.T) {
	gen := NewFixedIDGenerator("doc-a")
	gen.NewID()
	gen.NewID()

	gen.Reset()
	assert.Equal(t, "doc-a", gen.NewID())
	assert.Equal(t, SyntheticID(1), gen.NewID())
}

func TestFixedIDGenerator_Deterministic(t *testing.T) {
	a := NewFixedIDGenerator("x")
	b := NewFixedIDGenerator("x")
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.NewID(), b.NewID())
	}
}

func TestFixedIDGenerator_ConcurrentIDsAreUnique(t *testing.T) {
	gen := NewFixedIDGenerator()
	const workers, perWorker = 8, 50

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				id := gen.NewID()
				mu.Lock()
				assert.False(t, seen[id], "duplicate id %s", id)
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, workers*perWorker)
}
