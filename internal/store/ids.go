package store

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Clock stamps documents with a strictly increasing logical sequence.
type Clock interface {
	Next() int64
}

// IDGenerator produces document IDs.
type IDGenerator interface {
	NewID() string
}

// SeqClock is the default Clock. It is safe for concurrent use.
type SeqClock struct {
	seq atomic.Int64
}

// NewClockAt returns a clock whose first tick is start+1.
func NewClockAt(start int64) *SeqClock {
	c := &SeqClock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *SeqClock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last sequence number handed out.
func (c *SeqClock) Current() int64 {
	return c.seq.Load()
}

// UUIDv7Generator generates time-sortable UUIDv7 document IDs.
type UUIDv7Generator struct{}

// NewID returns a hyphenated UUIDv7. Panics if the random source fails.
func (UUIDv7Generator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
