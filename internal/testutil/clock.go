package testutil

import "sync/atomic"

// DeterministicClock numbers recorded runs in tests. It satisfies
// engine.Sequencer and, unlike engine.Clock, can be rewound so a session
// recorded twice gets identical seq values and therefore identical run IDs.
type DeterministicClock struct {
	start int64
	seq   atomic.Int64
}

// NewDeterministicClock returns a clock whose first Next is 1.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockFrom(0)
}

// NewDeterministicClockFrom returns a clock whose first Next is start+1.
// Reset rewinds to start.
func NewDeterministicClockFrom(start int64) *DeterministicClock {
	c := &DeterministicClock{start: start}
	c.seq.Store(start)
	return c
}

func (c *DeterministicClock) Next() int64 { return c.seq.Add(1) }

func (c *DeterministicClock) Current() int64 { return c.seq.Load() }

// Reset rewinds to the starting value.
func (c *DeterministicClock) Reset() { c.seq.Store(c.start) }
