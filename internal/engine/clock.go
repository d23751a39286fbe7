package engine

import "sync/atomic"

// Sequencer hands out strictly increasing sequence numbers for recorded
// runs. Clock is the production implementation.
type Sequencer interface {
	Next() int64
}

// Clock numbers the runs of one session. The run log orders by these
// numbers, never by wall time, so replay walks a session in record order.
// Next is safe to call from the harness's worker goroutines.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock for a fresh session; its first Next is 1.
func NewClock() *Clock { return NewClockAt(0) }

// NewClockAt resumes a session whose last recorded seq is last.
func NewClockAt(last int64) *Clock {
	c := new(Clock)
	c.seq.Store(last)
	return c
}

func (c *Clock) Next() int64 { return c.seq.Add(1) }

// Current is the last number handed out.
func (c *Clock) Current() int64 { return c.seq.Load() }
