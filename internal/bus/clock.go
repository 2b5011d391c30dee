package bus

import "sync/atomic"

// Clock is a monotonic commit counter spanning all streams. Every
// accepted commit is stamped with a strictly increasing seq so that
// receipts from different streams have a total order in the log.
// Never wall-clock based; replaying the log reproduces the order.
//
// Thread-safety: atomic, safe from any goroutine.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific sequence number.
// Used when resuming over an existing store.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
