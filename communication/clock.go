package communication

import (
	"sync/atomic"
	"time"
)

// Clock hands out timestamps for last-writer-wins decisions. Successive
// calls on one replica should not go backwards.
type Clock interface {
	Now() uint64
}

// Witnesser is implemented by clocks that can catch up with
// timestamps observed on other replicas.
type Witnesser interface {
	Witness(observed uint64)
}

// LamportClock is a monotonically increasing logical clock.
// It is safe for concurrent use.
type LamportClock struct {
	counter atomic.Uint64
}

// Now ticks the clock and returns the new value.
func (c *LamportClock) Now() uint64 {
	return c.counter.Add(1)
}

// Witness moves the clock to at least observed so the next Now is
// strictly greater than anything seen so far.
func (c *LamportClock) Witness(observed uint64) {
	for {
		current := c.counter.Load()
		if observed <= current {
			return
		}
		if c.counter.CompareAndSwap(current, observed) {
			return
		}
	}
}

// Current returns the clock value without ticking.
func (c *LamportClock) Current() uint64 {
	return c.counter.Load()
}

// WallClock reads the system time in nanoseconds since the Unix epoch.
type WallClock struct{}

func (WallClock) Now() uint64 {
	return uint64(time.Now().UnixNano())
}

// ManualClock returns whatever was last stored in it.
type ManualClock struct {
	ts atomic.Uint64
}

func NewManualClock(ts uint64) *ManualClock {
	c := &ManualClock{}
	c.ts.Store(ts)
	return c
}

func (c *ManualClock) Now() uint64 {
	return c.ts.Load()
}

func (c *ManualClock) Set(ts uint64) {
	c.ts.Store(ts)
}
