package clock

import (
	"sync"
	"time"
)

// VirtualClock is a simulated time source. Time moves only through Advance,
// or, for a stepping clock, through After itself.
type VirtualClock struct {
	mu       sync.RWMutex
	now      time.Time
	pending  []timer
	stepping bool
}

type timer struct {
	at time.Time
	ch chan time.Time
}

// NewVirtualClock returns a clock frozen at start.
func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{now: start}
}

// NewSteppingClock returns a clock that jumps forward by d on every After(d),
// so a playback loop runs to completion on one goroutine.
func NewSteppingClock(start time.Time) *VirtualClock {
	return &VirtualClock{now: start, stepping: true}
}

func (c *VirtualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *VirtualClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// After returns a channel that fires once the clock reaches now+d.
func (c *VirtualClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if c.stepping && d > 0 {
		c.moveTo(c.now.Add(d))
	}
	if d <= 0 || c.stepping {
		ch <- c.now
		return ch
	}
	c.pending = append(c.pending, timer{at: c.now.Add(d), ch: ch})
	return ch
}

// Advance moves the clock forward, firing every timer that falls due.
// It panics on a negative d.
func (c *VirtualClock) Advance(d time.Duration) {
	if d < 0 {
		panic("clock: negative advance")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.moveTo(c.now.Add(d))
}

// moveTo requires c.mu.
func (c *VirtualClock) moveTo(t time.Time) {
	c.now = t
	kept := c.pending[:0]
	for _, tm := range c.pending {
		if tm.at.After(t) {
			kept = append(kept, tm)
			continue
		}
		tm.ch <- t
	}
	c.pending = kept
}
