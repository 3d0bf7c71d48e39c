package testfixtures

import (
	"sync/atomic"
	"time"
)

// Clock is a settable time source shared by the services under test. Services
// read it through NowFunc so a test can move time between calls.
type Clock struct {
	current atomic.Pointer[time.Time]
}

// NewClock starts the clock at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	c := &Clock{}
	c.Set(start)
	return c
}

func (c *Clock) Now() time.Time {
	return *c.current.Load()
}

// NowFunc returns Now as an injectable function. A nil clock falls back to
// the wall clock.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

func (c *Clock) Set(t time.Time) {
	c.current.Store(&t)
}

// Advance moves the clock by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	return c.update(func(t time.Time) time.Time { return t.Add(d) })
}

// AdvanceDays moves the clock by whole calendar days, keeping the wall time
// in the clock's location.
func (c *Clock) AdvanceDays(days int) time.Time {
	return c.update(func(t time.Time) time.Time { return t.AddDate(0, 0, days) })
}

func (c *Clock) update(step func(time.Time) time.Time) time.Time {
	for {
		old := c.current.Load()
		next := step(*old)
		if c.current.CompareAndSwap(old, &next) {
			return next
		}
	}
}
