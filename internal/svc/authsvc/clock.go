package authsvc

import (
	"sync/atomic"
	"time"
)

// Clock returns the current time.
type Clock func() time.Time

// monotonicClock never reports a time earlier than one it already reported,
// so token issue times keep increasing when the wall clock steps back.
type monotonicClock struct {
	now  Clock
	last atomic.Int64 // unix nanoseconds
}

func newMonotonicClock(now Clock) *monotonicClock {
	if now == nil {
		now = time.Now
	}

	return &monotonicClock{now: now}
}

func (c *monotonicClock) Now() time.Time {
	for {
		t := c.now()
		last := c.last.Load()

		if t.UnixNano() <= last {
			return time.Unix(0, last).In(t.Location())
		}

		if c.last.CompareAndSwap(last, t.UnixNano()) {
			return t
		}
	}
}
