package engine

import "time"

// Clock is a monotonic time source. Readings are offsets from an arbitrary
// origin and never decrease.
type Clock interface {
	Now() time.Duration
}

// SystemClock reads the runtime's monotonic clock.
//
// Thread-safety: SystemClock is immutable after construction.
type SystemClock struct {
	origin time.Time
}

// NewSystemClock creates a clock whose origin is the moment of creation.
func NewSystemClock() *SystemClock {
	return &SystemClock{origin: time.Now()}
}

// Now returns the time elapsed since the clock was created.
// time.Since uses the monotonic reading, so wall-clock jumps are ignored.
func (c *SystemClock) Now() time.Duration {
	return time.Since(c.origin)
}
