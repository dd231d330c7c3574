package testutil

import (
	"time"

	"github.com/roach88/ceremony/internal/engine"
)

// ManualFrames is a deterministic frame driver. Frames are delivered only by
// Step, StepTo and Frame, each delivering exactly one frame.
//
// It implements engine.FrameScheduler by delegating to an engine.FrameLoop
// that is flushed by hand instead of by a ticker.
type ManualFrames struct {
	Clock *ManualClock
	loop  *engine.FrameLoop
}

// NewManualFrames creates a driver whose clock starts at start.
func NewManualFrames(start time.Duration) *ManualFrames {
	clock := NewManualClock(start)
	return &ManualFrames{
		Clock: clock,
		loop:  engine.NewFrameLoop(clock, engine.DefaultFPS),
	}
}

// RequestFrame implements engine.FrameScheduler.
func (f *ManualFrames) RequestFrame(fn engine.FrameFunc) engine.FrameID {
	return f.loop.RequestFrame(fn)
}

// CancelFrame implements engine.FrameScheduler.
func (f *ManualFrames) CancelFrame(id engine.FrameID) {
	f.loop.CancelFrame(id)
}

// Pending returns the number of outstanding frame requests.
func (f *ManualFrames) Pending() int {
	return f.loop.Pending()
}

// Frame delivers one frame at the current clock reading.
func (f *ManualFrames) Frame() int {
	return f.loop.Flush(f.Clock.Now())
}

// Step advances the clock by d and delivers one frame.
func (f *ManualFrames) Step(d time.Duration) int {
	return f.loop.Flush(f.Clock.Advance(d))
}

// StepTo moves the clock to t and delivers one frame.
func (f *ManualFrames) StepTo(t time.Duration) int {
	return f.loop.Flush(f.Clock.Set(t))
}

// Ms is shorthand for n milliseconds.
func Ms(n int64) time.Duration {
	return time.Duration(n) * time.Millisecond
}
