package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock time.Duration

func (c fixedClock) Now() time.Duration { return time.Duration(c) }

func TestNewFrameLoopInterval(t *testing.T) {
	assert.Equal(t, time.Second/60, NewFrameLoop(nil, 0).Interval())
	assert.Equal(t, time.Second/60, NewFrameLoop(nil, -5).Interval())
	assert.Equal(t, time.Second/120, NewFrameLoop(nil, 120).Interval())
}

func TestFrameLoopDeliversInRequestOrder(t *testing.T) {
	loop := NewFrameLoop(fixedClock(0), 60)

	var got []string
	var stamps []time.Duration
	loop.RequestFrame(func(now time.Duration) { got = append(got, "a"); stamps = append(stamps, now) })
	loop.RequestFrame(func(now time.Duration) { got = append(got, "b"); stamps = append(stamps, now) })
	require.Equal(t, 2, loop.Pending())

	assert.Equal(t, 2, loop.Flush(42*time.Millisecond))
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, []time.Duration{42 * time.Millisecond, 42 * time.Millisecond}, stamps)
	assert.Equal(t, 0, loop.Pending())
	assert.Equal(t, 0, loop.Flush(50*time.Millisecond))
}

func TestFrameLoopRequestDuringFlushWaitsForNextFrame(t *testing.T) {
	loop := NewFrameLoop(fixedClock(0), 60)

	var frames []time.Duration
	var next FrameFunc
	next = func(now time.Duration) {
		frames = append(frames, now)
		loop.RequestFrame(next)
	}
	loop.RequestFrame(next)

	loop.Flush(1)
	assert.Equal(t, []time.Duration{1}, frames)
	assert.Equal(t, 1, loop.Pending())

	loop.Flush(2)
	assert.Equal(t, []time.Duration{1, 2}, frames)
}

func TestFrameLoopCancel(t *testing.T) {
	loop := NewFrameLoop(fixedClock(0), 60)

	ran := false
	id := loop.RequestFrame(func(time.Duration) { ran = true })
	loop.CancelFrame(id)
	loop.CancelFrame(id)
	loop.CancelFrame(FrameID(999))

	assert.Equal(t, 0, loop.Pending())
	assert.Equal(t, 0, loop.Flush(1))
	assert.False(t, ran)
}

func TestFrameLoopCancelFromEarlierCallback(t *testing.T) {
	loop := NewFrameLoop(fixedClock(0), 60)

	ran := false
	var second FrameID
	loop.RequestFrame(func(time.Duration) { loop.CancelFrame(second) })
	second = loop.RequestFrame(func(time.Duration) { ran = true })

	assert.Equal(t, 1, loop.Flush(1))
	assert.False(t, ran)
}

func TestFrameLoopRun(t *testing.T) {
	loop := NewFrameLoop(NewSystemClock(), 250)

	var mu sync.Mutex
	var stamps []time.Duration
	done := make(chan struct{})
	var next FrameFunc
	next = func(now time.Duration) {
		mu.Lock()
		stamps = append(stamps, now)
		n := len(stamps)
		mu.Unlock()
		if n == 3 {
			close(done)
			return
		}
		loop.RequestFrame(next)
	}
	loop.RequestFrame(next)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- loop.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("frames were not delivered")
	}
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, stamps, 3)
	assert.Less(t, stamps[0], stamps[1])
	assert.Less(t, stamps[1], stamps[2])
}

func TestSystemClockMonotonic(t *testing.T) {
	c := NewSystemClock()
	a := c.Now()
	b := c.Now()
	assert.GreaterOrEqual(t, a, time.Duration(0))
	assert.GreaterOrEqual(t, b, a)
}

func TestStaticMotion(t *testing.T) {
	m := NewStaticMotion(true)
	assert.True(t, m.ReducedMotion())
	m.Set(false)
	assert.False(t, m.ReducedMotion())

	assert.True(t, MotionFunc(func() bool { return true }).ReducedMotion())
}
