package engine

import (
	"context"
	"sync"
	"time"
)

// FrameID identifies a pending frame request.
type FrameID uint64

// FrameFunc is invoked once with the frame timestamp, read from the
// scheduler's clock.
type FrameFunc func(now time.Duration)

// FrameScheduler delivers one-shot callbacks on the next display frame.
//
// A callback requested while a frame is being delivered runs on the
// following frame, never the current one. CancelFrame on an ID that already
// ran or was already cancelled is a no-op.
type FrameScheduler interface {
	RequestFrame(fn FrameFunc) FrameID
	CancelFrame(id FrameID)
}

// DefaultFPS is the refresh rate used when none is configured.
const DefaultFPS = 60

// FrameLoop is a FrameScheduler driven by a fixed-rate ticker.
//
// Thread-safety model:
//   - RequestFrame, CancelFrame, Pending: safe from any goroutine
//   - Run: must be called from exactly one goroutine
//   - Flush: called by Run; tests may call it directly instead of Run
//
// All frame callbacks run on the goroutine calling Run (or Flush), in request order.
type FrameLoop struct {
	clock    Clock
	interval time.Duration

	mu      sync.Mutex
	nextID  FrameID
	pending map[FrameID]FrameFunc
	order   []FrameID
}

// NewFrameLoop creates a loop delivering frames fps times per second.
// A non-positive fps selects DefaultFPS.
func NewFrameLoop(clock Clock, fps int) *FrameLoop {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &FrameLoop{
		clock:    clock,
		interval: time.Second / time.Duration(fps),
		pending:  make(map[FrameID]FrameFunc),
	}
}

// Interval returns the time between frames.
func (l *FrameLoop) Interval() time.Duration {
	return l.interval
}

// RequestFrame schedules fn for the next frame.
func (l *FrameLoop) RequestFrame(fn FrameFunc) FrameID {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	id := l.nextID
	l.pending[id] = fn
	l.order = append(l.order, id)
	return id
}

// CancelFrame removes a pending request.
func (l *FrameLoop) CancelFrame(id FrameID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, id)
}

// Pending returns the number of requests waiting for a frame.
func (l *FrameLoop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Run delivers frames until ctx is cancelled.
func (l *FrameLoop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Flush(l.clock.Now())
		}
	}
}

// Flush delivers one frame at timestamp now. Only requests made before the
// call are delivered; requests made by the callbacks wait for the next Flush.
func (l *FrameLoop) Flush(now time.Duration) int {
	l.mu.Lock()
	batch := l.order
	l.order = nil
	l.mu.Unlock()

	delivered := 0
	for _, id := range batch {
		// Cancellation may happen between frames or from an earlier callback
		// in this batch, so each request is re-checked under the lock.
		l.mu.Lock()
		fn, ok := l.pending[id]
		delete(l.pending, id)
		l.mu.Unlock()

		if ok {
			fn(now)
			delivered++
		}
	}
	return delivered
}
