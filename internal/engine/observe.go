package engine

import (
	"context"
	"sync"
)

// Observer receives session updates. Observers run synchronously on the
// ticking goroutine, after the controller has released its lock.
type Observer func(Update)

type observerEntry struct {
	id int
	fn Observer
}

// observerHub is an in-process fan-out of session updates.
type observerHub struct {
	mu      sync.RWMutex
	nextID  int
	entries []observerEntry
}

func (h *observerHub) subscribe(fn Observer) func() {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.entries = append(h.entries, observerEntry{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			for i, e := range h.entries {
				if e.id == id {
					h.entries = append(h.entries[:i:i], h.entries[i+1:]...)
					return
				}
			}
		})
	}
}

func (h *observerHub) snapshot() []observerEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.entries) == 0 {
		return nil
	}
	out := make([]observerEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Subscribe registers fn for every subsequent update, in subscription order.
// The returned function unsubscribes; calling it more than once is harmless.
func (c *Controller) Subscribe(fn Observer) (unsubscribe func()) {
	return c.hub.subscribe(fn)
}

// Watch returns a channel of updates that is closed when ctx is done.
// Updates are dropped rather than blocking the tick when the buffer is full.
func (c *Controller) Watch(ctx context.Context, buffer int) <-chan Update {
	ch := make(chan Update, buffer)

	var mu sync.Mutex
	closed := false

	unsubscribe := c.Subscribe(func(u Update) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- u:
		default:
			// Drop if the watcher is slow.
		}
	})

	context.AfterFunc(ctx, func() {
		unsubscribe()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	})

	return ch
}

// publish delivers u to every observer. A panicking observer is reported and
// does not stop delivery to the others, nor the playback itself.
func (c *Controller) publish(u Update) {
	for _, e := range c.hub.snapshot() {
		c.invoke(CallbackObserver, u.Snapshot, func() { e.fn(u) })
	}
}
