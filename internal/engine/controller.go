package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/ceremony/internal/resolve"
	"github.com/roach88/ceremony/internal/timeline"
)

// beforeStart is the previous-sample value for the first tick, so a switch
// instant at offset zero is crossed by the first sample.
const beforeStart = -time.Nanosecond

// Controller plays one ceremony at a time.
//
// Thread-safety model:
//   - Start, Cancel, Snapshot, IsBlocking, Timeline: safe from any goroutine
//   - ticks run on the FrameScheduler's goroutine
//   - callbacks and observers run with the lock released
//   - a callback runs under dispatchMu after re-checking gen; Cancel waits
//     for dispatchMu unless it is called from inside that callback
//
// INVARIANTS:
//   - only the controller mutates the session
//   - gen changes on every Start and Cancel; a tick or reset carrying a stale
//     gen does nothing
//   - lock order is dispatchMu before mu
type Controller struct {
	frames      FrameScheduler
	clock       Clock
	registry    *timeline.Registry
	motion      MotionPreference
	ids         PlaybackIDGenerator
	logger      *slog.Logger
	onError     func(error)
	nonBlocking map[timeline.Identifier]bool

	hub observerHub

	dispatchMu sync.Mutex

	mu          sync.Mutex
	session     Snapshot
	tl          timeline.Timeline
	prevElapsed time.Duration
	callbacks   Callbacks
	frameID     FrameID
	frameArmed  bool
	gen         uint64
	dispatching bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithRegistry sets the timeline registry. Default: timeline.Builtin().
func WithRegistry(r *timeline.Registry) Option {
	return func(c *Controller) {
		c.registry = r
	}
}

// WithMotion sets the reduced-motion preference. Default: never reduced.
func WithMotion(m MotionPreference) Option {
	return func(c *Controller) {
		c.motion = m
	}
}

// WithPlaybackIDs sets the playback ID generator. Default: UUIDv7Generator.
func WithPlaybackIDs(g PlaybackIDGenerator) Option {
	return func(c *Controller) {
		c.ids = g
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithErrorHandler receives every CallbackError in addition to the log entry.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Controller) {
		c.onError = fn
	}
}

// WithNonBlocking replaces the set of identifiers that never block interaction.
// Default: timeline.EntityCreation.
func WithNonBlocking(ids ...timeline.Identifier) Option {
	return func(c *Controller) {
		c.nonBlocking = make(map[timeline.Identifier]bool, len(ids))
		for _, id := range ids {
			c.nonBlocking[id] = true
		}
	}
}

// New creates an idle Controller ticking on frames and timed by clock.
// The clock must be the same one that stamps the scheduler's frames.
func New(frames FrameScheduler, clock Clock, opts ...Option) *Controller {
	c := &Controller{
		frames:      frames,
		clock:       clock,
		registry:    timeline.Builtin(),
		motion:      NewStaticMotion(false),
		ids:         UUIDv7Generator{},
		logger:      slog.Default(),
		nonBlocking: map[timeline.Identifier]bool{timeline.EntityCreation: true},
		session:     idleSnapshot(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins playing the ceremony id.
//
// Start is ignored while another playback is running or awaiting its idle
// reset, including when called from inside that playback's callbacks. It
// returns whether the request was accepted; callers are free to ignore it.
func (c *Controller) Start(id timeline.Identifier, cb Callbacks) bool {
	c.mu.Lock()
	if c.session.Status != StatusIdle {
		status, active := c.session.Status, c.session.Identifier
		c.mu.Unlock()
		c.logger.Debug("ceremony start ignored",
			"ceremony", id,
			"active", active,
			"status", status,
		)
		return false
	}

	reduced := c.motion.ReducedMotion()
	tl := c.registry.Lookup(id, reduced)

	c.gen++
	gen := c.gen
	c.tl = tl
	c.prevElapsed = beforeStart
	c.callbacks = cb
	c.session = Snapshot{
		PlaybackID:    c.ids.Generate(),
		Identifier:    id,
		Timeline:      tl.ID,
		Status:        StatusRunning,
		Phase:         tl.FirstPhase(),
		Progress:      0,
		StartedAt:     c.clock.Now(),
		ReducedMotion: reduced,
	}
	c.session.Blocking = c.blockingLocked()
	c.frameID = c.frames.RequestFrame(func(now time.Duration) { c.tick(gen, now) })
	c.frameArmed = true
	snap := c.session
	c.mu.Unlock()

	c.logger.Info("ceremony started",
		"playback", snap.PlaybackID,
		"ceremony", id,
		"timeline", tl.ID,
		"total", tl.Total,
		"reduced_motion", reduced,
	)
	c.publish(Update{Kind: EventStarted, Snapshot: snap})
	return true
}

// Cancel stops the current playback immediately and returns the session to
// idle. No callback of the cancelled playback fires after Cancel returns.
// Cancel on an idle session is a no-op.
func (c *Controller) Cancel() {
	c.mu.Lock()
	inCallback := c.dispatching
	c.mu.Unlock()
	if !inCallback {
		// A tick that has checked gen but not yet called back finishes first.
		c.dispatchMu.Lock()
	}

	c.mu.Lock()
	idle := c.session.Status == StatusIdle
	prev := c.session
	if !idle {
		c.gen++
		c.disarmLocked()
		c.resetLocked()
	}
	snap := c.session
	c.mu.Unlock()
	if !inCallback {
		c.dispatchMu.Unlock()
	}
	if idle {
		return
	}

	c.logger.Info("ceremony cancelled",
		"playback", prev.PlaybackID,
		"ceremony", prev.Identifier,
		"status", prev.Status,
		"progress", prev.Progress,
	)
	c.publish(Update{Kind: EventCancelled, Snapshot: snap})
}

// CancelOnDone cancels any playback when ctx is done, binding the controller
// to the lifetime of its host. The returned function detaches the binding.
func (c *Controller) CancelOnDone(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, c.Cancel)
}

// Snapshot returns the session as of the last completed update.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// IsBlocking reports whether a running playback should block interaction.
func (c *Controller) IsBlocking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blockingLocked()
}

// Timeline returns the timeline of the current playback, if any.
func (c *Controller) Timeline() (timeline.Timeline, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Status == StatusIdle {
		return timeline.Timeline{}, false
	}
	return c.tl, true
}

func (c *Controller) blockingLocked() bool {
	return c.session.Status == StatusRunning && !c.nonBlocking[c.session.Identifier]
}

// tick advances the playback to frame time now.
func (c *Controller) tick(gen uint64, now time.Duration) {
	c.mu.Lock()
	if gen != c.gen || c.session.Status != StatusRunning {
		c.mu.Unlock()
		return
	}
	c.frameArmed = false

	elapsed := now - c.session.StartedAt
	if elapsed < c.prevElapsed {
		elapsed = c.prevElapsed
	}
	if elapsed < 0 {
		elapsed = 0
	}

	// The switch must precede any phase resolution at or past its instant,
	// including on a tick that jumps straight past the total.
	switched := false
	if resolve.CrossedSwitchInstant(c.tl, c.prevElapsed, elapsed) {
		snap := c.session
		c.mu.Unlock()

		c.logger.Debug("ceremony mode switch", "playback", snap.PlaybackID, "elapsed", elapsed)
		if !c.dispatch(gen, CallbackModeSwitch, snap, takeModeSwitch) {
			return
		}

		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		switched = true
	}

	if resolve.Finished(c.tl, elapsed) {
		c.finishLocked(gen, elapsed, switched)
		return
	}

	if p, ok := resolve.ActivePhase(c.tl, elapsed); ok && p.ID != c.session.Phase {
		c.logger.Debug("ceremony phase",
			"playback", c.session.PlaybackID,
			"phase", p.ID,
			"elapsed", elapsed,
		)
		c.session.Phase = p.ID
	}
	c.session.Progress = resolve.Progress(c.tl, elapsed)
	c.session.Elapsed = elapsed
	c.prevElapsed = elapsed
	c.frameID = c.frames.RequestFrame(func(now time.Duration) { c.tick(gen, now) })
	c.frameArmed = true
	snap := c.session
	c.mu.Unlock()

	kind := EventTick
	if switched {
		kind = EventModeSwitch
	}
	c.publish(Update{Kind: kind, Snapshot: snap})
}

// finishLocked marks the session complete, schedules the idle reset for the
// next frame and fires OnComplete. Called with c.mu held; releases it.
func (c *Controller) finishLocked(gen uint64, elapsed time.Duration, switched bool) {
	c.session.Status = StatusComplete
	c.session.Phase = timeline.PhaseIdle
	c.session.Progress = 1
	c.session.Elapsed = elapsed
	c.session.Blocking = false
	c.prevElapsed = elapsed
	c.callbacks.OnModeSwitch = nil
	c.frameID = c.frames.RequestFrame(func(time.Duration) { c.reset(gen) })
	c.frameArmed = true
	snap := c.session
	c.mu.Unlock()

	if switched {
		c.publish(Update{Kind: EventModeSwitch, Snapshot: snap})
	}

	c.logger.Info("ceremony complete",
		"playback", snap.PlaybackID,
		"ceremony", snap.Identifier,
		"elapsed", elapsed,
	)
	c.publish(Update{Kind: EventComplete, Snapshot: snap})
	c.dispatch(gen, CallbackComplete, snap, takeComplete)
}

// dispatch runs the callback that take removes from playback gen, unless the
// playback was cancelled first. It reports whether gen is still current once
// the callback returns.
func (c *Controller) dispatch(gen uint64, kind CallbackKind, snap Snapshot, take func(*Callbacks) func()) bool {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return false
	}
	fn := take(&c.callbacks)
	if fn == nil {
		c.mu.Unlock()
		return true
	}
	c.dispatching = true
	c.mu.Unlock()

	c.invoke(kind, snap, fn)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatching = false
	return gen == c.gen
}

func takeModeSwitch(cb *Callbacks) func() {
	fn := cb.OnModeSwitch
	cb.OnModeSwitch = nil
	return fn
}

func takeComplete(cb *Callbacks) func() {
	fn := cb.OnComplete
	cb.OnComplete = nil
	return fn
}

// reset returns a completed session to idle one frame after completion.
func (c *Controller) reset(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.session.Status != StatusComplete {
		c.mu.Unlock()
		return
	}
	c.frameArmed = false
	c.resetLocked()
	snap := c.session
	c.mu.Unlock()

	c.publish(Update{Kind: EventReset, Snapshot: snap})
}

func (c *Controller) resetLocked() {
	c.session = idleSnapshot()
	c.tl = timeline.Timeline{}
	c.prevElapsed = beforeStart
	c.callbacks = Callbacks{}
}

func (c *Controller) disarmLocked() {
	if c.frameArmed {
		c.frames.CancelFrame(c.frameID)
		c.frameArmed = false
	}
}

// invoke runs caller code, converting a panic into a reported CallbackError.
func (c *Controller) invoke(kind CallbackKind, snap Snapshot, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err := &CallbackError{
				Kind:       kind,
				PlaybackID: snap.PlaybackID,
				Identifier: snap.Identifier,
				Value:      r,
			}
			c.logger.Error("ceremony callback failed",
				"kind", kind,
				"playback", snap.PlaybackID,
				"ceremony", snap.Identifier,
				"error", err,
			)
			if c.onError != nil {
				c.onError(err)
			}
		}
	}()
	fn()
}
