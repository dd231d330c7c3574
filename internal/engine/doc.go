// Package engine implements the ceremony playback controller.
//
// ARCHITECTURE:
//
// Frame-Driven Single Writer:
// A Controller owns exactly one playback session. All session mutations happen
// inside Start, Cancel and the per-frame tick, serialized by one mutex. Ticks
// are driven by a FrameScheduler: FrameLoop in production (one goroutine,
// fixed refresh rate) or a manual driver in tests. Each tick requests the
// next, so ticks for one playback are strictly sequential.
//
// Playback Flow:
//  1. Start samples the reduced-motion preference and resolves a timeline
//  2. Start records the clock reading and requests the first frame
//  3. Each tick computes elapsed = frame time - start time (never decreasing)
//  4. A tick crossing the switch instant fires OnModeSwitch before resolving phases
//  5. The tick reaching the total marks the session complete and fires OnComplete
//  6. The following frame resets the session to idle
//
// Callbacks and observers run with the mutex released, so they may call
// Start, Cancel or Snapshot. A Start issued while a session is running or
// complete is ignored. A Cancel issued from a callback stops the tick that
// invoked it. A Cancel from another goroutine waits for a tick that is about
// to call back, and the tick then drops the stale callback.
//
// Guarantees:
//   - Single flight: only one playback at a time per Controller
//   - OnModeSwitch fires at most once, OnComplete at most once
//   - After Cancel returns no callback of the cancelled playback fires
//   - The reduced-motion preference is fixed for a playback's lifetime
//
// Panics raised by callbacks or observers are recovered, logged and reported
// to the error handler. Playback continues so the session always reaches idle.
package engine
