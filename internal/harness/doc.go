// Package harness provides conformance testing for ceremony playback.
//
// The harness drives a real playback controller on a manual clock, feeding it
// an explicit list of frame times, and checks the recorded trace and callback
// firings against declarative assertions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: prep_to_session_coarse
//	description: "What this scenario validates"
//	ceremony: prep-to-session
//	reduced_motion: false
//	ticks_ms: [0, 1000, 3000]
//	extra_frames: 1
//	actions:
//	  - at_ms: 500
//	    do: start
//	    ceremony: keyboard-bypass
//	assertions:
//	  - type: switch_at_ms
//	    at_ms: 3000
//	  - type: idle_after_complete
//
// Instead of ticks_ms, step_ms and until_ms generate evenly spaced frames.
// An inline timeline block registers a custom timeline under the ceremony
// identifier.
//
// # Assertion Types
//
//   - switch_count, complete_count: callback fired exactly count times
//   - switch_at_ms, complete_at_ms: callback fired once, on the frame at at_ms
//   - phase_at_ms: the running frame sampled at at_ms reports phase
//   - idle_after_complete: complete is followed by exactly one idle reset
//   - progress_monotonic: progress never decreases and is 1 on completion
//   - timeline_used, ceremony_active, outcome: recording metadata
//   - ignored_starts: number of start requests the controller rejected
//
// Every assertion except ignored_starts inspects one playback, selected by
// its zero-based playback index.
//
// # Deterministic Testing
//
// Playback IDs come from a sequential generator and time from a manual
// clock, so traces are identical across runs and suitable for golden files.
package harness
