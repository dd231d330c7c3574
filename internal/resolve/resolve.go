// Package resolve answers time-based questions about a timeline.
//
// Every function is pure: it reads a timeline and one or two elapsed samples
// and never retains state. The playback controller owns the samples.
package resolve

import (
	"time"

	"github.com/roach88/ceremony/internal/timeline"
)

// contains reports whether elapsed falls inside the phase window.
// Instant phases have no window and are only reported by CrossedSwitchInstant.
func contains(p timeline.Phase, elapsed time.Duration) bool {
	if p.Instant() {
		return false
	}
	return elapsed >= p.Start && elapsed < p.End()
}

// ActivePhase returns the phase in effect at elapsed.
//
// When several windows contain elapsed the phase declared last wins. The
// second result is false when no windowed phase contains elapsed, which the
// caller treats as idle.
func ActivePhase(tl timeline.Timeline, elapsed time.Duration) (timeline.Phase, bool) {
	for i := len(tl.Phases) - 1; i >= 0; i-- {
		if contains(tl.Phases[i], elapsed) {
			return tl.Phases[i], true
		}
	}
	return timeline.Phase{}, false
}

// ActivePhaseID is ActivePhase reduced to its tag, with PhaseIdle for a gap.
func ActivePhaseID(tl timeline.Timeline, elapsed time.Duration) timeline.PhaseID {
	if p, ok := ActivePhase(tl, elapsed); ok {
		return p.ID
	}
	return timeline.PhaseIdle
}

// ActivePhases returns every windowed phase containing elapsed, in
// declaration order. Presentation layers use it to animate overlapping
// layers together.
func ActivePhases(tl timeline.Timeline, elapsed time.Duration) []timeline.Phase {
	var out []timeline.Phase
	for _, p := range tl.Phases {
		if contains(p, elapsed) {
			out = append(out, p)
		}
	}
	return out
}

// LocalProgress returns how far elapsed is through the phase, clamped to [0, 1].
// Instant phases always report 1.
func LocalProgress(p timeline.Phase, elapsed time.Duration) float64 {
	if p.Instant() {
		return 1
	}
	return clamp01(float64(elapsed-p.Start) / float64(p.Duration))
}

// Progress returns elapsed as a fraction of the timeline total, clamped to [0, 1].
func Progress(tl timeline.Timeline, elapsed time.Duration) float64 {
	if tl.Total <= 0 {
		return 1
	}
	return clamp01(float64(elapsed) / float64(tl.Total))
}

// CrossedSwitchInstant reports whether the mode-switch instant lies in
// (prev, cur]. Feeding strictly increasing samples therefore reports the
// crossing exactly once. Timelines without a switch phase never cross.
func CrossedSwitchInstant(tl timeline.Timeline, prev, cur time.Duration) bool {
	sw, ok := tl.SwitchPhase()
	if !ok {
		return false
	}
	return prev < sw.Start && sw.Start <= cur
}

// Finished reports whether elapsed has reached the end of the timeline.
func Finished(tl timeline.Timeline, elapsed time.Duration) bool {
	return elapsed >= tl.Total
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
