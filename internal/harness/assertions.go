package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/ceremony/internal/engine"
	"github.com/roach88/ceremony/internal/testutil"
	"github.com/roach88/ceremony/internal/trace"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string        // Assertion type for categorization
	Expected string        // Human-readable expected outcome
	Actual   string        // Human-readable actual outcome
	Frames   []trace.Frame // Frames of the inspected playback
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Frames) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, f := range e.Frames {
			fmt.Fprintf(&buf, "  [%d] %s %s %s @%s %.3f\n", f.Seq, f.Kind, f.Status, f.Phase, f.Elapsed, f.Progress)
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the result and returns
// the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertIgnoredStarts:
			err = assertIgnoredStarts(result, assertion)
		default:
			rec, ok := playback(result, assertion.Playback)
			if !ok {
				err = fmt.Errorf("assertion[%d]: no playback %d (scenario produced %d)", i, assertion.Playback, len(result.Recordings))
				break
			}
			err = evaluateOn(result, rec, i, assertion)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

func evaluateOn(result *Result, rec trace.Recording, index int, assertion Assertion) error {
	switch assertion.Type {
	case AssertSwitchCount:
		return assertFiringCount(rec, result.firingsFor(result.Switches, rec.PlaybackID), assertion)
	case AssertSwitchAt:
		return assertFiringAt(rec, result.firingsFor(result.Switches, rec.PlaybackID), assertion)
	case AssertCompleteCount:
		return assertFiringCount(rec, result.firingsFor(result.Completions, rec.PlaybackID), assertion)
	case AssertCompleteAt:
		return assertFiringAt(rec, result.firingsFor(result.Completions, rec.PlaybackID), assertion)
	case AssertPhaseAt:
		return assertPhaseAt(rec, assertion)
	case AssertIdleAfterComplete:
		return assertIdleAfterComplete(rec)
	case AssertProgressMonotonic:
		return assertProgressMonotonic(rec)
	case AssertTimelineUsed:
		if string(rec.Timeline) != assertion.Timeline {
			return &AssertionError{
				Type:     AssertTimelineUsed,
				Expected: assertion.Timeline,
				Actual:   string(rec.Timeline),
			}
		}
	case AssertCeremonyActive:
		if string(rec.Ceremony) != assertion.Ceremony {
			return &AssertionError{
				Type:     AssertCeremonyActive,
				Expected: assertion.Ceremony,
				Actual:   string(rec.Ceremony),
			}
		}
	case AssertOutcome:
		if rec.Outcome != assertion.Outcome {
			return &AssertionError{
				Type:     AssertOutcome,
				Expected: assertion.Outcome,
				Actual:   rec.Outcome,
				Frames:   rec.Frames,
			}
		}
	default:
		return fmt.Errorf("assertion[%d]: unknown assertion type %q", index, assertion.Type)
	}
	return nil
}

func playback(result *Result, index int) (trace.Recording, bool) {
	if index < 0 || index >= len(result.Recordings) {
		return trace.Recording{}, false
	}
	return result.Recordings[index], true
}

func assertIgnoredStarts(result *Result, assertion Assertion) error {
	if result.IgnoredStarts != assertion.Count {
		return &AssertionError{
			Type:     AssertIgnoredStarts,
			Expected: fmt.Sprintf("%d ignored starts", assertion.Count),
			Actual:   fmt.Sprintf("%d ignored starts", result.IgnoredStarts),
		}
	}
	return nil
}

func assertFiringCount(rec trace.Recording, firings []Firing, assertion Assertion) error {
	if len(firings) != assertion.Count {
		return &AssertionError{
			Type:     assertion.Type,
			Expected: fmt.Sprintf("%d firings for %s", assertion.Count, rec.PlaybackID),
			Actual:   fmt.Sprintf("%d firings", len(firings)),
			Frames:   rec.Frames,
		}
	}
	return nil
}

// assertFiringAt checks that the callback fired exactly once, on the frame
// at the given time.
func assertFiringAt(rec trace.Recording, firings []Firing, assertion Assertion) error {
	want := testutil.Ms(assertion.AtMs)
	if len(firings) != 1 || firings[0].Elapsed != want {
		actual := make([]string, len(firings))
		for i, f := range firings {
			actual[i] = f.Elapsed.String()
		}
		return &AssertionError{
			Type:     assertion.Type,
			Expected: fmt.Sprintf("one firing at %s", want),
			Actual:   fmt.Sprintf("firings at [%s]", strings.Join(actual, ", ")),
			Frames:   rec.Frames,
		}
	}
	return nil
}

// assertPhaseAt checks the phase reported by the last running frame sampled
// at the given elapsed time.
func assertPhaseAt(rec trace.Recording, assertion Assertion) error {
	want := testutil.Ms(assertion.AtMs)
	var found *trace.Frame
	for i := range rec.Frames {
		f := &rec.Frames[i]
		if f.Elapsed == want && f.Status == engine.StatusRunning {
			found = f
		}
	}
	if found == nil {
		return &AssertionError{
			Type:     AssertPhaseAt,
			Expected: fmt.Sprintf("running frame at %s", want),
			Actual:   "no frame sampled at that time",
			Frames:   rec.Frames,
		}
	}
	if string(found.Phase) != assertion.Phase {
		return &AssertionError{
			Type:     AssertPhaseAt,
			Expected: fmt.Sprintf("phase %s at %s", assertion.Phase, want),
			Actual:   fmt.Sprintf("phase %s", found.Phase),
			Frames:   rec.Frames,
		}
	}
	return nil
}

// assertIdleAfterComplete checks that the complete frame is followed
// directly by exactly one reset to idle.
func assertIdleAfterComplete(rec trace.Recording) error {
	fail := func(actual string) error {
		return &AssertionError{
			Type:     AssertIdleAfterComplete,
			Expected: "complete followed by one idle reset",
			Actual:   actual,
			Frames:   rec.Frames,
		}
	}

	completeAt := -1
	for i, f := range rec.Frames {
		if f.Kind == engine.EventComplete {
			if completeAt >= 0 {
				return fail("playback completed twice")
			}
			completeAt = i
		}
	}
	if completeAt < 0 {
		return fail("playback never completed")
	}
	if completeAt+1 >= len(rec.Frames) {
		return fail("no frame after complete")
	}
	next := rec.Frames[completeAt+1]
	if next.Kind != engine.EventReset || next.Status != engine.StatusIdle {
		return fail(fmt.Sprintf("%s/%s after complete", next.Kind, next.Status))
	}
	if completeAt+2 != len(rec.Frames) {
		return fail("frames recorded after reset")
	}
	return nil
}

// assertProgressMonotonic checks that progress never decreases while the
// playback runs and is exactly 1 on completion.
func assertProgressMonotonic(rec trace.Recording) error {
	prev := 0.0
	for _, f := range rec.Frames {
		switch f.Kind {
		case engine.EventReset, engine.EventCancelled:
			continue
		}
		if f.Progress < prev {
			return &AssertionError{
				Type:     AssertProgressMonotonic,
				Expected: fmt.Sprintf("progress >= %.4f at frame %d", prev, f.Seq),
				Actual:   fmt.Sprintf("%.4f", f.Progress),
				Frames:   rec.Frames,
			}
		}
		if f.Kind == engine.EventComplete && f.Progress != 1 {
			return &AssertionError{
				Type:     AssertProgressMonotonic,
				Expected: "progress 1 at completion",
				Actual:   fmt.Sprintf("%.4f", f.Progress),
				Frames:   rec.Frames,
			}
		}
		prev = f.Progress
	}
	return nil
}
