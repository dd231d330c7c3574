package trace

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/ceremony/internal/engine"
	"github.com/roach88/ceremony/internal/store"
	"github.com/roach88/ceremony/internal/testutil"
	"github.com/roach88/ceremony/internal/timeline"
)

// ReplayResult compares a recording with its re-execution.
type ReplayResult struct {
	Original      Recording
	Replayed      Recording
	Divergences   []string
	Deterministic bool
}

// Replay re-drives a recorded playback through a fresh controller on a manual
// clock, feeding exactly the recorded elapsed samples, and reports every
// frame where the replay differs from the recording.
//
// A mismatched timeline fingerprint is reported as a divergence: the registry
// no longer holds the choreography that was recorded.
func Replay(rec Recording, registry *timeline.Registry) (*ReplayResult, error) {
	if len(rec.Frames) == 0 || rec.Frames[0].Kind != engine.EventStarted {
		return nil, fmt.Errorf("recording %s has no start frame", rec.PlaybackID)
	}
	if registry == nil {
		registry = timeline.Builtin()
	}

	frames := testutil.NewManualFrames(rec.StartedAt)
	ctrl := engine.New(frames, frames.Clock,
		engine.WithRegistry(registry),
		engine.WithMotion(engine.NewStaticMotion(rec.ReducedMotion)),
		engine.WithPlaybackIDs(engine.PlaybackIDFunc(func() string { return rec.PlaybackID })),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	recorder := NewRecorder(registry)
	detach := recorder.Attach(ctrl)
	defer detach()

	if !ctrl.Start(rec.Ceremony, engine.Callbacks{}) {
		return nil, fmt.Errorf("replay of %s: start rejected", rec.PlaybackID)
	}

	for _, f := range rec.Frames[1:] {
		if !isTickSample(f) {
			continue
		}
		frames.StepTo(rec.StartedAt + f.Elapsed)
	}

	switch rec.Outcome {
	case store.OutcomeComplete:
		frames.Frame()
	case store.OutcomeCancelled:
		ctrl.Cancel()
	}

	replayed, ok := recorder.Current()
	if done := recorder.Recordings(); len(done) > 0 {
		replayed, ok = done[0], true
	}
	if !ok {
		return nil, fmt.Errorf("replay of %s produced no recording", rec.PlaybackID)
	}

	result := &ReplayResult{Original: rec, Replayed: replayed}
	result.Divergences = diff(rec, replayed)
	result.Deterministic = len(result.Divergences) == 0
	return result, nil
}

// isTickSample reports whether a frame corresponds to one delivered tick.
// A mode-switch frame on the completing tick shares its sample with the
// complete frame that follows it.
func isTickSample(f Frame) bool {
	switch f.Kind {
	case engine.EventTick, engine.EventComplete:
		return true
	case engine.EventModeSwitch:
		return f.Status == engine.StatusRunning
	default:
		return false
	}
}

func diff(want, got Recording) []string {
	var out []string
	if want.TimelineHash != got.TimelineHash {
		out = append(out, fmt.Sprintf("timeline fingerprint: recorded %s, now %s", want.TimelineHash, got.TimelineHash))
	}
	if want.Timeline != got.Timeline {
		out = append(out, fmt.Sprintf("timeline: recorded %s, now %s", want.Timeline, got.Timeline))
	}
	if want.Outcome != got.Outcome {
		out = append(out, fmt.Sprintf("outcome: recorded %s, now %s", want.Outcome, got.Outcome))
	}

	n := len(want.Frames)
	if len(got.Frames) > n {
		n = len(got.Frames)
	}
	for i := 0; i < n; i++ {
		switch {
		case i >= len(want.Frames):
			out = append(out, fmt.Sprintf("frame %d: unexpected %s", i+1, got.Frames[i].Kind))
		case i >= len(got.Frames):
			out = append(out, fmt.Sprintf("frame %d: missing %s", i+1, want.Frames[i].Kind))
		default:
			w, g := want.Frames[i], got.Frames[i]
			if w.Kind != g.Kind || w.Status != g.Status || w.Phase != g.Phase || w.Elapsed != g.Elapsed || Permille(w.Progress) != Permille(g.Progress) {
				out = append(out, fmt.Sprintf("frame %d: recorded %s/%s/%s@%s, now %s/%s/%s@%s",
					i+1, w.Kind, w.Status, w.Phase, w.Elapsed, g.Kind, g.Status, g.Phase, g.Elapsed))
			}
		}
	}
	return out
}
