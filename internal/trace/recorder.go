// Package trace records ceremony playbacks, persists them to the journal and
// replays them to check that playback is deterministic.
package trace

import (
	"math"
	"sync"
	"time"

	"github.com/roach88/ceremony/internal/engine"
	"github.com/roach88/ceremony/internal/store"
	"github.com/roach88/ceremony/internal/timeline"
)

// Frame is one recorded update.
type Frame struct {
	Seq      int64
	Kind     engine.EventKind
	Status   engine.Status
	Phase    timeline.PhaseID
	Elapsed  time.Duration
	Progress float64
}

// Recording is the full history of one playback.
type Recording struct {
	PlaybackID    string
	Ceremony      timeline.Identifier
	Timeline      timeline.Identifier
	TimelineHash  string
	ReducedMotion bool
	StartedAt     time.Duration
	Outcome       string
	Frames        []Frame
}

// Recorder is an engine.Observer that groups updates by playback.
//
// Thread-safety: safe for concurrent use via internal mutex.
type Recorder struct {
	registry *timeline.Registry

	mu       sync.Mutex
	done     []Recording
	current  *Recording
	seq      int64
	onFinish func(Recording)
}

// NewRecorder creates a recorder. The registry is used to fingerprint the
// timeline each playback resolved to.
func NewRecorder(registry *timeline.Registry) *Recorder {
	if registry == nil {
		registry = timeline.Builtin()
	}
	return &Recorder{registry: registry}
}

// OnFinish registers fn to receive every recording once its playback reaches
// idle. It runs on the ticking goroutine.
func (r *Recorder) OnFinish(fn func(Recording)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFinish = fn
}

// Attach subscribes the recorder to c.
func (r *Recorder) Attach(c *engine.Controller) (detach func()) {
	return c.Subscribe(r.Observe)
}

// Observe implements engine.Observer.
func (r *Recorder) Observe(u engine.Update) {
	r.mu.Lock()
	finished, fn := r.observeLocked(u)
	r.mu.Unlock()

	if finished != nil && fn != nil {
		fn(*finished)
	}
}

func (r *Recorder) observeLocked(u engine.Update) (*Recording, func(Recording)) {
	snap := u.Snapshot

	if u.Kind == engine.EventStarted {
		hash := ""
		if tl, ok := r.registry.Get(snap.Timeline); ok {
			hash = timeline.Fingerprint(tl)
		}
		r.seq = 0
		r.current = &Recording{
			PlaybackID:    snap.PlaybackID,
			Ceremony:      snap.Identifier,
			Timeline:      snap.Timeline,
			TimelineHash:  hash,
			ReducedMotion: snap.ReducedMotion,
			StartedAt:     snap.StartedAt,
			Outcome:       store.OutcomeRunning,
		}
	}
	if r.current == nil {
		return nil, nil
	}

	r.seq++
	r.current.Frames = append(r.current.Frames, Frame{
		Seq:      r.seq,
		Kind:     u.Kind,
		Status:   snap.Status,
		Phase:    snap.Phase,
		Elapsed:  snap.Elapsed,
		Progress: snap.Progress,
	})

	switch u.Kind {
	case engine.EventComplete:
		r.current.Outcome = store.OutcomeComplete
	case engine.EventCancelled:
		r.current.Outcome = store.OutcomeCancelled
	}

	if u.Kind == engine.EventReset || u.Kind == engine.EventCancelled {
		finished := *r.current
		r.done = append(r.done, finished)
		r.current = nil
		return &finished, r.onFinish
	}
	return nil, nil
}

// Recordings returns finished recordings in the order they finished.
func (r *Recorder) Recordings() []Recording {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recording, len(r.done))
	copy(out, r.done)
	return out
}

// Current returns the recording in progress, if any.
func (r *Recorder) Current() (Recording, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return Recording{}, false
	}
	rec := *r.current
	rec.Frames = append([]Frame(nil), r.current.Frames...)
	return rec, true
}

// Canonical renders the recording as canonical JSON for golden comparison.
func (rec Recording) Canonical() ([]byte, error) {
	return timeline.MarshalCanonical(rec.CanonicalMap())
}

// CanonicalMap converts the recording for canonical JSON serialization.
// Progress is expressed in parts per thousand and elapsed in microseconds,
// since canonical JSON forbids floats.
func (rec Recording) CanonicalMap() map[string]any {
	frames := make([]any, len(rec.Frames))
	for i, f := range rec.Frames {
		frames[i] = map[string]any{
			"seq":        f.Seq,
			"kind":       string(f.Kind),
			"status":     string(f.Status),
			"phase":      string(f.Phase),
			"elapsed_us": f.Elapsed.Microseconds(),
			"progress":   Permille(f.Progress),
		}
	}
	return map[string]any{
		"playback_id":    rec.PlaybackID,
		"ceremony":       string(rec.Ceremony),
		"timeline":       string(rec.Timeline),
		"timeline_hash":  rec.TimelineHash,
		"reduced_motion": rec.ReducedMotion,
		"outcome":        rec.Outcome,
		"frames":         frames,
	}
}

// Permille converts a progress fraction to whole parts per thousand.
func Permille(p float64) int64 {
	return int64(math.Round(p * 1000))
}
