package harness

import (
	"time"

	"github.com/roach88/ceremony/internal/engine"
	"github.com/roach88/ceremony/internal/trace"
)

// Firing records one invocation of a caller callback.
type Firing struct {
	PlaybackID string
	// Elapsed is the frame time of the firing relative to the playback start.
	Elapsed time.Duration
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion held.
	Pass bool

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string

	// Recordings holds one recording per playback, in start order. A playback
	// still running when the scenario ends is included with outcome running.
	Recordings []trace.Recording

	// Switches and Completions are the callback firings in order.
	Switches    []Firing
	Completions []Firing

	// IgnoredStarts counts start actions the controller rejected.
	IgnoredStarts int

	// CallbackErrors holds panics recovered by the controller.
	CallbackErrors []string

	// Final is the session after the last frame.
	Final engine.Snapshot
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) firingsFor(list []Firing, playbackID string) []Firing {
	var out []Firing
	for _, f := range list {
		if f.PlaybackID == playbackID {
			out = append(out, f)
		}
	}
	return out
}
