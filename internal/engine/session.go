package engine

import (
	"time"

	"github.com/roach88/ceremony/internal/timeline"
)

// Status is the lifecycle state of the playback session.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
)

// Snapshot is a consistent copy of the session as of the last completed
// tick, Start or Cancel.
type Snapshot struct {
	PlaybackID string
	// Identifier is the requested ceremony; empty while idle.
	Identifier timeline.Identifier
	// Timeline is the timeline actually playing. It differs from Identifier
	// under reduced motion or for unregistered identifiers.
	Timeline      timeline.Identifier
	Status        Status
	Phase         timeline.PhaseID
	Progress      float64
	Elapsed       time.Duration
	StartedAt     time.Duration
	ReducedMotion bool
	Blocking      bool
}

// Idle reports whether the snapshot has the idle shape.
func (s Snapshot) Idle() bool {
	return s.Status == StatusIdle
}

func idleSnapshot() Snapshot {
	return Snapshot{
		Status: StatusIdle,
		Phase:  timeline.PhaseIdle,
	}
}

// EventKind describes why an Update was published.
type EventKind string

const (
	EventStarted    EventKind = "started"
	EventTick       EventKind = "tick"
	EventModeSwitch EventKind = "mode-switch"
	EventComplete   EventKind = "complete"
	EventReset      EventKind = "reset"
	EventCancelled  EventKind = "cancelled"
)

// Update is delivered to observers after every session change.
// EventModeSwitch replaces EventTick on the tick that fired OnModeSwitch.
// When that same tick also reaches the total, EventModeSwitch precedes
// EventComplete and both carry the completed snapshot.
type Update struct {
	Kind     EventKind
	Snapshot Snapshot
}

// Callbacks are the side effects a caller attaches to one playback.
// Either may be nil.
type Callbacks struct {
	// OnModeSwitch fires once, at the switch instant. Callers flip their mode
	// state inside it.
	OnModeSwitch func()
	// OnComplete fires once, on the tick that reaches the timeline total.
	OnComplete func()
}
