package timeline

import "time"

// Identifier names a ceremony choreography.
type Identifier string

const (
	PrepToSession  Identifier = "prep-to-session"
	SessionToPrep  Identifier = "session-to-prep"
	KeyboardBypass Identifier = "keyboard-bypass"
	AppLoad        Identifier = "app-load"
	WorldEnter     Identifier = "world-enter"
	EntityCreation Identifier = "entity-creation"

	// ReducedMotionID identifies the shared reduced-motion timeline.
	ReducedMotionID Identifier = "reduced-motion"

	// FallbackID identifies the timeline served for unregistered identifiers.
	FallbackID Identifier = "fallback"
)

// PhaseID is a phase tag from the fixed phase vocabulary.
type PhaseID string

const (
	PhaseIdle         PhaseID = "idle"
	PhaseSoftening    PhaseID = "softening"
	PhaseParticlesIn  PhaseID = "particles-in"
	PhaseColorShift   PhaseID = "color-shift"
	PhaseModeSwitch   PhaseID = "mode-switch"
	PhaseParticlesOut PhaseID = "particles-out"
	PhaseSurfacing    PhaseID = "surfacing"
	PhaseCrossfade    PhaseID = "crossfade"
	PhaseExit         PhaseID = "exit"
	PhaseEnter        PhaseID = "enter"
)

var knownPhases = map[PhaseID]bool{
	PhaseIdle:         true,
	PhaseSoftening:    true,
	PhaseParticlesIn:  true,
	PhaseColorShift:   true,
	PhaseModeSwitch:   true,
	PhaseParticlesOut: true,
	PhaseSurfacing:    true,
	PhaseCrossfade:    true,
	PhaseExit:         true,
	PhaseEnter:        true,
}

// Known reports whether p belongs to the phase vocabulary.
func (p PhaseID) Known() bool {
	return knownPhases[p]
}

// Target is the conceptual layer a phase animates.
type Target string

const (
	TargetOutgoing  Target = "outgoing"
	TargetIncoming  Target = "incoming"
	TargetOverlay   Target = "overlay"
	TargetParticles Target = "particles"
	TargetMode      Target = "mode"
	TargetBoth      Target = "both"
)

var knownTargets = map[Target]bool{
	TargetOutgoing:  true,
	TargetIncoming:  true,
	TargetOverlay:   true,
	TargetParticles: true,
	TargetMode:      true,
	TargetBoth:      true,
}

// Known reports whether t is a recognised layer.
func (t Target) Known() bool {
	return knownTargets[t]
}

// Action marks a phase as a one-shot side effect rather than an animation.
type Action string

const (
	ActionNone       Action = ""
	ActionModeSwitch Action = "mode-switch"
)

// Decor carries presentation parameters. The engine passes it through untouched.
type Decor struct {
	ParticleCount int
	Stagger       time.Duration
	ColorBias     string
}

// Phase is one segment of a timeline. A zero Duration denotes an instant.
type Phase struct {
	ID       PhaseID
	Start    time.Duration
	Duration time.Duration
	Target   Target
	Action   Action
	Decor    *Decor
}

// End returns the exclusive end of the phase window.
func (p Phase) End() time.Duration {
	return p.Start + p.Duration
}

// Instant reports whether the phase has no duration.
func (p Phase) Instant() bool {
	return p.Duration == 0
}

// IsModeSwitch reports whether the phase carries the mode-switch action.
func (p Phase) IsModeSwitch() bool {
	return p.Action == ActionModeSwitch
}

// Timeline is an immutable ceremony choreography.
//
// Phases may overlap and need not be contiguous. Later phases take priority
// when several windows contain the same instant.
type Timeline struct {
	ID            Identifier
	Total         time.Duration
	Phases        []Phase
	UsesParticles bool
}

// SwitchPhase returns the phase flagged as the mode switch, if any.
func (t Timeline) SwitchPhase() (Phase, bool) {
	for _, p := range t.Phases {
		if p.IsModeSwitch() {
			return p, true
		}
	}
	return Phase{}, false
}

// SwitchesMode reports whether the timeline carries a mode-switch phase.
func (t Timeline) SwitchesMode() bool {
	_, ok := t.SwitchPhase()
	return ok
}

// FirstPhase returns the first declared phase ID, or PhaseIdle for an empty timeline.
func (t Timeline) FirstPhase() PhaseID {
	if len(t.Phases) == 0 {
		return PhaseIdle
	}
	return t.Phases[0].ID
}

// clone returns a deep copy so registry entries cannot be mutated through
// slices handed to callers.
func (t Timeline) clone() Timeline {
	out := t
	if t.Phases != nil {
		out.Phases = make([]Phase, len(t.Phases))
		for i, p := range t.Phases {
			if p.Decor != nil {
				d := *p.Decor
				p.Decor = &d
			}
			out.Phases[i] = p
		}
	}
	return out
}

func ms(n int64) time.Duration {
	return time.Duration(n) * time.Millisecond
}
