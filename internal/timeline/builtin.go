package timeline

// ReducedMotion is served for every identifier while reduced motion is active.
// It is a short crossfade with the mode switch at its midpoint.
var ReducedMotion = Timeline{
	ID:    ReducedMotionID,
	Total: ms(250),
	Phases: []Phase{
		{ID: PhaseCrossfade, Start: 0, Duration: ms(250), Target: TargetBoth},
		{ID: PhaseModeSwitch, Start: ms(125), Duration: 0, Target: TargetMode, Action: ActionModeSwitch},
	},
}

// Fallback is served for identifiers with no registered timeline.
var Fallback = Timeline{
	ID:    FallbackID,
	Total: ms(1),
	Phases: []Phase{
		{ID: PhaseModeSwitch, Start: 0, Duration: 0, Target: TargetMode, Action: ActionModeSwitch},
		{ID: PhaseCrossfade, Start: 0, Duration: ms(1), Target: TargetBoth},
	},
}

var builtinTimelines = []Timeline{
	{
		ID:            PrepToSession,
		Total:         ms(2400),
		UsesParticles: true,
		Phases: []Phase{
			{ID: PhaseSoftening, Start: 0, Duration: ms(600), Target: TargetOutgoing},
			{ID: PhaseParticlesIn, Start: ms(300), Duration: ms(800), Target: TargetParticles,
				Decor: &Decor{ParticleCount: 48, Stagger: ms(12), ColorBias: "ember"}},
			{ID: PhaseColorShift, Start: ms(800), Duration: ms(600), Target: TargetOverlay,
				Decor: &Decor{ColorBias: "dusk"}},
			{ID: PhaseModeSwitch, Start: ms(1200), Duration: 0, Target: TargetMode, Action: ActionModeSwitch},
			{ID: PhaseParticlesOut, Start: ms(1300), Duration: ms(700), Target: TargetParticles,
				Decor: &Decor{ParticleCount: 48, Stagger: ms(8)}},
			{ID: PhaseSurfacing, Start: ms(1500), Duration: ms(900), Target: TargetIncoming},
		},
	},
	{
		ID:    SessionToPrep,
		Total: ms(2000),
		Phases: []Phase{
			{ID: PhaseSoftening, Start: 0, Duration: ms(500), Target: TargetOutgoing},
			{ID: PhaseColorShift, Start: ms(300), Duration: ms(700), Target: TargetOverlay,
				Decor: &Decor{ColorBias: "dawn"}},
			{ID: PhaseModeSwitch, Start: ms(900), Duration: 0, Target: TargetMode, Action: ActionModeSwitch},
			{ID: PhaseSurfacing, Start: ms(1000), Duration: ms(1000), Target: TargetIncoming},
		},
	},
	{
		ID:    KeyboardBypass,
		Total: ms(400),
		Phases: []Phase{
			{ID: PhaseExit, Start: 0, Duration: ms(200), Target: TargetOutgoing},
			{ID: PhaseModeSwitch, Start: ms(200), Duration: 0, Target: TargetMode, Action: ActionModeSwitch},
			{ID: PhaseEnter, Start: ms(200), Duration: ms(200), Target: TargetIncoming},
		},
	},
	{
		ID:            AppLoad,
		Total:         ms(1800),
		UsesParticles: true,
		Phases: []Phase{
			{ID: PhaseParticlesIn, Start: 0, Duration: ms(900), Target: TargetParticles,
				Decor: &Decor{ParticleCount: 64, Stagger: ms(10)}},
			{ID: PhaseSurfacing, Start: ms(600), Duration: ms(1200), Target: TargetIncoming},
		},
	},
	{
		ID:    WorldEnter,
		Total: ms(1600),
		Phases: []Phase{
			{ID: PhaseSoftening, Start: 0, Duration: ms(400), Target: TargetOverlay},
			{ID: PhaseCrossfade, Start: ms(200), Duration: ms(1000), Target: TargetBoth},
			{ID: PhaseEnter, Start: ms(800), Duration: ms(800), Target: TargetIncoming},
		},
	},
	{
		ID:            EntityCreation,
		Total:         ms(900),
		UsesParticles: true,
		Phases: []Phase{
			{ID: PhaseParticlesIn, Start: 0, Duration: ms(500), Target: TargetParticles,
				Decor: &Decor{ParticleCount: 24, Stagger: ms(15), ColorBias: "gold"}},
			{ID: PhaseEnter, Start: ms(200), Duration: ms(700), Target: TargetIncoming},
		},
	},
}

var builtin = mustRegistry(builtinTimelines...)

// Builtin returns the registry of built-in timelines.
func Builtin() *Registry {
	return builtin
}

func mustRegistry(timelines ...Timeline) *Registry {
	r, err := NewRegistry(timelines...)
	if err != nil {
		panic("timeline: invalid built-in registry: " + err.Error())
	}
	return r
}
