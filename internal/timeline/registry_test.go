package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleTimeline(id Identifier, totalMs int64) Timeline {
	return Timeline{
		ID:    id,
		Total: ms(totalMs),
		Phases: []Phase{
			{ID: PhaseEnter, Start: 0, Duration: ms(totalMs), Target: TargetIncoming},
		},
	}
}

func TestBuiltinRegistry(t *testing.T) {
	r := Builtin()

	assert.Equal(t, []Identifier{
		AppLoad, EntityCreation, KeyboardBypass, PrepToSession, SessionToPrep, WorldEnter,
	}, r.Identifiers())

	totals := map[Identifier]int64{
		PrepToSession:   2400,
		SessionToPrep:   2000,
		KeyboardBypass:  400,
		AppLoad:         1800,
		WorldEnter:      1600,
		EntityCreation:  900,
		ReducedMotionID: 250,
		FallbackID:      1,
	}
	for id, total := range totals {
		tl, ok := r.Get(id)
		require.True(t, ok, "missing %s", id)
		assert.Equal(t, ms(total), tl.Total, "total of %s", id)
		assert.Empty(t, Validate(tl), "built-in %s must validate", id)
	}
}

func TestBuiltinSwitchInstants(t *testing.T) {
	r := Builtin()

	switches := map[Identifier]int64{
		PrepToSession:   1200,
		SessionToPrep:   900,
		KeyboardBypass:  200,
		ReducedMotionID: 125,
		FallbackID:      0,
	}
	for id, at := range switches {
		tl, _ := r.Get(id)
		sw, ok := tl.SwitchPhase()
		require.True(t, ok, "%s should switch mode", id)
		assert.Equal(t, ms(at), sw.Start, "switch instant of %s", id)
		assert.True(t, sw.Instant())
	}

	for _, id := range []Identifier{AppLoad, WorldEnter, EntityCreation} {
		tl, _ := r.Get(id)
		assert.False(t, tl.SwitchesMode(), "%s should not switch mode", id)
	}
}

func TestBuiltinDecor(t *testing.T) {
	tl, ok := Builtin().Get(PrepToSession)
	require.True(t, ok)
	assert.True(t, tl.UsesParticles)

	p := tl.Phases[1]
	assert.Equal(t, PhaseParticlesIn, p.ID)
	require.NotNil(t, p.Decor)
	assert.Equal(t, 48, p.Decor.ParticleCount)
	assert.Equal(t, ms(12), p.Decor.Stagger)
	assert.Equal(t, "ember", p.Decor.ColorBias)
}

func TestLookup(t *testing.T) {
	r := Builtin()

	tests := []struct {
		name    string
		id      Identifier
		reduced bool
		want    Identifier
	}{
		{"registered", KeyboardBypass, false, KeyboardBypass},
		{"registered under reduced motion", PrepToSession, true, ReducedMotionID},
		{"non-switching under reduced motion", AppLoad, true, ReducedMotionID},
		{"unknown", "does-not-exist", false, FallbackID},
		{"unknown under reduced motion", "does-not-exist", true, ReducedMotionID},
		{"empty identifier", "", false, FallbackID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Lookup(tt.id, tt.reduced).ID)
		})
	}
}

func TestGetWithoutFallback(t *testing.T) {
	_, ok := Builtin().Get("does-not-exist")
	assert.False(t, ok)
}

func TestNewRegistryDuplicate(t *testing.T) {
	_, err := NewRegistry(simpleTimeline("twice", 100), simpleTimeline("twice", 200))
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ErrDuplicateTimeline, verr.Code)
}

func TestNewRegistryRejectsInvalid(t *testing.T) {
	_, err := NewRegistry(Timeline{ID: "broken"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrNonPositiveTotal)
}

func TestRegistryCopiesInput(t *testing.T) {
	tl := simpleTimeline("mutable", 100)
	tl.Phases[0].Decor = &Decor{ParticleCount: 3}

	r, err := NewRegistry(tl)
	require.NoError(t, err)

	tl.Phases[0].ID = PhaseExit
	tl.Phases[0].Decor.ParticleCount = 99

	got, ok := r.Get("mutable")
	require.True(t, ok)
	assert.Equal(t, PhaseEnter, got.Phases[0].ID)
	assert.Equal(t, 3, got.Phases[0].Decor.ParticleCount)
}

func TestRegistryWith(t *testing.T) {
	base := Builtin()

	custom := simpleTimeline(KeyboardBypass, 600)
	layered, err := base.With(custom, simpleTimeline("focus", 300))
	require.NoError(t, err)

	assert.Equal(t, ms(600), layered.Lookup(KeyboardBypass, false).Total)
	assert.Equal(t, Identifier("focus"), layered.Lookup("focus", false).ID)
	assert.Equal(t, ms(2400), layered.Lookup(PrepToSession, false).Total)

	// the base registry is untouched
	assert.Equal(t, ms(400), base.Lookup(KeyboardBypass, false).Total)
	assert.Equal(t, FallbackID, base.Lookup("focus", false).ID)
}

func TestRegistryWithReducedMotion(t *testing.T) {
	reduced := Timeline{
		ID:    ReducedMotionID,
		Total: ms(100),
		Phases: []Phase{
			{ID: PhaseCrossfade, Start: 0, Duration: ms(100), Target: TargetBoth},
			{ID: PhaseModeSwitch, Start: ms(50), Target: TargetMode, Action: ActionModeSwitch},
		},
	}

	r, err := Builtin().With(reduced)
	require.NoError(t, err)
	assert.Equal(t, ms(100), r.Lookup(PrepToSession, true).Total)
	assert.NotContains(t, r.Identifiers(), ReducedMotionID)
}

func TestRegistryWithReducedMotionWithoutSwitch(t *testing.T) {
	_, err := Builtin().With(simpleTimeline(ReducedMotionID, 200))
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ErrReducedMotionNoSwitch, verr.Code)
}

func TestRegistryWithRejectsUnreachableSwitch(t *testing.T) {
	late := Timeline{ID: "late", Total: ms(1000), Phases: []Phase{
		{ID: PhaseCrossfade, Duration: ms(1000), Target: TargetBoth},
		{ID: PhaseModeSwitch, Start: ms(1500), Target: TargetMode, Action: ActionModeSwitch},
	}}
	_, err := Builtin().With(late)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ErrSwitchAfterTotal, verr.Code)
}

func TestRegistryWithFallback(t *testing.T) {
	r, err := Builtin().With(simpleTimeline(FallbackID, 50))
	require.NoError(t, err)
	assert.Equal(t, ms(50), r.Lookup("unknown", false).Total)
}

func TestTimelineHelpers(t *testing.T) {
	assert.Equal(t, PhaseIdle, Timeline{}.FirstPhase())

	tl, _ := Builtin().Get(KeyboardBypass)
	assert.Equal(t, PhaseExit, tl.FirstPhase())
	assert.Equal(t, ms(200), tl.Phases[0].End())

	assert.True(t, PhaseCrossfade.Known())
	assert.False(t, PhaseID("sparkle").Known())
	assert.True(t, TargetParticles.Known())
	assert.False(t, Target("floor").Known())
}
