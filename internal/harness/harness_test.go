package harness

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ceremony/internal/engine"
	"github.com/roach88/ceremony/internal/store"
	"github.com/roach88/ceremony/internal/timeline"
)

func TestRun_KeyboardBypass(t *testing.T) {
	scenario := &Scenario{
		Name:        "keyboard_bypass",
		Ceremony:    "keyboard-bypass",
		TicksMs:     []int64{0, 100, 200, 300, 400},
		ExtraFrames: 1,
		Assertions: []Assertion{
			{Type: AssertSwitchAt, AtMs: 200},
			{Type: AssertCompleteAt, AtMs: 400},
			{Type: AssertIdleAfterComplete},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Recordings, 1)
	rec := result.Recordings[0]
	assert.Equal(t, "playback-1", rec.PlaybackID)
	assert.Equal(t, store.OutcomeComplete, rec.Outcome)
	assert.True(t, result.Final.Idle())
	assert.Empty(t, result.CallbackErrors)
}

func TestRun_FailedAssertionsAreReported(t *testing.T) {
	scenario := &Scenario{
		Name:     "wrong_expectations",
		Ceremony: "keyboard-bypass",
		TicksMs:  []int64{0, 400},
		Assertions: []Assertion{
			{Type: AssertSwitchAt, AtMs: 200},
			{Type: AssertTimelineUsed, Timeline: "app-load"},
			{Type: AssertIdleAfterComplete},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	// The only switch fired on the frame at 400ms.
	assert.Contains(t, result.Errors[0], "firings at [400ms]")
	assert.Contains(t, result.Errors[1], "app-load")
	// No extra frame, so the reset never happened.
	assert.Contains(t, result.Errors[2], "no frame after complete")
}

func TestRun_UnfinishedPlaybackIsIncluded(t *testing.T) {
	scenario := &Scenario{
		Name:       "unfinished",
		Ceremony:   "prep-to-session",
		TicksMs:    []int64{0, 1000},
		Assertions: []Assertion{{Type: AssertOutcome, Outcome: store.OutcomeRunning}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, engine.StatusRunning, result.Final.Status)
	assert.True(t, result.Final.Blocking)
}

func TestRun_WithLoggerReportsActions(t *testing.T) {
	scenario := &Scenario{
		Name:     "logged",
		Ceremony: "keyboard-bypass",
		TicksMs:  []int64{100, 200},
		Actions:  []Action{{AtMs: 150, Do: DoCancel}},
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	result, err := Run(scenario, WithLogger(logger))
	require.NoError(t, err)
	assert.True(t, result.Final.Idle())

	out := buf.String()
	assert.Contains(t, out, "ceremony started")
	assert.Contains(t, out, "ceremony cancelled")
	assert.Contains(t, out, `msg="scenario action applied" at_ms=150 do=cancel`)
}

func TestRun_UnknownCeremonyUsesFallback(t *testing.T) {
	scenario := &Scenario{
		Name:        "unknown",
		Ceremony:    "not-registered",
		TicksMs:     []int64{0},
		ExtraFrames: 1,
		Assertions: []Assertion{
			{Type: AssertTimelineUsed, Timeline: string(timeline.FallbackID)},
			{Type: AssertSwitchAt, AtMs: 0},
			{Type: AssertCompleteCount, Count: 0},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_InvalidInlineTimeline(t *testing.T) {
	scenario := &Scenario{
		Name:     "bad_inline",
		Ceremony: "custom",
		Timeline: &timeline.Doc{
			TotalMs: 0,
			Phases:  []timeline.PhaseDoc{{ID: "exit", DurationMs: 10, Target: "outgoing"}},
		},
		TicksMs:    []int64{0},
		Assertions: []Assertion{{Type: AssertProgressMonotonic}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), timeline.ErrNonPositiveTotal)
}

func TestRun_MissingPlayback(t *testing.T) {
	scenario := &Scenario{
		Name:       "one_playback",
		Ceremony:   "app-load",
		TicksMs:    []int64{0},
		Assertions: []Assertion{{Type: AssertOutcome, Outcome: "complete", Playback: 3}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "no playback 3")
}

func TestRun_ScenarioFiles(t *testing.T) {
	files := []string{
		"cancel_mid_playback",
		"inline_gap",
		"keyboard_bypass_dense",
		"prep_to_session_jump",
		"reduced_motion",
		"single_flight",
	}

	for _, name := range files {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}
