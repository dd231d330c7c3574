package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/ceremony/internal/engine"
	"github.com/roach88/ceremony/internal/testutil"
	"github.com/roach88/ceremony/internal/timeline"
	"github.com/roach88/ceremony/internal/trace"
)

// Harness drives one controller through one scenario on a manual clock.
type Harness struct {
	ctrl     *engine.Controller
	frames   *testutil.ManualFrames
	motion   *engine.StaticMotion
	recorder *trace.Recorder
	result   *Result
	logger   *slog.Logger
}

// Option configures a scenario run.
type Option func(*Harness)

// WithLogger receives controller events and applied actions. Default: discarded.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// Run executes a scenario against the built-in timelines.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	return RunWithRegistry(scenario, timeline.Builtin(), opts...)
}

// RunWithRegistry executes a scenario against registry, layering the
// scenario's inline timeline on top when present.
//
// Execution flow:
//  1. Start the scenario ceremony at time zero
//  2. For every sample, apply due actions, then deliver one frame at the sample
//  3. Apply actions scheduled after the last sample
//  4. Deliver the extra frames
//  5. Evaluate assertions
func RunWithRegistry(scenario *Scenario, registry *timeline.Registry, opts ...Option) (*Result, error) {
	if registry == nil {
		registry = timeline.Builtin()
	}
	if scenario.Timeline != nil {
		doc := *scenario.Timeline
		if doc.ID == "" {
			doc.ID = scenario.Ceremony
		}
		tl := doc.Compile()
		if errs := timeline.Validate(tl); len(errs) > 0 {
			return nil, fmt.Errorf("inline timeline: %w", errs[0])
		}
		var err error
		if registry, err = registry.With(tl); err != nil {
			return nil, fmt.Errorf("inline timeline: %w", err)
		}
	}

	h := &Harness{
		frames:   testutil.NewManualFrames(0),
		motion:   engine.NewStaticMotion(scenario.ReducedMotion),
		recorder: trace.NewRecorder(registry),
		result:   NewResult(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.ctrl = engine.New(h.frames, h.frames.Clock,
		engine.WithRegistry(registry),
		engine.WithMotion(h.motion),
		engine.WithPlaybackIDs(engine.NewSequentialGenerator("playback")),
		engine.WithLogger(h.logger),
		engine.WithErrorHandler(func(err error) {
			h.result.CallbackErrors = append(h.result.CallbackErrors, err.Error())
		}),
	)
	detach := h.recorder.Attach(h.ctrl)
	defer detach()

	h.start(timeline.Identifier(scenario.Ceremony))

	actions := scenario.Actions
	for _, ms := range scenario.Samples() {
		for len(actions) > 0 && actions[0].AtMs <= ms {
			h.apply(actions[0])
			actions = actions[1:]
		}
		h.frames.StepTo(testutil.Ms(ms))
	}
	for _, a := range actions {
		h.apply(a)
	}
	for i := 0; i < scenario.ExtraFrames; i++ {
		h.frames.Frame()
	}

	result := h.result
	result.Recordings = h.recorder.Recordings()
	if cur, ok := h.recorder.Current(); ok {
		result.Recordings = append(result.Recordings, cur)
	}
	result.Final = h.ctrl.Snapshot()

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// apply performs one action with the clock moved to its instant.
func (h *Harness) apply(a Action) {
	h.frames.Clock.Set(testutil.Ms(a.AtMs))
	switch a.Do {
	case DoStart:
		h.start(timeline.Identifier(a.Ceremony))
	case DoCancel:
		h.ctrl.Cancel()
	case DoSetReducedMotion:
		h.motion.Set(a.Value)
	}
	h.logger.Info("scenario action applied", "at_ms", a.AtMs, "do", a.Do)
}

// start requests a playback whose callbacks append to the result.
func (h *Harness) start(id timeline.Identifier) {
	var playbackID string
	startedAt := h.frames.Clock.Now()
	record := func(list *[]Firing) func() {
		return func() {
			*list = append(*list, Firing{
				PlaybackID: playbackID,
				Elapsed:    h.frames.Clock.Now() - startedAt,
			})
		}
	}
	cb := engine.Callbacks{
		OnModeSwitch: record(&h.result.Switches),
		OnComplete:   record(&h.result.Completions),
	}
	if !h.ctrl.Start(id, cb) {
		h.result.IgnoredStarts++
		return
	}
	playbackID = h.ctrl.Snapshot().PlaybackID
}
