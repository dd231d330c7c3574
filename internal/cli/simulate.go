package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ceremony/internal/engine"
	"github.com/roach88/ceremony/internal/testutil"
	"github.com/roach88/ceremony/internal/timeline"
	"github.com/roach88/ceremony/internal/trace"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	Step     time.Duration
	Until    time.Duration
	CancelAt time.Duration
	Database string
}

// SimulateResult is the outcome of one simulated playback.
type SimulateResult struct {
	Playback     PlaybackView `json:"playback"`
	ModeSwitchUs *int64       `json:"mode_switch_us,omitempty"`
	CompleteUs   *int64       `json:"complete_us,omitempty"`
	Frames       []FrameView  `json:"frames"`
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate <ceremony>",
		Short: "Play a ceremony on a simulated frame clock",
		Long: `Play a ceremony against a manual frame clock and print every update.

Frames are delivered at fixed steps (one display frame at the configured
FPS by default), so the output is identical on every run. Unregistered
ceremonies play the fallback timeline.

Examples:
  ceremony simulate prep-to-session
  ceremony simulate prep-to-session --step 100ms --reduced-motion
  ceremony simulate session-to-prep --cancel-at 400ms
  ceremony simulate keyboard-bypass --db ./ceremony.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(opts, args[0], cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Step, "step", 0, "time between frames (default one frame at the configured FPS)")
	cmd.Flags().DurationVar(&opts.Until, "until", 0, "stop delivering frames at this time (default timeline total plus two frames)")
	cmd.Flags().DurationVar(&opts.CancelAt, "cancel-at", 0, "cancel the playback at this time")
	cmd.Flags().StringVar(&opts.Database, "db", "", "persist the playback to this SQLite journal (env CEREMONY_DB)")

	return cmd
}

func runSimulate(opts *SimulateOptions, id string, cmd *cobra.Command) error {
	cfg := opts.config()
	registry, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	step := opts.Step
	if step <= 0 {
		step = engine.NewFrameLoop(nil, cfg.FPS).Interval()
	}
	until := opts.Until
	if until <= 0 {
		until = registry.Lookup(timeline.Identifier(id), cfg.ReducedMotion).Total + 2*step
	}

	sim := simulate(registry, timeline.Identifier(id), simulation{
		reducedMotion: cfg.ReducedMotion,
		step:          step,
		until:         until,
		cancelAt:      opts.CancelAt,
		logger:        opts.logger(cmd),
	})

	if dbPath, ok := cfg.Journal(opts.Database); ok {
		if err := persistRecording(cmd.Context(), dbPath, sim.recording); err != nil {
			return err
		}
		opts.logger(cmd).Debug("playback persisted", "playback_id", sim.recording.PlaybackID, "db", dbPath)
	}

	result := SimulateResult{
		Playback: playbackView(sim.recording),
		Frames:   frameViews(sim.recording.Frames),
	}
	if sim.switchAt != nil {
		us := sim.switchAt.Microseconds()
		result.ModeSwitchUs = &us
	}
	if sim.completeAt != nil {
		us := sim.completeAt.Microseconds()
		result.CompleteUs = &us
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Playback %s\n", result.Playback.ID)
	fmt.Fprintf(w, "Ceremony: %s (timeline %s)\n", result.Playback.Ceremony, result.Playback.Timeline)
	if sim.switchAt != nil {
		fmt.Fprintf(w, "Mode switch: %s\n", formatElapsed(*sim.switchAt))
	}
	if sim.completeAt != nil {
		fmt.Fprintf(w, "Complete: %s\n", formatElapsed(*sim.completeAt))
	}
	fmt.Fprintf(w, "Outcome: %s\n\n", result.Playback.Outcome)
	formatter.Table(frameHeaders, frameRows(sim.recording.Frames), 0, 4, 5)
	return nil
}

type simulation struct {
	reducedMotion bool
	step          time.Duration
	until         time.Duration
	cancelAt      time.Duration
	logger        *slog.Logger
}

type simulated struct {
	recording  trace.Recording
	switchAt   *time.Duration
	completeAt *time.Duration
}

// simulate plays id on a manual frame source, delivering a frame every step
// until the playback returns to idle or the until time passes.
func simulate(registry *timeline.Registry, id timeline.Identifier, sim simulation) simulated {
	frames := testutil.NewManualFrames(0)
	ctrl := engine.New(frames, frames.Clock,
		engine.WithRegistry(registry),
		engine.WithMotion(engine.NewStaticMotion(sim.reducedMotion)),
		engine.WithPlaybackIDs(engine.UUIDv7Generator{}),
		engine.WithLogger(sim.logger),
	)
	recorder := trace.NewRecorder(registry)
	detach := recorder.Attach(ctrl)
	defer detach()

	var out simulated
	at := func(dst **time.Duration) func() {
		return func() {
			now := frames.Clock.Now()
			*dst = &now
		}
	}
	ctrl.Start(id, engine.Callbacks{
		OnModeSwitch: at(&out.switchAt),
		OnComplete:   at(&out.completeAt),
	})

	for t := sim.step; t <= sim.until; t += sim.step {
		if sim.cancelAt > 0 && t > sim.cancelAt {
			frames.Clock.Set(sim.cancelAt)
			ctrl.Cancel()
			break
		}
		frames.StepTo(t)
		if ctrl.Snapshot().Idle() {
			break
		}
	}
	if ctrl.Snapshot().Status == engine.StatusComplete {
		frames.Frame()
	}

	if done := recorder.Recordings(); len(done) > 0 {
		out.recording = done[0]
	} else {
		out.recording, _ = recorder.Current()
	}
	return out
}
