package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/ceremony/internal/engine"
	"github.com/roach88/ceremony/internal/store"
	"github.com/roach88/ceremony/internal/timeline"
	"github.com/roach88/ceremony/internal/trace"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Database string
}

const progressBarWidth = 30

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play <ceremony>",
		Short: "Play a ceremony in real time",
		Long: `Play a ceremony against the system clock at the configured FPS.

On a terminal a live progress line is drawn; otherwise each phase change
is printed on its own line. Interrupting the command cancels the playback.

Examples:
  ceremony play prep-to-session
  CEREMONY_FPS=120 ceremony play session-to-prep --reduced-motion
  ceremony play keyboard-bypass --db ./ceremony.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "persist the playback to this SQLite journal (env CEREMONY_DB)")

	return cmd
}

func runPlay(opts *PlayOptions, id string, cmd *cobra.Command) error {
	cfg := opts.config()
	logger := opts.logger(cmd)
	registry, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := context.WithCancel(parent)
	defer stop()

	clock := engine.NewSystemClock()
	loop := engine.NewFrameLoop(clock, cfg.FPS)
	ctrl := engine.New(loop, clock,
		engine.WithRegistry(registry),
		engine.WithMotion(engine.NewStaticMotion(cfg.ReducedMotion)),
		engine.WithLogger(logger),
	)

	recorder := trace.NewRecorder(registry)
	detach := recorder.Attach(ctrl)
	defer detach()

	finished := make(chan trace.Recording, 1)
	recorder.OnFinish(func(rec trace.Recording) {
		finished <- rec
		stop()
	})

	updates := ctrl.Watch(ctx, 64)
	disarm := ctrl.CancelOnDone(ctx)
	defer disarm()

	ctrl.Start(timeline.Identifier(id), engine.Callbacks{
		OnModeSwitch: func() { logger.Info("mode switched", "ceremony", id) },
		OnComplete:   func() { logger.Info("ceremony complete", "ceremony", id) },
	})
	logger.Debug("playback started", "playback_id", ctrl.Snapshot().PlaybackID, "fps", cfg.FPS)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := loop.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	progressOut := cmd.OutOrStdout()
	if opts.Format == "json" {
		progressOut = cmd.ErrOrStderr()
	}
	g.Go(func() error {
		renderUpdates(progressOut, updates)
		return nil
	})
	if err := g.Wait(); err != nil {
		return WrapExitError(ExitCommandError, "frame loop failed", err)
	}

	// An interrupt may have stopped the loop before the cancellation from
	// CancelOnDone landed; cancelling again is a no-op once idle.
	ctrl.Cancel()
	rec := <-finished

	if dbPath, ok := cfg.Journal(opts.Database); ok {
		// The command context is done after an interrupt, so persist on a fresh one.
		if err := persistRecording(context.WithoutCancel(parent), dbPath, rec); err != nil {
			return err
		}
		logger.Debug("playback persisted", "playback_id", rec.PlaybackID, "db", dbPath)
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return formatter.Success(playbackView(rec))
	}

	w := cmd.OutOrStdout()
	if rec.Outcome == store.OutcomeComplete {
		fmt.Fprintf(w, "✓ %s complete (playback %s)\n", rec.Timeline, rec.PlaybackID)
		return nil
	}
	fmt.Fprintf(w, "✗ %s %s (playback %s)\n", rec.Timeline, rec.Outcome, rec.PlaybackID)
	return nil
}

// renderUpdates draws playback progress until updates is closed. Terminals
// get a single redrawn progress line; other writers get one line per phase.
func renderUpdates(w io.Writer, updates <-chan engine.Update) {
	live := isTerminal(w)
	drawn := false
	var lastPhase timeline.PhaseID

	for u := range updates {
		snap := u.Snapshot
		if live {
			if snap.Status != engine.StatusIdle {
				fmt.Fprintf(w, "\r%s %3.0f%% %-20s", progressBar(snap.Progress), snap.Progress*100, snap.Phase)
				drawn = true
			}
			continue
		}

		switch u.Kind {
		case engine.EventModeSwitch:
			fmt.Fprintf(w, "%8s  mode switch\n", formatElapsed(snap.Elapsed))
		case engine.EventCancelled:
			fmt.Fprintf(w, "%8s  cancelled\n", formatElapsed(snap.Elapsed))
		case engine.EventComplete:
			fmt.Fprintf(w, "%8s  complete\n", formatElapsed(snap.Elapsed))
		}
		if snap.Status == engine.StatusRunning && snap.Phase != lastPhase {
			fmt.Fprintf(w, "%8s  %s\n", formatElapsed(snap.Elapsed), snap.Phase)
			lastPhase = snap.Phase
		}
	}
	if drawn {
		fmt.Fprintln(w)
	}
}

func progressBar(progress float64) string {
	filled := int(progress * progressBarWidth)
	if filled > progressBarWidth {
		filled = progressBarWidth
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", progressBarWidth-filled) + "]"
}
