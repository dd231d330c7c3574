package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ceremony/internal/store"
	"github.com/roach88/ceremony/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Playback string // optional - show the frames of one playback
	Limit    int
}

// PlaybackView describes one recorded playback.
type PlaybackView struct {
	ID            string `json:"id"`
	Ceremony      string `json:"ceremony"`
	Timeline      string `json:"timeline"`
	TimelineHash  string `json:"timeline_hash"`
	ReducedMotion bool   `json:"reduced_motion"`
	Outcome       string `json:"outcome"`
	Frames        int    `json:"frames,omitempty"`
}

// FrameView is one recorded update.
type FrameView struct {
	Seq       int64   `json:"seq"`
	Kind      string  `json:"kind"`
	Status    string  `json:"status"`
	Phase     string  `json:"phase"`
	ElapsedUs int64   `json:"elapsed_us"`
	Progress  float64 `json:"progress"`
}

// TraceResult holds the frames of one playback.
type TraceResult struct {
	Playback PlaybackView `json:"playback"`
	Frames   []FrameView  `json:"frames"`
}

var frameHeaders = []string{"SEQ", "KIND", "STATUS", "PHASE", "ELAPSED", "PROGRESS"}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded playbacks",
		Long: `Inspect playbacks recorded in the journal.

Without --playback, lists the most recent playbacks. With --playback,
prints every frame of that playback: the event kind, status, active
phase, elapsed time and progress.

Examples:
  ceremony trace --db ./ceremony.db
  ceremony trace --db ./ceremony.db --limit 5
  ceremony trace --db ./ceremony.db --playback 0190c6f2-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (env CEREMONY_DB)")
	cmd.Flags().StringVar(&opts.Playback, "playback", "", "playback ID to show")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "number of playbacks to list (0 for all)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	dbPath, ok := opts.config().Journal(opts.Database)
	if !ok {
		return NewExitError(ExitCommandError, "--db is required (or set CEREMONY_DB)")
	}

	st, err := openJournal(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	ctx := cmd.Context()

	if opts.Playback == "" {
		records, err := st.ListPlaybacks(ctx, opts.Limit)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list playbacks", err)
		}
		views := make([]PlaybackView, len(records))
		for i, p := range records {
			views[i] = PlaybackView{
				ID:            p.ID,
				Ceremony:      p.Ceremony,
				Timeline:      p.TimelineID,
				TimelineHash:  p.TimelineHash,
				ReducedMotion: p.ReducedMotion,
				Outcome:       p.Outcome,
			}
		}
		if opts.Format == "json" {
			return formatter.Success(views)
		}
		if len(views) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No playbacks recorded.")
			return nil
		}
		rows := make([][]string, len(views))
		for i, v := range views {
			rows[i] = []string{v.ID, v.Ceremony, v.Timeline, strconv.FormatBool(v.ReducedMotion), v.Outcome}
		}
		formatter.Table([]string{"PLAYBACK", "CEREMONY", "TIMELINE", "REDUCED MOTION", "OUTCOME"}, rows)
		return nil
	}

	rec, err := trace.Load(ctx, st, opts.Playback)
	if errors.Is(err, store.ErrNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("playback not found: %s", opts.Playback))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load playback", err)
	}

	result := TraceResult{Playback: playbackView(rec), Frames: frameViews(rec.Frames)}
	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Trace for Playback: %s\n", rec.PlaybackID)
	fmt.Fprintf(w, "Ceremony: %s (timeline %s, reduced motion %t)\n", rec.Ceremony, rec.Timeline, rec.ReducedMotion)
	fmt.Fprintf(w, "Outcome: %s\n\n", rec.Outcome)
	if len(rec.Frames) == 0 {
		fmt.Fprintln(w, "  (no frames)")
		return nil
	}
	formatter.Table(frameHeaders, frameRows(rec.Frames), 0, 4, 5)
	return nil
}

func playbackView(rec trace.Recording) PlaybackView {
	return PlaybackView{
		ID:            rec.PlaybackID,
		Ceremony:      string(rec.Ceremony),
		Timeline:      string(rec.Timeline),
		TimelineHash:  rec.TimelineHash,
		ReducedMotion: rec.ReducedMotion,
		Outcome:       rec.Outcome,
		Frames:        len(rec.Frames),
	}
}

func frameViews(frames []trace.Frame) []FrameView {
	out := make([]FrameView, len(frames))
	for i, f := range frames {
		out[i] = FrameView{
			Seq:       f.Seq,
			Kind:      string(f.Kind),
			Status:    string(f.Status),
			Phase:     string(f.Phase),
			ElapsedUs: f.Elapsed.Microseconds(),
			Progress:  f.Progress,
		}
	}
	return out
}

func frameRows(frames []trace.Frame) [][]string {
	rows := make([][]string, len(frames))
	for i, f := range frames {
		rows[i] = []string{
			strconv.FormatInt(f.Seq, 10),
			string(f.Kind),
			string(f.Status),
			string(f.Phase),
			formatElapsed(f.Elapsed),
			fmt.Sprintf("%.3f", f.Progress),
		}
	}
	return rows
}

// formatElapsed renders d in milliseconds with one decimal.
func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
}
