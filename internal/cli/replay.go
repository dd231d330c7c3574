package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ceremony/internal/store"
	"github.com/roach88/ceremony/internal/timeline"
	"github.com/roach88/ceremony/internal/trace"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Playback string // optional - specific playback only
}

// ReplayPlaybackResult holds the replay result for a single playback.
type ReplayPlaybackResult struct {
	PlaybackID    string   `json:"playback_id"`
	Ceremony      string   `json:"ceremony"`
	Frames        int      `json:"frames"`
	Deterministic bool     `json:"deterministic"`
	Divergences   []string `json:"divergences,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Playbacks        []ReplayPlaybackResult `json:"playbacks"`
	Total            int                    `json:"total"`
	AllDeterministic bool                   `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded playbacks and verify determinism",
		Long: `Re-drive recorded playbacks through a fresh controller and compare.

Each playback is replayed against the current timelines using exactly the
recorded frame times. Any frame whose kind, status, phase, elapsed time or
progress differs is reported, as is a timeline whose fingerprint changed
since recording.

Exit codes:
  0 - All playbacks are deterministic
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, etc.)

Examples:
  ceremony replay --db ./ceremony.db
  ceremony replay --db ./ceremony.db --playback 0190c6f2-...
  ceremony replay --db ./ceremony.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (env CEREMONY_DB)")
	cmd.Flags().StringVar(&opts.Playback, "playback", "", "replay specific playback only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	cfg := opts.config()
	dbPath, ok := cfg.Journal(opts.Database)
	if !ok {
		return NewExitError(ExitCommandError, "--db is required (or set CEREMONY_DB)")
	}

	registry, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	st, err := openJournal(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()

	// Get playbacks to process
	var ids []string
	if opts.Playback != "" {
		ids = []string{opts.Playback}
	} else {
		records, err := st.ListPlaybacks(ctx, 0)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list playbacks", err)
		}
		for _, p := range records {
			ids = append(ids, p.ID)
		}
	}

	if len(ids) == 0 {
		if opts.Format == "json" {
			return outputReplay(cmd, opts, ReplayResult{Playbacks: []ReplayPlaybackResult{}, AllDeterministic: true})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No playbacks found in database.")
		return nil
	}

	result := ReplayResult{
		Playbacks:        make([]ReplayPlaybackResult, 0, len(ids)),
		Total:            len(ids),
		AllDeterministic: true,
	}
	for _, id := range ids {
		pr, err := replayPlayback(ctx, st, registry, id)
		if errors.Is(err, store.ErrNotFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("playback not found: %s", id))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay playback %s", id), err)
		}
		opts.logger(cmd).Debug("playback replayed", "playback_id", id, "deterministic", pr.Deterministic)

		result.Playbacks = append(result.Playbacks, pr)
		if !pr.Deterministic {
			result.AllDeterministic = false
		}
	}

	return outputReplay(cmd, opts, result)
}

func replayPlayback(ctx context.Context, st *store.Store, registry *timeline.Registry, id string) (ReplayPlaybackResult, error) {
	rec, err := trace.Load(ctx, st, id)
	if err != nil {
		return ReplayPlaybackResult{}, err
	}
	replayed, err := trace.Replay(rec, registry)
	if err != nil {
		return ReplayPlaybackResult{}, err
	}
	return ReplayPlaybackResult{
		PlaybackID:    rec.PlaybackID,
		Ceremony:      string(rec.Ceremony),
		Frames:        len(rec.Frames),
		Deterministic: replayed.Deterministic,
		Divergences:   replayed.Divergences,
	}, nil
}

// outputReplay writes the result and maps non-determinism to exit code 1.
func outputReplay(cmd *cobra.Command, opts *ReplayOptions, result ReplayResult) error {
	failed := 0
	for _, p := range result.Playbacks {
		if !p.Deterministic {
			failed++
		}
	}

	if opts.Format == "json" {
		response := CLIResponse{Status: "ok", Data: result}
		if failed > 0 {
			response.Status = "error"
			response.Error = &CLIError{
				Code:    "E_NONDETERMINISTIC",
				Message: fmt.Sprintf("%d playback(s) diverged on replay", failed),
			}
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Replayed %d playback(s)\n\n", result.Total)
		for _, p := range result.Playbacks {
			if p.Deterministic {
				fmt.Fprintf(w, "✓ %s (%s, %d frames)\n", p.PlaybackID, p.Ceremony, p.Frames)
				continue
			}
			fmt.Fprintf(w, "✗ %s (%s, %d frames)\n", p.PlaybackID, p.Ceremony, p.Frames)
			for _, d := range p.Divergences {
				fmt.Fprintf(w, "  %s\n", d)
			}
		}
		fmt.Fprintln(w)
		if failed == 0 {
			fmt.Fprintln(w, "✓ All playbacks deterministic")
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d playback(s) diverged on replay", failed))
	}
	return nil
}
