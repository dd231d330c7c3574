package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/ceremony/internal/timeline"
)

// TimelineSummary describes one registered timeline.
type TimelineSummary struct {
	ID            string `json:"id"`
	TotalMs       int64  `json:"total_ms"`
	Phases        int    `json:"phases"`
	SwitchAtMs    *int64 `json:"switch_at_ms,omitempty"`
	UsesParticles bool   `json:"uses_particles"`
	Fingerprint   string `json:"fingerprint"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered timelines",
		Long: `List every registered ceremony timeline, including custom timelines
loaded with --timelines and the shared reduced-motion and fallback timelines.

Examples:
  ceremony list
  ceremony list --timelines ./timelines --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}

	return cmd
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	registry, err := loadRegistry(opts.config())
	if err != nil {
		return err
	}

	ids := append(registry.Identifiers(), timeline.ReducedMotionID, timeline.FallbackID)
	summaries := make([]TimelineSummary, 0, len(ids))
	for _, id := range ids {
		tl, ok := registry.Get(id)
		if !ok {
			continue
		}
		summaries = append(summaries, summarize(tl))
	}

	if opts.Format == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: summaries})
	}

	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		switchAt := "-"
		if s.SwitchAtMs != nil {
			switchAt = fmt.Sprintf("%dms", *s.SwitchAtMs)
		}
		rows[i] = []string{
			s.ID,
			fmt.Sprintf("%dms", s.TotalMs),
			strconv.Itoa(s.Phases),
			switchAt,
			strconv.FormatBool(s.UsesParticles),
			s.Fingerprint[:12],
		}
	}
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	formatter.Table([]string{"ID", "TOTAL", "PHASES", "SWITCH", "PARTICLES", "FINGERPRINT"}, rows, 1, 2, 3)
	return nil
}

func summarize(tl timeline.Timeline) TimelineSummary {
	s := TimelineSummary{
		ID:            string(tl.ID),
		TotalMs:       tl.Total.Milliseconds(),
		Phases:        len(tl.Phases),
		UsesParticles: tl.UsesParticles,
		Fingerprint:   timeline.Fingerprint(tl),
	}
	if sw, ok := tl.SwitchPhase(); ok {
		at := sw.Start.Milliseconds()
		s.SwitchAtMs = &at
	}
	return s
}
