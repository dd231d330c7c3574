package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ceremony/internal/timeline"
)

// PhaseDetail describes one phase of a timeline.
type PhaseDetail struct {
	ID         string `json:"id"`
	StartMs    int64  `json:"start_ms"`
	DurationMs int64  `json:"duration_ms"`
	Target     string `json:"target"`
	Action     string `json:"action,omitempty"`
	Decor      string `json:"decor,omitempty"`
}

// TimelineDetail is the output of the show command.
type TimelineDetail struct {
	TimelineSummary
	PhaseList []PhaseDetail `json:"phase_list"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the phases of a timeline",
		Long: `Show the phases of one timeline in declaration order.

Unregistered identifiers are reported as errors rather than resolved to
the fallback timeline.

Examples:
  ceremony show prep-to-session
  ceremony show reduced-motion --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runShow(opts *RootOptions, id string, cmd *cobra.Command) error {
	registry, err := loadRegistry(opts.config())
	if err != nil {
		return err
	}

	tl, ok := registry.Get(timeline.Identifier(id))
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("no timeline registered for %q", id))
	}

	detail := TimelineDetail{
		TimelineSummary: summarize(tl),
		PhaseList:       make([]PhaseDetail, len(tl.Phases)),
	}
	for i, p := range tl.Phases {
		detail.PhaseList[i] = PhaseDetail{
			ID:         string(p.ID),
			StartMs:    p.Start.Milliseconds(),
			DurationMs: p.Duration.Milliseconds(),
			Target:     string(p.Target),
			Action:     string(p.Action),
			Decor:      formatDecor(p.Decor),
		}
	}

	if opts.Format == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: detail})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s  total %dms  fingerprint %s\n", detail.ID, detail.TotalMs, detail.Fingerprint)
	rows := make([][]string, len(detail.PhaseList))
	for i, p := range detail.PhaseList {
		rows[i] = []string{
			p.ID,
			fmt.Sprintf("%dms", p.StartMs),
			fmt.Sprintf("%dms", p.DurationMs),
			fmt.Sprintf("%dms", p.StartMs+p.DurationMs),
			p.Target,
			p.Action,
			p.Decor,
		}
	}
	formatter := &OutputFormatter{Format: opts.Format, Writer: w}
	formatter.Table([]string{"PHASE", "START", "DURATION", "END", "TARGET", "ACTION", "DECOR"}, rows, 1, 2, 3)
	return nil
}

func formatDecor(d *timeline.Decor) string {
	if d == nil {
		return ""
	}
	out := ""
	if d.ParticleCount > 0 {
		out += fmt.Sprintf("particles=%d ", d.ParticleCount)
	}
	if d.Stagger > 0 {
		out += fmt.Sprintf("stagger=%s ", d.Stagger)
	}
	if d.ColorBias != "" {
		out += fmt.Sprintf("color=%s ", d.ColorBias)
	}
	if out == "" {
		return ""
	}
	return out[:len(out)-1]
}
