package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/ceremony/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose       bool
	Format        string // "json" | "text"
	Timelines     string // directory of custom timelines, layered over the built-ins
	ReducedMotion bool

	// Config is resolved from the environment and then overridden by flags.
	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ceremony CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ceremony",
		Short: "Ceremony timeline and playback engine",
		Long: `Plays declarative transition choreographies against a frame clock.

Inspect and validate timelines, simulate playbacks deterministically,
play them in real time, and audit recorded playbacks from the journal.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Timelines, "timelines", "", "directory of custom .cue/.yaml timelines (env CEREMONY_TIMELINES)")
	cmd.PersistentFlags().BoolVar(&opts.ReducedMotion, "reduced-motion", false, "play the reduced-motion timeline (env CEREMONY_REDUCED_MOTION)")

	// Add subcommands
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewSimulateCommand(opts))
	cmd.AddCommand(NewPlayCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve loads the environment configuration and applies flag overrides.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return NewExitError(ExitCommandError, err.Error())
	}

	flags := cmd.Flags()
	if flags.Changed("timelines") {
		cfg.TimelinesDir = o.Timelines
	}
	if flags.Changed("reduced-motion") {
		cfg.ReducedMotion = o.ReducedMotion
	}
	if o.Verbose {
		cfg.LogLevel = slog.LevelDebug
	}

	o.Config = cfg
	o.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel}))
	return nil
}

// config returns the resolved configuration. Commands constructed without
// the root command fall back to flag values and defaults.
func (o *RootOptions) config() *config.Config {
	if o.Config != nil {
		return o.Config
	}
	return &config.Config{
		FPS:           60,
		ReducedMotion: o.ReducedMotion,
		TimelinesDir:  o.Timelines,
		LogLevel:      slog.LevelInfo,
	}
}

// logger returns the configured logger, or one that only reports warnings.
func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
