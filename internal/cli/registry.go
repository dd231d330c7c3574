package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/ceremony/internal/config"
	"github.com/roach88/ceremony/internal/timeline"
)

// loadRegistry returns the built-in timelines with any custom timelines from
// cfg.TimelinesDir layered on top. Custom files that fail to load are a
// command error: playing a half-loaded set would silently fall back.
func loadRegistry(cfg *config.Config) (*timeline.Registry, error) {
	registry := timeline.Builtin()
	if cfg.TimelinesDir == "" {
		return registry, nil
	}

	result, errs := timeline.LoadDir(cfg.TimelinesDir)
	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, err := range errs {
			msgs[i] = err.Error()
		}
		return nil, WrapExitError(ExitCommandError,
			fmt.Sprintf("failed to load timelines from %s", cfg.TimelinesDir),
			errors.New(strings.Join(msgs, "; ")))
	}

	registry, err := registry.With(result.Timelines...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to register custom timelines", err)
	}
	return registry, nil
}
