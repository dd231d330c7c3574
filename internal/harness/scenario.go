package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ceremony/internal/timeline"
)

// Scenario defines a conformance scenario for the playback controller.
// Scenarios drive a controller with an explicit sequence of frame times and
// assert on the resulting trace and callback firings.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Ceremony is the identifier started at time zero.
	Ceremony string `yaml:"ceremony"`

	// Timeline optionally registers an inline timeline under Ceremony,
	// replacing any built-in with the same identifier.
	Timeline *timeline.Doc `yaml:"timeline,omitempty"`

	// ReducedMotion is the preference at time zero.
	ReducedMotion bool `yaml:"reduced_motion,omitempty"`

	// TicksMs lists frame times in milliseconds after the first start.
	// Mutually exclusive with StepMs/UntilMs.
	TicksMs []int64 `yaml:"ticks_ms,omitempty"`

	// StepMs and UntilMs generate frames at StepMs, 2*StepMs, ... up to UntilMs.
	StepMs  int64 `yaml:"step_ms,omitempty"`
	UntilMs int64 `yaml:"until_ms,omitempty"`

	// ExtraFrames delivers this many additional frames after the last tick,
	// without advancing the clock.
	ExtraFrames int `yaml:"extra_frames,omitempty"`

	// Actions are interventions applied before the first frame at or after AtMs.
	Actions []Action `yaml:"actions,omitempty"`

	// Assertions validate the trace and callback firings.
	Assertions []Assertion `yaml:"assertions"`
}

// Action is a timed intervention.
type Action struct {
	AtMs int64 `yaml:"at_ms"`

	// Do is one of: start, cancel, set_reduced_motion.
	Do string `yaml:"do"`

	// Ceremony is the identifier for start.
	Ceremony string `yaml:"ceremony,omitempty"`

	// Value is the new preference for set_reduced_motion.
	Value bool `yaml:"value,omitempty"`
}

// Action kinds.
const (
	DoStart            = "start"
	DoCancel           = "cancel"
	DoSetReducedMotion = "set_reduced_motion"
)

// Assertion validates one property of a scenario run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is used by switch_count, complete_count and ignored_starts.
	Count int `yaml:"count,omitempty"`

	// AtMs is used by switch_at_ms, complete_at_ms and phase_at_ms.
	AtMs int64 `yaml:"at_ms,omitempty"`

	// Phase is used by phase_at_ms.
	Phase string `yaml:"phase,omitempty"`

	// Timeline is used by timeline_used.
	Timeline string `yaml:"timeline,omitempty"`

	// Ceremony is used by ceremony_active.
	Ceremony string `yaml:"ceremony,omitempty"`

	// Outcome is used by outcome.
	Outcome string `yaml:"outcome,omitempty"`

	// Playback selects which recording (0-based) the assertion inspects.
	Playback int `yaml:"playback,omitempty"`
}

// Assertion type constants.
const (
	AssertSwitchCount       = "switch_count"
	AssertSwitchAt          = "switch_at_ms"
	AssertCompleteCount     = "complete_count"
	AssertCompleteAt        = "complete_at_ms"
	AssertPhaseAt           = "phase_at_ms"
	AssertIdleAfterComplete = "idle_after_complete"
	AssertProgressMonotonic = "progress_monotonic"
	AssertTimelineUsed      = "timeline_used"
	AssertCeremonyActive    = "ceremony_active"
	AssertIgnoredStarts     = "ignored_starts"
	AssertOutcome           = "outcome"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Ceremony == "" {
		return fmt.Errorf("ceremony is required")
	}

	hasTicks := len(s.TicksMs) > 0
	hasSteps := s.StepMs != 0 || s.UntilMs != 0
	switch {
	case hasTicks && hasSteps:
		return fmt.Errorf("ticks_ms and step_ms/until_ms are mutually exclusive")
	case !hasTicks && !hasSteps:
		return fmt.Errorf("either ticks_ms or step_ms/until_ms is required")
	case hasSteps && (s.StepMs <= 0 || s.UntilMs < s.StepMs):
		return fmt.Errorf("step_ms must be positive and until_ms at least step_ms")
	}
	for i := 1; i < len(s.TicksMs); i++ {
		if s.TicksMs[i] < s.TicksMs[i-1] {
			return fmt.Errorf("ticks_ms must be non-decreasing (index %d)", i)
		}
	}

	if s.ExtraFrames < 0 {
		return fmt.Errorf("extra_frames must be non-negative")
	}

	for i, a := range s.Actions {
		switch a.Do {
		case DoStart:
			if a.Ceremony == "" {
				return fmt.Errorf("actions[%d]: ceremony is required for start", i)
			}
		case DoCancel, DoSetReducedMotion:
		default:
			return fmt.Errorf("actions[%d]: unknown action %q", i, a.Do)
		}
		if i > 0 && a.AtMs < s.Actions[i-1].AtMs {
			return fmt.Errorf("actions[%d]: actions must be ordered by at_ms", i)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertSwitchCount, AssertCompleteCount, AssertIgnoredStarts:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertSwitchAt, AssertCompleteAt:
	case AssertPhaseAt:
		if a.Phase == "" {
			return fmt.Errorf("assertions[%d]: phase is required for phase_at_ms", index)
		}
	case AssertIdleAfterComplete, AssertProgressMonotonic:
	case AssertTimelineUsed:
		if a.Timeline == "" {
			return fmt.Errorf("assertions[%d]: timeline is required for timeline_used", index)
		}
	case AssertCeremonyActive:
		if a.Ceremony == "" {
			return fmt.Errorf("assertions[%d]: ceremony is required for ceremony_active", index)
		}
	case AssertOutcome:
		if a.Outcome == "" {
			return fmt.Errorf("assertions[%d]: outcome is required for outcome", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	if a.Playback < 0 {
		return fmt.Errorf("assertions[%d]: playback must be non-negative", index)
	}
	return nil
}

// Samples returns the frame times of the scenario in milliseconds.
func (s *Scenario) Samples() []int64 {
	if len(s.TicksMs) > 0 {
		return append([]int64(nil), s.TicksMs...)
	}
	var out []int64
	for t := s.StepMs; t <= s.UntilMs; t += s.StepMs {
		out = append(out, t)
	}
	return out
}
