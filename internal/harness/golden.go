package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ceremony/internal/timeline"
)

// TraceSnapshot captures the observable output of a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string
	Result       *Result
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical
// JSON serialization.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	playbacks := make([]any, len(s.Result.Recordings))
	for i, rec := range s.Result.Recordings {
		playbacks[i] = rec.CanonicalMap()
	}

	firings := func(list []Firing) []any {
		out := make([]any, len(list))
		for i, f := range list {
			out[i] = map[string]any{
				"playback_id": f.PlaybackID,
				"elapsed_us":  f.Elapsed.Microseconds(),
			}
		}
		return out
	}

	return map[string]any{
		"scenario_name":  s.ScenarioName,
		"playbacks":      playbacks,
		"switches":       firings(s.Result.Switches),
		"completions":    firings(s.Result.Completions),
		"ignored_starts": s.Result.IgnoredStarts,
	}
}

// Canonical renders the snapshot as canonical JSON, the golden file format.
func (s *TraceSnapshot) Canonical() ([]byte, error) {
	return timeline.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its trace against a golden
// file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{ScenarioName: scenarioName, Result: result}
	traceJSON, err := snapshot.Canonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
