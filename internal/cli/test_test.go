package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var harnessScenarios = filepath.Join("..", "harness", "testdata", "scenarios")

const passingScenario = `name: bypass
ceremony: keyboard-bypass
step_ms: 100
until_ms: 500
assertions:
  - type: switch_at_ms
    at_ms: 200
  - type: complete_at_ms
    at_ms: 400
  - type: idle_after_complete
`

const failingScenario = `name: wrong_switch
ceremony: keyboard-bypass
step_ms: 100
until_ms: 500
assertions:
  - type: switch_at_ms
    at_ms: 300
`

func runTestCommand(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeScenario(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCommand(t, &RootOptions{Format: "text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := runTestCommand(t, &RootOptions{Format: "text"}, "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandInvalidFilter(t *testing.T) {
	_, err := runTestCommand(t, &RootOptions{Format: "text"}, t.TempDir(), "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	output, err := runTestCommand(t, &RootOptions{Format: "text"}, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, output, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	output, err := runTestCommand(t, &RootOptions{Format: "json"}, t.TempDir())
	require.NoError(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(output), &response))
	assert.Equal(t, "ok", response.Status)
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	output, err := runTestCommand(t, &RootOptions{Format: "text"}, harnessScenarios)
	require.NoError(t, err, output)
	assert.Contains(t, output, "✓ single_flight")
	assert.Contains(t, output, "✓ All scenarios passed")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "ok.yaml", passingScenario)
	writeScenario(t, dir, "bad.yaml", failingScenario)

	output, err := runTestCommand(t, &RootOptions{Format: "text"}, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, output, "✓ bypass")
	assert.Contains(t, output, "✗ wrong_switch")
	assert.Contains(t, output, "Assertion failed: switch_at_ms")
	assert.Contains(t, output, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFailingScenarioJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "bad.yaml", failingScenario)

	output, err := runTestCommand(t, &RootOptions{Format: "json"}, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, resp.Data.Failed)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", "name: broken\nceremony: keyboard-bypass\nticks_ms: [100]\n")

	output, err := runTestCommand(t, &RootOptions{Format: "text"}, dir)
	require.Error(t, err)
	assert.Contains(t, output, "✗ broken.yaml")
	assert.Contains(t, output, "failed to load scenario")
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "bypass.yaml", passingScenario)

	output, err := runTestCommand(t, &RootOptions{Format: "text"}, dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, output, "✓ bypass (golden updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "bypass.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name":"bypass"`)

	// The golden directory is not itself scanned for scenarios.
	output, err = runTestCommand(t, &RootOptions{Format: "text"}, dir)
	require.NoError(t, err)
	assert.Contains(t, output, "1 passed, 0 failed, 1 total")
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "bypass.yaml", passingScenario)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "bypass.golden"), []byte(`{}`), 0644))

	output, err := runTestCommand(t, &RootOptions{Format: "text"}, dir)
	require.Error(t, err)
	assert.Contains(t, output, "trace does not match golden file")
}

func TestTestCommandUsesCustomTimelines(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "focus.yaml", `name: focus
ceremony: focus-enter
step_ms: 250
until_ms: 1250
assertions:
  - type: timeline_used
    timeline: focus-enter
  - type: switch_at_ms
    at_ms: 500
`)

	opts := &RootOptions{Format: "text", Timelines: filepath.Join(timelinesTestdata, "valid")}
	output, err := runTestCommand(t, opts, dir)
	require.NoError(t, err, output)
	assert.Contains(t, output, "✓ focus")
}

func TestTestCommandVerboseLogsScenarioActions(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "cancel.yaml", `name: cancelled
ceremony: prep-to-session
step_ms: 100
until_ms: 300
actions:
  - at_ms: 150
    do: cancel
assertions:
  - type: outcome
    outcome: cancelled
`)

	var stderr bytes.Buffer
	opts := &RootOptions{Format: "text", Verbose: true}
	opts.Logger = slog.New(slog.NewTextHandler(&stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	output, err := runTestCommand(t, opts, dir)
	require.NoError(t, err, output)

	logs := stderr.String()
	assert.Contains(t, logs, "scenario=cancelled")
	assert.Contains(t, logs, `msg="scenario action applied"`)
	assert.Contains(t, logs, `msg="ceremony cancelled"`)
}

func TestTestCommandQuietByDefault(t *testing.T) {
	var stderr bytes.Buffer
	opts := &RootOptions{Format: "text"}
	opts.Logger = slog.New(slog.NewTextHandler(&stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	_, err := runTestCommand(t, opts, harnessScenarios)
	require.NoError(t, err)
	assert.NotContains(t, stderr.String(), "ceremony started")
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a.yaml", passingScenario)
	writeScenario(t, dir, "b.yml", passingScenario)
	writeScenario(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))
	writeScenario(t, filepath.Join(dir, "nested"), "c.yaml", passingScenario)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0755))
	writeScenario(t, filepath.Join(dir, "golden"), "d.yaml", passingScenario)

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "b.yml"),
		filepath.Join(dir, "nested", "c.yaml"),
	}, files)
}

func TestFindScenarioFilesWithFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "prep-jump.yaml", passingScenario)
	writeScenario(t, dir, "bypass.yaml", passingScenario)

	files, err := findScenarioFiles(dir, "prep-*")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "prep-jump.yaml")}, files)
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "jump.golden"),
		goldenFilePath(filepath.Join("scenarios", "jump.yaml")))
}
