package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// copyScenarios copies the named scenario files into a fresh directory.
func copyScenarios(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join("testdata", "scenarios", name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}
	return dir
}

func TestScenarioPasses(t *testing.T) {
	env := newTestEnv(t)
	dir := copyScenarios(t, "users.yaml")

	out := env.mustRun(t, "scenario", dir)
	assert.Equal(t, "✓ users\n\n1 passed, 0 failed, 1 total\n", out)
}

func TestScenarioFailure(t *testing.T) {
	env := newTestEnv(t)
	dir := copyScenarios(t, "users.yaml", "wrong_count.yaml")

	out, err := env.run(t, "scenario", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ users\n")
	assert.Contains(t, out, "✗ wrong_count\n")
	assert.Contains(t, out, "Expected: 3 documents")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestScenarioFilter(t *testing.T) {
	env := newTestEnv(t)
	dir := copyScenarios(t, "users.yaml", "wrong_count.yaml")

	out := env.mustRun(t, "scenario", dir, "--filter", "user*")
	assert.Equal(t, "✓ users\n\n1 passed, 0 failed, 1 total\n", out)

	out = env.mustRun(t, "scenario", dir, "--filter", "nothing-*")
	assert.Equal(t, "No scenarios found.\n", out)

	_, err := env.run(t, "scenario", dir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestScenarioGoldenUpdateAndCompare(t *testing.T) {
	env := newTestEnv(t)
	dir := copyScenarios(t, "users.yaml")
	golden := filepath.Join(dir, "golden", "users.golden")

	env.mustRun(t, "scenario", dir, "--update")

	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	var snap struct {
		ScenarioName string `json:"scenario_name"`
		Backend      string `json:"backend"`
		Trace        []struct {
			Op      string `json:"op"`
			Outcome string `json:"outcome"`
		} `json:"trace"`
	}
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, "users", snap.ScenarioName)
	assert.Equal(t, "memory", snap.Backend)
	require.Len(t, snap.Trace, 4)
	assert.Equal(t, "seed", snap.Trace[0].Op)
	assert.Equal(t, "DUPLICATE_REFERENCE", snap.Trace[3].Outcome)

	// Matching golden passes; golden files are not scenarios themselves.
	out := env.mustRun(t, "scenario", dir)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	require.NoError(t, os.WriteFile(golden, []byte("{}\n"), 0o644))
	out, err = env.run(t, "scenario", dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestScenarioJSON(t *testing.T) {
	env := newTestEnv(t)
	dir := copyScenarios(t, "users.yaml", "wrong_count.yaml")

	out, err := env.run(t, "--format", "json", "scenario", dir)
	require.Error(t, err)

	var summary ScenarioSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Passed)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Scenarios, 2)
	assert.True(t, summary.Scenarios[0].Pass)
	assert.False(t, summary.Scenarios[1].Pass)
	assert.NotEmpty(t, summary.Scenarios[1].Errors)
}

func TestScenarioLoadFailure(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\n"), 0o644))

	out, err := env.run(t, "scenario", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml\n")
	assert.Contains(t, out, "failed to load scenario")
}

func TestScenarioMissingDir(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "scenario", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("a", "b", "golden", "x.golden"), goldenFilePath(filepath.Join("a", "b", "x.yaml")))
}
