package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: usage
description: "Unqualified usage decodes to three records"
namespaces:
  ex: http://example.org/
input:
  format: nquads
  data: |
    <http://example.org/a1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/ns/prov#Activity> .
    <http://example.org/e1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/ns/prov#Entity> .
    <http://example.org/a1> <http://www.w3.org/ns/prov#used> <http://example.org/e1> .
roundtrip: [nquads, store]
assertions:
  - type: record_count
    count: 3
`

const failingScenario = `name: wrong_count
description: "Expects more records than the input holds"
input:
  format: nquads
  data: |
    <http://example.org/e1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/ns/prov#Entity> .
assertions:
  - type: record_count
    count: 5
`

// scenarioDir lays out <root>/scenarios with the given files and returns
// the scenarios directory.
func scenarioDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "scenarios")
	require.NoError(t, os.MkdirAll(dir, 0755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := execute(NewTestCommand(textOpts()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := execute(NewTestCommand(textOpts()), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := execute(NewTestCommand(textOpts()), scenarioDir(t, nil))
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := execute(NewTestCommand(jsonOpts()), scenarioDir(t, nil))
	require.NoError(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
}

func TestTestCommandPassAndFail(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"usage.yaml":       passingScenario,
		"wrong_count.yaml": failingScenario,
	})

	out, err := execute(NewTestCommand(textOpts()), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ usage")
	assert.Contains(t, out, "✗ wrong_count")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFilterJSON(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"usage.yaml":       passingScenario,
		"wrong_count.yaml": failingScenario,
	})

	out, err := execute(NewTestCommand(jsonOpts()), dir, "--filter", "us*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "usage", resp.Data.Scenarios[0].Name)
	assert.Len(t, resp.Data.Scenarios[0].Hash, 64)
}

func TestTestCommandGoldenUpdateThenCompare(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"usage.yaml": passingScenario})
	goldenPath := filepath.Join(filepath.Dir(dir), "golden", "usage.golden")

	out, err := execute(NewTestCommand(textOpts()), dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ usage (golden updated)")

	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Equal(t,
		`{"diagnostics":[],"records":{"document":["activity(ex:a1, -, -)","entity(ex:e1)","used(ex:a1, ex:e1, -)"]},"scenario_name":"usage"}`,
		string(golden))

	_, err = execute(NewTestCommand(textOpts()), dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"stale":true}`), 0644))
	out, err = execute(NewTestCommand(textOpts()), dir)
	require.Error(t, err)
	assert.Contains(t, out, "snapshot does not match golden file")
}

func TestTestCommandLoadError(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"broken.yaml": "name: broken\nassertion: []\n"})

	out, err := execute(NewTestCommand(textOpts()), dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestFindScenarioFiles(t *testing.T) {
	tmpDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "test1.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "test2.yml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "ignore.jsonld"), []byte(""), 0644))

	files, err := findScenarioFiles(tmpDir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestFindScenarioFilesWithFilter(t *testing.T) {
	tmpDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "ambiguous_slot.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "ambiguous_slot_strict.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "revision_shortcut.yaml"), []byte(""), 0644))

	files, err := findScenarioFiles(tmpDir, "ambiguous_*")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = findScenarioFiles(tmpDir, "[")
	assert.Error(t, err)
}

func TestFindScenarioFilesSkipsSubdirectories(t *testing.T) {
	tmpDir := t.TempDir()
	inputs := filepath.Join(tmpDir, "inputs")
	require.NoError(t, os.MkdirAll(inputs, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "root.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(inputs, "data.yaml"), []byte(""), 0644))

	files, err := findScenarioFiles(tmpDir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(tmpDir, "root.yaml")}, files)
}
