package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalInput = `<http://example.org/e1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/ns/prov#Entity> .`

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	content := `
name: test_scenario
description: "Test scenario"
namespaces:
  ex: http://example.org/
input:
  data: |
    ` + minimalInput + `
roundtrip: [nquads, store]
assertions:
  - type: record_count
    kind: entity
    count: 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, map[string]string{"ex": "http://example.org/"}, scenario.Namespaces)
	assert.Equal(t, []string{"nquads", "store"}, scenario.RoundTrip)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, AssertRecordCount, scenario.Assertions[0].Type)
	assert.Equal(t, 1, scenario.Assertions[0].Count)
}

func TestLoadScenario_InputFileRelativeToScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "in.nq"), []byte(minimalInput+"\n"), 0o644))
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: from_file
description: "input from a file"
input:
  file: in.nq
assertions:
  - type: diagnostics
    count: 0
`), 0o644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "in.nq"), scenario.inputPath())
}

func TestLoadScenario_MissingInputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: missing
description: "input file does not exist"
input:
  file: nope.nq
assertions:
  - type: diagnostics
    count: 0
`), 0o644))

	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "input file")
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: d\ninput: {data: x}\nassertion: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			yaml:    "description: d\ninput: {data: x}\nassertions: [{type: diagnostics}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: x\ninput: {data: x}\nassertions: [{type: diagnostics}]\n",
			wantErr: "description is required",
		},
		{
			name:    "no input",
			yaml:    "name: x\ndescription: d\nassertions: [{type: diagnostics}]\n",
			wantErr: "exactly one of data and file",
		},
		{
			name:    "both data and file",
			yaml:    "name: x\ndescription: d\ninput: {data: x, file: y}\nassertions: [{type: diagnostics}]\n",
			wantErr: "exactly one of data and file",
		},
		{
			name:    "write-only input format",
			yaml:    "name: x\ndescription: d\ninput: {format: turtle, data: x}\nassertions: [{type: diagnostics}]\n",
			wantErr: "write-only",
		},
		{
			name:    "unknown transform",
			yaml:    "name: x\ndescription: d\ninput: {data: x}\ntransform: sorted\nassertions: [{type: diagnostics}]\n",
			wantErr: "unknown transform",
		},
		{
			name:    "write-only roundtrip",
			yaml:    "name: x\ndescription: d\ninput: {data: x}\nroundtrip: [trig]\nassertions: [{type: diagnostics}]\n",
			wantErr: "roundtrip[0]",
		},
		{
			name:    "no assertions",
			yaml:    "name: x\ndescription: d\ninput: {data: x}\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "unknown assertion type",
			yaml:    "name: x\ndescription: d\ninput: {data: x}\nassertions: [{type: trace_order}]\n",
			wantErr: "unknown assertion type",
		},
		{
			name:    "unknown kind",
			yaml:    "name: x\ndescription: d\ninput: {data: x}\nassertions: [{type: record_count, kind: Usage}]\n",
			wantErr: "unknown record kind",
		},
		{
			name:    "has_record without kind",
			yaml:    "name: x\ndescription: d\ninput: {data: x}\nassertions: [{type: has_record}]\n",
			wantErr: "kind is required",
		},
		{
			name:    "decode_error without contains",
			yaml:    "name: x\ndescription: d\ninput: {data: x}\nassertions: [{type: decode_error}]\n",
			wantErr: "contains is required",
		},
		{
			name:    "negative count",
			yaml:    "name: x\ndescription: d\ninput: {data: x}\nassertions: [{type: bundle_count, count: -1}]\n",
			wantErr: "non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenarios_Testdata(t *testing.T) {
	scenarios, err := LoadScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	names := make(map[string]bool)
	for _, s := range scenarios {
		assert.False(t, names[s.Name], "duplicate scenario name %s", s.Name)
		names[s.Name] = true
	}
}
