package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes content as test.yaml next to a copy of the s370 catalog.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	data, err := os.ReadFile(filepath.Join("..", "archdb", "testdata", "s370.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s370.yaml"), data, 0644))

	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
arch: s370.yaml
cpu: s370
maclib: [macros]
modes:
  PSW: XA
source: |
           LR    1,2
assertions:
  - type: line_kind
    line: 1
    kind: machine
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, filepath.Join(dir, "s370.yaml"), scenario.Arch)
	assert.Equal(t, []string{filepath.Join(dir, "macros")}, scenario.Maclib)
	assert.Equal(t, "XA", scenario.Modes["PSW"])
	assert.Len(t, scenario.Assertions, 1)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "misspelled assertions key"
arch: s370.yaml
cpu: s370
source: "         LR 1,2\n"
assertion:
  - type: error_count
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing name",
			body:    "description: d\narch: s370.yaml\ncpu: s370\nsource: x\nassertions: [{type: error_count}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing arch file",
			body:    "name: n\ndescription: d\narch: nope.yaml\ncpu: s370\nsource: x\nassertions: [{type: error_count}]\n",
			wantErr: "architecture database not found",
		},
		{
			name:    "missing cpu",
			body:    "name: n\ndescription: d\narch: s370.yaml\nsource: x\nassertions: [{type: error_count}]\n",
			wantErr: "cpu is required",
		},
		{
			name:    "no assertions",
			body:    "name: n\ndescription: d\narch: s370.yaml\ncpu: s370\nsource: x\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "unknown assertion type",
			body:    "name: n\ndescription: d\narch: s370.yaml\ncpu: s370\nsource: x\nassertions: [{type: trace_contains}]\n",
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name:    "unknown kind",
			body:    "name: n\ndescription: d\narch: s370.yaml\ncpu: s370\nsource: x\nassertions: [{type: line_kind, line: 1, kind: bogus}]\n",
			wantErr: `unknown kind "bogus"`,
		},
		{
			name:    "line_kind without line",
			body:    "name: n\ndescription: d\narch: s370.yaml\ncpu: s370\nsource: x\nassertions: [{type: line_kind, kind: machine}]\n",
			wantErr: "line and kind are required",
		},
		{
			name:    "synonym without state",
			body:    "name: n\ndescription: d\narch: s370.yaml\ncpu: s370\nsource: x\nassertions: [{type: synonym, alias: X}]\n",
			wantErr: "alias and state are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_Testdata(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, err := LoadScenario(path)
			require.NoError(t, err)
		})
	}
}
