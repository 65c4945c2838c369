package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testArchYAML = filepath.Join("..", "archdb", "testdata", "s370.yaml")
	testArchCUE  = filepath.Join("..", "archdb", "testdata", "s370.cue")
	testMaclib   = filepath.Join("..", "maclib", "testdata")
)

func writeSource(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.asm")
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

func executeClassify(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewClassifyCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestClassifyClean(t *testing.T) {
	src := writeSource(t, "MAIN     CSECT\n         LR    1,2\n         BR    14\n         END\n")

	out, err := executeClassify(t, "text", "--arch", testArchYAML, "--cpu", "s370", src)
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.Contains(t, lines[0], "CSECT")
	assert.Contains(t, lines[1], "machine")
	assert.Contains(t, lines[1], " O LR")
	assert.Contains(t, lines[2], " E BR")
	assert.Contains(t, out, "1 sources, 0 diagnostics")
}

func TestClassifyDiagnostics(t *testing.T) {
	src := writeSource(t, "         FROB  1\n         LR    1,2\n")

	out, err := executeClassify(t, "text", "--arch", testArchYAML, "--cpu", "s370", src)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "error: NOT_FOUND")
	assert.Contains(t, out, "1 diagnostics")
}

func TestClassifyMacroLibrary(t *testing.T) {
	src := writeSource(t, "         GETR  IN\n         PUTR  OUT\n         PUTHELP\n")

	_, err := executeClassify(t, "text", "--arch", testArchYAML, "--cpu", "s370", src)
	require.Error(t, err, "no library: both lines undefined")

	out, err := executeClassify(t, "text", "--arch", testArchYAML, "--cpu", "s370", "--maclib", testMaclib, src)
	require.NoError(t, err)
	assert.Contains(t, out, "macro_call       S GETR")
	assert.Contains(t, out, "macro_call       S PUTHELP")
}

func TestClassifyModeOverride(t *testing.T) {
	src := writeSource(t, "         PSW   0,0\n")

	out, err := executeClassify(t, "text", "--arch", testArchCUE, "--cpu", "s370", "--psw", "XA", src)
	require.NoError(t, err)
	assert.Contains(t, out, "PSWXA")

	_, err = executeClassify(t, "text", "--arch", testArchCUE, "--cpu", "s370", "--psw", "PSW99", src)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to create engine")
}

func TestClassifySourcesShareState(t *testing.T) {
	dir := t.TempDir()
	defs := filepath.Join(dir, "defs.asm")
	use := filepath.Join(dir, "use.asm")
	require.NoError(t, os.WriteFile(defs, []byte("COPYR    OPSYN LR\n"), 0644))
	require.NoError(t, os.WriteFile(use, []byte("         COPYR 1,2\n"), 0644))

	out, err := executeClassify(t, "text", "--arch", testArchYAML, "--cpu", "s370", defs, use)
	require.NoError(t, err)
	assert.Contains(t, out, "2 sources, 0 diagnostics")
}

func TestClassifyStdin(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewClassifyCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetIn(strings.NewReader("         AR    1,2\n"))
	cmd.SetArgs([]string{"--arch", testArchYAML, "--cpu", "s370", "-"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "stdin:1")
}

func TestClassifyJSON(t *testing.T) {
	src := writeSource(t, "         LR    1,2\n         FROB\n")

	out, err := executeClassify(t, "json", "--arch", testArchYAML, "--cpu", "s370", src)
	require.Error(t, err)

	var resp struct {
		Status string         `json:"status"`
		RunID  string         `json:"run_id"`
		Data   []SourceResult `json:"data"`
		Error  *CLIError      `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.NotEmpty(t, resp.RunID)
	require.Len(t, resp.Data, 1)
	require.Len(t, resp.Data[0].Lines, 2)
	assert.Equal(t, "machine", resp.Data[0].Lines[0]["kind"])
	assert.Equal(t, "RR", resp.Data[0].Lines[0]["format"])
	assert.Equal(t, 1, resp.Data[0].Errors)
	assert.Equal(t, "E_CLASSIFY", resp.Error.Code)
}

func TestClassifyCommandErrors(t *testing.T) {
	src := writeSource(t, "         LR    1,2\n")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing arch", []string{"--cpu", "s370", src}, `required flag(s) "arch" not set`},
		{"unknown cpu", []string{"--arch", testArchYAML, "--cpu", "s390", src}, "failed to open architecture database"},
		{"missing source", []string{"--arch", testArchYAML, "--cpu", "s370", "nope.asm"}, "classify nope.asm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeClassify(t, "text", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
