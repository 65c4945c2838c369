package maclib

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/asmop/internal/engine"
	"github.com/roach88/asmop/internal/ir"
	"github.com/roach88/asmop/internal/scan"
	"github.com/roach88/asmop/internal/testutil"
)

func setupTestLoader(t *testing.T, dirs ...string) (*engine.Engine, *Loader) {
	t.Helper()
	eng, err := engine.New(testutil.S370(t), engine.WithRunID(testutil.NewFixedRunID("")))
	require.NoError(t, err)
	if len(dirs) == 0 {
		dirs = []string{"testdata"}
	}
	return eng, New(eng, dirs)
}

func libraryError(t *testing.T, err error) *ir.Error {
	t.Helper()
	require.Error(t, err)
	require.True(t, ir.IsLibraryLoad(err), "got %v", err)
	var e *ir.Error
	require.ErrorAs(t, err, &e)
	return e
}

func TestLoader_Member(t *testing.T) {
	_, l := setupTestLoader(t)

	path, err := l.Member("GETR")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "getr.mac"), path)

	path, err = l.Member("PUTR")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "PUTR.MAC"), path)

	_, err = l.Member("NOSUCH")
	assert.ErrorContains(t, err, "member NOSUCH not found")
}

func TestLoader_SearchOrder(t *testing.T) {
	first := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(first, "getr.mac"),
		[]byte("         MACRO\n         GETR\n         MEND\n"), 0o644))

	_, l := setupTestLoader(t, first, "testdata")
	path, err := l.Member("GETR")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(first, "getr.mac"), path)
}

func TestLoader_LoadMacro(t *testing.T) {
	eng, l := setupTestLoader(t)

	require.NoError(t, l.LoadMacro(context.Background(), "GETR"))

	d, ok := eng.Registry().Lookup("GETR")
	require.True(t, ok)
	assert.Equal(t, ir.AttrLibraryMacro, d.Attr)

	m, _ := d.Macro()
	assert.True(t, m.Library)
	assert.Equal(t, ir.Location{Source: "getr.mac", Line: 3}, m.DefinedAt)
	assert.Len(t, m.Body, 3)
}

func TestLoader_MemberWithSeveralMacros(t *testing.T) {
	eng, l := setupTestLoader(t)

	require.NoError(t, l.LoadMacro(context.Background(), "PUTR"))
	assert.Equal(t, []string{"PUTHELP", "PUTR"}, eng.Registry().Names())

	d, _ := eng.Registry().Lookup("PUTR")
	m, _ := d.Macro()
	assert.Equal(t, []string{"&L       LA    1,&FILE"}, m.Body)

	for _, name := range []string{"PUTR", "PUTHELP"} {
		entry, ok := eng.Registry().Entry(name)
		require.True(t, ok)
		assert.Empty(t, entry.XRef.Markers(), "%s history has no member lines", name)
	}
}

func TestLoader_LibrarySiblingKeepsSourceHistory(t *testing.T) {
	eng, l := setupTestLoader(t)
	src := ir.Location{Source: "main.asm", Line: 2}
	eng.Registry().Define(&ir.MacroInfo{Name: "PUTHELP", DefinedAt: src})

	require.NoError(t, l.LoadMacro(context.Background(), "PUTR"))

	entry, ok := eng.Registry().Entry("PUTHELP")
	require.True(t, ok)
	markers := entry.XRef.Markers()
	require.Len(t, markers, 1)
	assert.Equal(t, src, markers[0].At)
	assert.Equal(t, ir.FlagDefinition, markers[0].Flag)
	assert.Equal(t, ir.AttrLibraryMacro, entry.Descriptor.Attr)
}

func TestLoader_Failures(t *testing.T) {
	tests := []struct {
		name    string
		macro   string
		line    int // 0 when the failure has no member line
		message string
	}{
		{"missing member", "NOSUCH", 0, "not found in library path"},
		{"wrong macro", "WRONG", 0, "does not define macro WRONG"},
		{"unterminated", "OPEN", 1, "not terminated by MEND"},
		{"statement outside definition", "STRAY", 4, "outside macro definition"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, l := setupTestLoader(t)

			e := libraryError(t, l.LoadMacro(context.Background(), tt.macro))
			assert.Equal(t, tt.macro, e.Name)
			assert.ErrorContains(t, e, tt.message)
			if tt.line == 0 {
				assert.Nil(t, e.Member)
			} else {
				require.NotNil(t, e.Member)
				assert.Equal(t, tt.line, e.Member.Line)
			}
			assert.Equal(t, 0, eng.Registry().Len(), "failed load leaves the registry unchanged")
		})
	}
}

func TestLoader_ResolveThroughEngine(t *testing.T) {
	eng, _ := setupTestLoader(t)
	src := strings.Join([]string{
		"         GETR  INFILE",
		"         GETR  INFILE",
		"         WRONG",
	}, "\n")

	res, err := scan.New(eng).Run(context.Background(), strings.NewReader(src), "main.asm")
	require.NoError(t, err)

	assert.Equal(t, ir.KindMacroCall, res.Lines[0].Descriptor.Kind)
	assert.Equal(t, ir.AttrLibraryMacro, res.Lines[0].Descriptor.Attr)
	assert.NoError(t, res.Lines[1].Err)

	// The library definition line is not in the history; both references are.
	entry, ok := eng.Registry().Entry("GETR")
	require.True(t, ok)
	markers := entry.XRef.Markers()
	require.Len(t, markers, 2)
	assert.Equal(t, ir.Location{Source: "main.asm", Line: 1}, markers[0].At)
	assert.Equal(t, ir.FlagReference, markers[0].Flag)

	// A failed load is attributed to the referencing line.
	e := libraryError(t, res.Lines[2].Err)
	require.NotNil(t, e.At)
	assert.Equal(t, ir.Location{Source: "main.asm", Line: 3}, *e.At)
	assert.Nil(t, e.Member)
}
