package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/asmop/internal/ir"
)

func TestTable_Lookup(t *testing.T) {
	tbl := New()

	d, ok := tbl.Lookup("USING")
	require.True(t, ok)
	assert.Equal(t, ir.Descriptor{Name: "USING", Kind: ir.KindUSING, Attr: ir.AttrAssembler}, d)

	d, ok = tbl.Lookup("CCW")
	require.True(t, ok)
	assert.Equal(t, ir.KindCCW0, d.Kind, "generic CCW is the format-0 directive")

	d, ok = tbl.Lookup("?")
	require.True(t, ok)
	assert.Equal(t, ir.KindLineError, d.Kind)

	_, ok = tbl.Lookup("PSW")
	assert.False(t, ok, "generic PSW only resolves through a mode mapping")

	_, ok = tbl.Lookup("using")
	assert.False(t, ok, "names are stored upper case")
}

func TestTable_LookupBody(t *testing.T) {
	tbl := New()

	for _, name := range []string{"ACTR", "AGO", "AIF", "ANOP", "GBLA", "LCLC", "SETC", "MEXIT", "MEND"} {
		_, ok := tbl.LookupBody(name)
		assert.True(t, ok, name)
	}
	for _, name := range []string{"MACRO", "DC", "USING", "MNOTE", "COPY", "LR"} {
		_, ok := tbl.LookupBody(name)
		assert.False(t, ok, name)
	}
}

func TestTable_EveryKindHasADirectiveName(t *testing.T) {
	tbl := New()
	names := tbl.Names()
	assert.Contains(t, names, "XMODE")
	assert.Contains(t, names, "MEXIT")
	assert.Len(t, names, 44+15+1)

	for _, k := range ir.Kinds() {
		class := ir.KindInfo(k).Class
		if class != ir.ClassAssembler && !ir.KindInfo(k).BodyStructural() {
			continue
		}
		_, ok := tbl.Lookup(ir.KindInfo(k).Name)
		assert.True(t, ok, "kind %s has no directive", k)
	}
}
