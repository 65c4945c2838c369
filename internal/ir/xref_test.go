package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXRef_DefineAndReferenceOrder(t *testing.T) {
	x := NewXRef()
	x.Define(Location{Line: 10})
	x.Reference(Location{Line: 4})
	x.Define(Location{Line: 20})

	m := x.Markers()
	require.Len(t, m, 3)
	assert.Equal(t, Marker{At: Location{Line: 10}, Flag: FlagDefinition}, m[0])
	assert.Equal(t, Marker{At: Location{Line: 4}, Flag: FlagReference}, m[1])
	assert.Equal(t, Marker{At: Location{Line: 20}, Flag: FlagDefinition}, m[2])

	sorted := x.Sorted()
	assert.Equal(t, 4, sorted[0].At.Line)
	assert.Equal(t, 10, sorted[1].At.Line)
	assert.Equal(t, 20, sorted[2].At.Line)
}

func TestXRef_UndefineRemovesFirstOnly(t *testing.T) {
	x := NewXRef()
	x.Undefine() // empty tracker is a no-op

	x.Define(Location{Source: "BAR.mac", Line: 2})
	x.Reference(Location{Line: 7})
	x.Undefine()

	require.Equal(t, 1, x.Len())
	assert.Equal(t, Location{Line: 7}, x.Markers()[0].At)
}

func TestXRef_MarkersIsACopy(t *testing.T) {
	x := NewXRef()
	x.Define(Location{Line: 1})
	m := x.Markers()
	m[0].Flag = 'X'
	assert.Equal(t, rune(FlagDefinition), x.Markers()[0].Flag)
}
