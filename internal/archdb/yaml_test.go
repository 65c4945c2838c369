package archdb

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadYAML(t *testing.T) {
	cat, err := LoadYAML(filepath.Join("testdata", "s370.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []string{"s360-20", "s370"}, cat.CPUNames())
	assert.Len(t, cat.Formats, 6)
	assert.Len(t, cat.Instructions, 10)

	br := cat.Instructions["BR"]
	assert.Equal(t, "BR", br.Mnemonic)
	assert.True(t, br.Extended)
	assert.Equal(t, map[string]int{"M1": 15}, br.Fixed)
	assert.Equal(t, "RRb", br.Format)

	rx := cat.Formats["RX"]
	assert.Equal(t, "RX", rx.ID)
	assert.Equal(t, []string{"R1", "D2"}, rx.OperandNames())
	assert.Equal(t, []string{"R", "SX"}, rx.OperandTypes())

	assert.Empty(t, cat.Validate())
}

func TestParseYAML_RejectsUnknownFields(t *testing.T) {
	_, err := ParseYAML([]byte("cpus: {}\nformat: {}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadYAML_MissingFile(t *testing.T) {
	_, err := LoadYAML(filepath.Join("testdata", "nope.yaml"))
	require.Error(t, err)
}

func TestMachine_Expand(t *testing.T) {
	cat, err := LoadYAML(filepath.Join("testdata", "s370.yaml"))
	require.NoError(t, err)

	m, err := cat.Machine("s360-20")
	require.NoError(t, err)
	assert.Equal(t, Defaults{CPU: "s360-20", AddrMax: 16, PSW: "PSW360"}, m.Defaults())
	assert.Equal(t, []string{"AR", "BALR", "BR", "LR"}, m.Mnemonics())

	_, err = m.Instruction("L")
	assert.True(t, errors.Is(err, ErrNotFound), "L is not a 360/20 instruction")

	rec, err := m.Instruction("LR")
	require.NoError(t, err)
	assert.Equal(t, "18", rec.Opcode)

	f, err := m.Format("RR")
	require.NoError(t, err)
	assert.Equal(t, 2, f.Length)

	_, err = m.Format("QQ")
	assert.True(t, errors.Is(err, ErrNotFound))

	s370, err := cat.Machine("s370")
	require.NoError(t, err)
	assert.Equal(t, "CCW0", s370.Defaults().CCW, "defaults are upper-cased")

	_, err = cat.Machine("s390")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s360-20, s370")
}
