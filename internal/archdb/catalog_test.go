package archdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpcodeParts(t *testing.T) {
	tests := []struct {
		opcode  string
		want    []int
		wantErr bool
	}{
		{"18", []int{0x18}, false},
		{"B24B", []int{0xB2, 0x4B}, false},
		{"A70", []int{0xA7, 0x0}, false},
		{"1", nil, true},
		{"B2222", nil, true},
		{"G1", nil, true},
		{"B2ZZ", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.opcode, func(t *testing.T) {
			got, err := InstructionRecord{Mnemonic: "X", Opcode: tt.opcode}.OpcodeParts()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalog_Validate(t *testing.T) {
	cat := NewCatalog()
	cat.Formats["RR"] = FormatRecord{ID: "RR", Length: 2}
	cat.Formats["ODD"] = FormatRecord{ID: "ODD", Length: 3}
	cat.Instructions["LR"] = InstructionRecord{Mnemonic: "LR", Opcode: "18", Format: "RR"}
	cat.Instructions["XX"] = InstructionRecord{Mnemonic: "XX", Opcode: "Z", Format: "NOPE"}
	cat.CPUs["c"] = CPU{ID: "c", Instructions: []string{"LR", "YY"}}

	errs := cat.Validate()
	require.Len(t, errs, 5)
	assert.Contains(t, errs[0].Error(), `instruction XX: format "NOPE" not defined`)
	assert.Contains(t, errs[1].Error(), "opcode")
	assert.Contains(t, errs[2].Error(), "psw format is required")
	assert.Contains(t, errs[3].Error(), `instruction "YY" not defined`)
	assert.Contains(t, errs[4].Error(), "format ODD: length 3")
}

func TestCatalog_MachineRejectsUnknownInstruction(t *testing.T) {
	cat := NewCatalog()
	cat.CPUs["c"] = CPU{ID: "c", PSW: "PSWZ", Instructions: []string{"LR"}}
	_, err := cat.Machine("c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `instruction "LR" not defined`)
}
