package insncache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/asmop/internal/archdb"
	"github.com/roach88/asmop/internal/ir"
	"github.com/roach88/asmop/internal/testutil"
)

func TestCache_RepeatLookupIsReferenceIdentical(t *testing.T) {
	db := testutil.NewCountingDB(testutil.S370(t))
	c := New(db)

	first, err := c.Lookup("LR")
	require.NoError(t, err)
	second, err := c.Lookup("lr")
	require.NoError(t, err)
	third, err := c.Lookup("Lr")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Same(t, first, third)
	assert.Equal(t, 1, db.InstructionCalls["LR"])
	assert.Equal(t, 1, db.FormatCalls["RR"])
	assert.Equal(t, 1, c.Len())
}

func TestCache_EntryContents(t *testing.T) {
	c := New(testutil.S370(t))

	br, err := c.Lookup("BR")
	require.NoError(t, err)
	assert.Equal(t, "BR", br.Mnemonic())
	assert.Equal(t, []int{0x07}, br.Opcode())
	assert.True(t, br.Extended())
	assert.Equal(t, map[string]int{"M1": 15}, br.Fixed())
	assert.Equal(t, "RRb", br.Format())
	assert.Equal(t, 2, br.Length())
	assert.Equal(t, 1, br.NumOperands())
	assert.Equal(t, []string{"R"}, br.OperandTypes())

	lura, err := c.Lookup("LURA")
	require.NoError(t, err)
	assert.Equal(t, []int{0xB2, 0x4B}, lura.Opcode())
	assert.Equal(t, map[string]string{"R1": "NOP"}, lura.Filters())
	assert.Equal(t, []string{"R1", "R2"}, lura.Operands())
	assert.Equal(t, 4, lura.Length())
}

func TestCache_MissIsNotFoundAndQueriedOnce(t *testing.T) {
	db := testutil.NewCountingDB(testutil.S370(t))
	c := New(db)

	_, err := c.Lookup("DC")
	require.Error(t, err)
	assert.True(t, ir.IsNotFound(err))

	_, err = c.Lookup("DC")
	assert.True(t, ir.IsNotFound(err))
	assert.Equal(t, 1, db.InstructionCalls["DC"])
	assert.Equal(t, 0, c.Len())
}

func TestCache_MissingFormatIsConsistencyFault(t *testing.T) {
	cat := testutil.S370Catalog()
	cat.Instructions["XX"] = archdb.InstructionRecord{Mnemonic: "XX", Opcode: "FF", Format: "ZZ"}
	cpu := cat.CPUs["s370"]
	cpu.Instructions = append(cpu.Instructions, "XX")
	cat.CPUs["s370"] = cpu
	m, err := cat.Machine("s370")
	require.NoError(t, err)

	_, err = New(m).Lookup("XX")
	require.Error(t, err)
	assert.True(t, ir.IsFatal(err))
	assert.True(t, errors.Is(err, archdb.ErrNotFound), "cause is preserved")
	assert.Contains(t, err.Error(), `format "ZZ"`)
}

func TestCache_BadOpcodeIsConsistencyFault(t *testing.T) {
	cat := testutil.S370Catalog()
	rec := cat.Instructions["LR"]
	rec.Opcode = "QQ"
	cat.Instructions["LR"] = rec
	m, err := cat.Machine("s370")
	require.NoError(t, err)

	_, err = New(m).Lookup("LR")
	assert.True(t, ir.IsFatal(err))
}

type failingDB struct{ archdb.Database }

func (failingDB) Instruction(string) (archdb.InstructionRecord, error) {
	return archdb.InstructionRecord{}, errors.New("disk on fire")
}

func TestCache_QueryFailureIsConsistencyFault(t *testing.T) {
	_, err := New(failingDB{testutil.S370(t)}).Lookup("LR")
	assert.True(t, ir.IsFatal(err))
	assert.Contains(t, err.Error(), "disk on fire")
}
