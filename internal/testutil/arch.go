package testutil

import (
	"testing"

	"github.com/roach88/asmop/internal/archdb"
)

// S370Catalog returns a small S/370 catalog shared by tests.
//
// CPUs: "s370" (every instruction below) and "s360-20" (LR AR BALR BR, no
// channels). BR and B are extended mnemonics.
func S370Catalog() *archdb.Catalog {
	cat := archdb.NewCatalog()

	rr := []archdb.Operand{{Name: "R1", Type: "R"}, {Name: "R2", Type: "R"}}
	cat.Formats["RR"] = archdb.FormatRecord{ID: "RR", Length: 2, Operands: rr}
	cat.Formats["RRb"] = archdb.FormatRecord{ID: "RRb", Length: 2, Operands: []archdb.Operand{{Name: "R2", Type: "R"}}}
	cat.Formats["RX"] = archdb.FormatRecord{ID: "RX", Length: 4, Operands: []archdb.Operand{{Name: "R1", Type: "R"}, {Name: "D2", Type: "SX"}}}
	cat.Formats["RXb"] = archdb.FormatRecord{ID: "RXb", Length: 4, Operands: []archdb.Operand{{Name: "D2", Type: "SX"}}}
	cat.Formats["SI"] = archdb.FormatRecord{ID: "SI", Length: 4, Operands: []archdb.Operand{{Name: "D1", Type: "S"}, {Name: "I2", Type: "I"}}}
	cat.Formats["RRE"] = archdb.FormatRecord{ID: "RRE", Length: 4, Operands: rr}

	add := func(rec archdb.InstructionRecord) {
		cat.Instructions[rec.Mnemonic] = rec
	}
	add(archdb.InstructionRecord{Mnemonic: "LR", Opcode: "18", Format: "RR"})
	add(archdb.InstructionRecord{Mnemonic: "AR", Opcode: "1A", Format: "RR"})
	add(archdb.InstructionRecord{Mnemonic: "BALR", Opcode: "05", Format: "RR"})
	add(archdb.InstructionRecord{Mnemonic: "BR", Opcode: "07", Format: "RRb", Extended: true, Fixed: map[string]int{"M1": 15}})
	add(archdb.InstructionRecord{Mnemonic: "L", Opcode: "58", Format: "RX"})
	add(archdb.InstructionRecord{Mnemonic: "ST", Opcode: "50", Format: "RX"})
	add(archdb.InstructionRecord{Mnemonic: "B", Opcode: "47", Format: "RXb", Extended: true, Fixed: map[string]int{"M1": 15}})
	add(archdb.InstructionRecord{Mnemonic: "BC", Opcode: "47", Format: "RX"})
	add(archdb.InstructionRecord{Mnemonic: "MVI", Opcode: "92", Format: "SI"})
	add(archdb.InstructionRecord{Mnemonic: "LURA", Opcode: "B24B", Format: "RRE", Filters: map[string]string{"R1": "NOP"}})

	cat.CPUs["s370"] = archdb.CPU{
		ID: "s370", AddrMax: 24, CCW: "CCW0", PSW: "PSWBC",
		Instructions: []string{"LR", "AR", "BALR", "BR", "L", "ST", "B", "BC", "MVI", "LURA"},
	}
	cat.CPUs["s360-20"] = archdb.CPU{
		ID: "s360-20", AddrMax: 16, PSW: "PSW360",
		Instructions: []string{"LR", "AR", "BALR", "BR"},
	}
	return cat
}

// S370 returns the expanded "s370" machine of S370Catalog.
func S370(t testing.TB) *archdb.Machine {
	t.Helper()
	m, err := S370Catalog().Machine("s370")
	if err != nil {
		t.Fatalf("expand s370: %v", err)
	}
	return m
}

// CountingDB wraps a Database and counts queries per key.
type CountingDB struct {
	archdb.Database
	InstructionCalls map[string]int
	FormatCalls      map[string]int
}

// NewCountingDB wraps db.
func NewCountingDB(db archdb.Database) *CountingDB {
	return &CountingDB{
		Database:         db,
		InstructionCalls: make(map[string]int),
		FormatCalls:      make(map[string]int),
	}
}

// Instruction implements archdb.Database.
func (c *CountingDB) Instruction(mnemonic string) (archdb.InstructionRecord, error) {
	c.InstructionCalls[mnemonic]++
	return c.Database.Instruction(mnemonic)
}

// Format implements archdb.Database.
func (c *CountingDB) Format(id string) (archdb.FormatRecord, error) {
	c.FormatCalls[id]++
	return c.Database.Format(id)
}
