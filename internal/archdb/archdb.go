// Package archdb provides the architecture database queried during
// operation-field resolution.
//
// A Catalog holds the instruction, format and CPU definitions of a machine
// family as loaded from a CUE or YAML document (or from the SQLite store).
// Catalog.Machine expands one CPU into a Database: the query interface the
// instruction cache consumes. Database implementations return raw records;
// building resolution metadata from them is the cache's job.
package archdb

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrNotFound is returned when an instruction or format is not defined.
var ErrNotFound = errors.New("not defined in architecture database")

// Database is the query interface of one expanded CPU.
type Database interface {
	// Instruction returns the raw record of mnemonic (upper case).
	// Returns ErrNotFound if the CPU does not support the mnemonic.
	Instruction(mnemonic string) (InstructionRecord, error)

	// Format returns the format record with the given id.
	// Returns ErrNotFound if the format is not defined.
	Format(id string) (FormatRecord, error)

	// Defaults returns values derived from the CPU definition.
	Defaults() Defaults
}

// Defaults are the CPU-derived values that seed assembler state.
type Defaults struct {
	CPU     string `json:"cpu"`
	AddrMax int    `json:"addrmax"` // maximum address size in bits
	CCW     string `json:"ccw"`     // expected CCW format, empty if the CPU has no channels
	PSW     string `json:"psw"`     // expected PSW format
}

// InstructionRecord is an instruction definition as stored in the database.
type InstructionRecord struct {
	Mnemonic string            `json:"mnemonic" yaml:"-"`
	Opcode   string            `json:"opcode" yaml:"opcode"` // hex digits: OP then optional OPX
	Format   string            `json:"format" yaml:"format"`
	Extended bool              `json:"extended,omitempty" yaml:"extended,omitempty"`
	Fixed    map[string]int    `json:"fixed,omitempty" yaml:"fixed,omitempty"`
	Filters  map[string]string `json:"filters,omitempty" yaml:"filters,omitempty"`
}

// OpcodeParts splits the hex opcode into its OP and, when present, OPX parts.
// The first two digits are OP; any remaining digits are OPX.
func (r InstructionRecord) OpcodeParts() ([]int, error) {
	if len(r.Opcode) < 2 || len(r.Opcode) > 4 {
		return nil, fmt.Errorf("instruction %s: opcode %q must have 2 to 4 hex digits", r.Mnemonic, r.Opcode)
	}
	op, err := strconv.ParseUint(r.Opcode[:2], 16, 8)
	if err != nil {
		return nil, fmt.Errorf("instruction %s: opcode %q: %w", r.Mnemonic, r.Opcode, err)
	}
	parts := []int{int(op)}
	if len(r.Opcode) > 2 {
		opx, err := strconv.ParseUint(r.Opcode[2:], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("instruction %s: opcode %q: %w", r.Mnemonic, r.Opcode, err)
		}
		parts = append(parts, int(opx))
	}
	return parts, nil
}

// Operand is one source operand of a format.
type Operand struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// FormatRecord is an instruction format definition.
type FormatRecord struct {
	ID       string    `json:"id" yaml:"-"`
	Length   int       `json:"length" yaml:"length"`
	Operands []Operand `json:"operands" yaml:"operands"`
}

// OperandNames returns the source operand names in sequence.
func (f FormatRecord) OperandNames() []string {
	out := make([]string, len(f.Operands))
	for i, o := range f.Operands {
		out[i] = o.Name
	}
	return out
}

// OperandTypes returns the source operand types in sequence.
func (f FormatRecord) OperandTypes() []string {
	out := make([]string, len(f.Operands))
	for i, o := range f.Operands {
		out[i] = o.Type
	}
	return out
}

// CPU is a processor definition: defaults plus the supported mnemonics.
type CPU struct {
	ID           string   `json:"id" yaml:"-"`
	AddrMax      int      `json:"addrmax" yaml:"addrmax"`
	CCW          string   `json:"ccw,omitempty" yaml:"ccw,omitempty"`
	PSW          string   `json:"psw" yaml:"psw"`
	Instructions []string `json:"instructions" yaml:"instructions"`
}
