package ir

import (
	"fmt"
	"maps"
	"slices"
)

// Attribute is the O' attribute of an operation.
type Attribute string

const (
	AttrAssembler    Attribute = "A" // assembler or macro directive
	AttrExtended     Attribute = "E" // extended mnemonic
	AttrMacro        Attribute = "M" // macro defined in the source
	AttrOrdinary     Attribute = "O" // machine instruction
	AttrLibraryMacro Attribute = "S" // macro defined from a library member
	AttrUndefined    Attribute = "U" // undefined, unknown or deleted
)

// Recognition is the macro-definition state an operation field is recognized in.
type Recognition int

const (
	RecognizeNormal    Recognition = iota // outside any macro definition
	RecognizePrototype                    // the line following MACRO
	RecognizeBody                         // inside a macro body
	RecognizeRecovery                     // skipping to MEND after a bad definition
)

func (r Recognition) String() string {
	switch r {
	case RecognizeNormal:
		return "normal"
	case RecognizePrototype:
		return "prototype"
	case RecognizeBody:
		return "body"
	case RecognizeRecovery:
		return "recovery"
	default:
		return fmt.Sprintf("Recognition(%d)", int(r))
	}
}

// Location identifies a source line. Source is a file or library member name.
type Location struct {
	Source string `json:"source,omitempty"`
	Line   int    `json:"line"`
}

func (l Location) String() string {
	if l.Source == "" {
		return fmt.Sprintf("%d", l.Line)
	}
	return fmt.Sprintf("%s:%d", l.Source, l.Line)
}

// Payload is additional information attached to a Descriptor.
// Sealed: only *InstructionEntry, *MacroInfo and *LiteralRef implement it.
type Payload interface {
	isPayload()
}

// Descriptor is the result of resolving an operation field.
//
// A Descriptor is a value; copies are independent snapshots. Only macro
// descriptors are retained beyond the lookup that produced them (in the
// macro registry and in synonym snapshots).
type Descriptor struct {
	Name    string
	Kind    Kind
	Attr    Attribute
	Payload Payload
}

// Instruction returns the instruction payload, if any.
func (d Descriptor) Instruction() (*InstructionEntry, bool) {
	e, ok := d.Payload.(*InstructionEntry)
	return e, ok
}

// Macro returns the macro payload, if any.
func (d Descriptor) Macro() (*MacroInfo, bool) {
	m, ok := d.Payload.(*MacroInfo)
	return m, ok
}

// Literal returns the literal payload, if any.
func (d Descriptor) Literal() (*LiteralRef, bool) {
	l, ok := d.Payload.(*LiteralRef)
	return l, ok
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s kind=%s O'=%s", d.Name, d.Kind, d.Attr)
}

// InstructionEntry is the resolved machine-instruction metadata for a mnemonic.
// Entries are built once per mnemonic and never modified; accessors return copies.
type InstructionEntry struct {
	mnemonic string
	opcode   []int
	fixed    map[string]int
	filters  map[string]string
	extended bool
	format   string
	length   int
	operands []string
	types    []string
}

// InstructionSpec carries the values a new InstructionEntry is built from.
type InstructionSpec struct {
	Mnemonic     string
	Opcode       []int
	Fixed        map[string]int
	Filters      map[string]string
	Extended     bool
	Format       string
	Length       int
	Operands     []string
	OperandTypes []string
}

// NewInstructionEntry snapshots spec into an immutable entry.
func NewInstructionEntry(spec InstructionSpec) *InstructionEntry {
	return &InstructionEntry{
		mnemonic: spec.Mnemonic,
		opcode:   slices.Clone(spec.Opcode),
		fixed:    maps.Clone(spec.Fixed),
		filters:  maps.Clone(spec.Filters),
		extended: spec.Extended,
		format:   spec.Format,
		length:   spec.Length,
		operands: slices.Clone(spec.Operands),
		types:    slices.Clone(spec.OperandTypes),
	}
}

func (*InstructionEntry) isPayload() {}

func (e *InstructionEntry) Mnemonic() string           { return e.mnemonic }
func (e *InstructionEntry) Opcode() []int              { return slices.Clone(e.opcode) }
func (e *InstructionEntry) Fixed() map[string]int      { return maps.Clone(e.fixed) }
func (e *InstructionEntry) Filters() map[string]string { return maps.Clone(e.filters) }
func (e *InstructionEntry) Extended() bool             { return e.extended }
func (e *InstructionEntry) Format() string             { return e.format }
func (e *InstructionEntry) Length() int                { return e.length }
func (e *InstructionEntry) Operands() []string         { return slices.Clone(e.operands) }
func (e *InstructionEntry) OperandTypes() []string     { return slices.Clone(e.types) }

// NumOperands returns the number of source operands the format expects.
func (e *InstructionEntry) NumOperands() int { return len(e.types) }

// MacroInfo describes one macro definition.
type MacroInfo struct {
	Name      string
	Prototype string   // text of the prototype statement
	Body      []string // body lines in source order, MEND excluded
	DefinedAt Location // location of the prototype statement
	Library   bool     // defined from a library member
}

func (*MacroInfo) isPayload() {}

// LiteralRef identifies a literal being placed in a literal pool.
type LiteralRef struct {
	Text string   // literal as written, including the leading '='
	At   Location // first reference
}

func (*LiteralRef) isPayload() {}
