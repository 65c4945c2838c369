// Package directive holds the static table of assembler and macro directives.
package directive

import (
	"sort"

	"github.com/roach88/asmop/internal/ir"
)

// LineError is the operation name of the logical-line error pseudo-directive.
const LineError = "?"

// Entry is one directive definition.
type Entry struct {
	Name string
	Kind ir.Kind
	Attr ir.Attribute
}

// Table maps directive names to their definitions. It is populated once by
// New and never modified.
type Table struct {
	entries map[string]Entry
}

// assembler lists the assembler directives by name. CCW is the generic
// channel command word directive and defaults to the format-0 variant.
var assembler = []struct {
	name string
	kind ir.Kind
}{
	{"AMODE", ir.KindAMODE},
	{"ATRACEOFF", ir.KindATRACEOFF},
	{"ATRACEON", ir.KindATRACEON},
	{"CCW", ir.KindCCW0},
	{"CCW0", ir.KindCCW0},
	{"CCW1", ir.KindCCW1},
	{"CNOP", ir.KindCNOP},
	{"COPY", ir.KindCOPY},
	{"CSECT", ir.KindCSECT},
	{"DC", ir.KindDC},
	{"DROP", ir.KindDROP},
	{"DS", ir.KindDS},
	{"DSECT", ir.KindDSECT},
	{"EJECT", ir.KindEJECT},
	{"END", ir.KindEND},
	{"ENTRY", ir.KindENTRY},
	{"EQU", ir.KindEQU},
	{"LTORG", ir.KindLTORG},
	{"MACRO", ir.KindMACRO},
	{"MHELP", ir.KindMHELP},
	{"MNOTE", ir.KindMNOTE},
	{"OPSYN", ir.KindOPSYN},
	{"ORG", ir.KindORG},
	{"POP", ir.KindPOP},
	{"PRINT", ir.KindPRINT},
	{"PSWS", ir.KindPSWS},
	{"PSW360", ir.KindPSW360},
	{"PSW67", ir.KindPSW67},
	{"PSWBC", ir.KindPSWBC},
	{"PSWEC", ir.KindPSWEC},
	{"PSW380", ir.KindPSW380},
	{"PSWXA", ir.KindPSWXA},
	{"PSWE370", ir.KindPSWE370},
	{"PSWE390", ir.KindPSWE390},
	{"PSWZ", ir.KindPSWZ},
	{"PSWZS", ir.KindPSWZS},
	{"PUSH", ir.KindPUSH},
	{"REGION", ir.KindREGION},
	{"RMODE", ir.KindRMODE},
	{"SPACE", ir.KindSPACE},
	{"START", ir.KindSTART},
	{"TITLE", ir.KindTITLE},
	{"USING", ir.KindUSING},
	{"XMODE", ir.KindXMODE},
}

// macroDirectives lists the macro-language directives.
var macroDirectives = []ir.Kind{
	ir.KindACTR,
	ir.KindAGO,
	ir.KindAIF,
	ir.KindANOP,
	ir.KindGBLA,
	ir.KindGBLB,
	ir.KindGBLC,
	ir.KindLCLA,
	ir.KindLCLB,
	ir.KindLCLC,
	ir.KindMEND,
	ir.KindSETA,
	ir.KindSETB,
	ir.KindSETC,
	ir.KindMEXIT,
}

// New builds the directive table.
func New() *Table {
	t := &Table{entries: make(map[string]Entry, len(assembler)+len(macroDirectives)+1)}
	for _, d := range assembler {
		t.define(d.name, d.kind, ir.AttrAssembler)
	}
	for _, k := range macroDirectives {
		t.define(ir.KindInfo(k).Name, k, ir.AttrAssembler)
	}
	t.define(LineError, ir.KindLineError, ir.AttrUndefined)
	return t
}

func (t *Table) define(name string, kind ir.Kind, attr ir.Attribute) {
	t.entries[name] = Entry{Name: name, Kind: kind, Attr: attr}
}

// Lookup returns a fresh descriptor for the named directive.
func (t *Table) Lookup(name string) (ir.Descriptor, bool) {
	e, ok := t.entries[name]
	if !ok {
		return ir.Descriptor{}, false
	}
	return ir.Descriptor{Name: e.Name, Kind: e.Kind, Attr: e.Attr}, true
}

// LookupBody returns the named directive only if it is recognized inside a
// macro body.
func (t *Table) LookupBody(name string) (ir.Descriptor, bool) {
	d, ok := t.Lookup(name)
	if !ok || !ir.KindInfo(d.Kind).BodyStructural() {
		return ir.Descriptor{}, false
	}
	return d, true
}

// Names returns every directive name in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.entries))
	for n := range t.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
