package ir

import "fmt"

// Kind identifies the statement kind an operation field selects.
type Kind int

// Statement kinds. The set is closed; downstream construction switches on
// KindInfo(k).Class rather than on open-ended types.
const (
	KindUnknown Kind = iota

	KindComment
	KindLineError
	KindLiteral
	KindMacroCall
	KindPrototype
	KindModel
	KindMachine

	// Assembler directives.
	KindAMODE
	KindATRACEOFF
	KindATRACEON
	KindCCW0
	KindCCW1
	KindCNOP
	KindCOPY
	KindCSECT
	KindDC
	KindDROP
	KindDS
	KindDSECT
	KindEJECT
	KindEND
	KindENTRY
	KindEQU
	KindLTORG
	KindMACRO
	KindMHELP
	KindMNOTE
	KindOPSYN
	KindORG
	KindPOP
	KindPRINT
	KindPSWS
	KindPSW360
	KindPSW67
	KindPSWBC
	KindPSWEC
	KindPSW380
	KindPSWXA
	KindPSWE370
	KindPSWE390
	KindPSWZ
	KindPSWZS
	KindPUSH
	KindREGION
	KindRMODE
	KindSPACE
	KindSTART
	KindTITLE
	KindUSING
	KindXMODE

	// Macro directives.
	KindACTR
	KindAGO
	KindAIF
	KindANOP
	KindGBLA
	KindGBLB
	KindGBLC
	KindLCLA
	KindLCLB
	KindLCLC
	KindSETA
	KindSETB
	KindSETC
	KindMEXIT
	KindMEND

	kindCount
)

// Class groups kinds by how downstream construction treats them.
type Class string

const (
	ClassNone      Class = "none"
	ClassComment   Class = "comment"
	ClassError     Class = "error"
	ClassLiteral   Class = "literal"
	ClassMacro     Class = "macro"
	ClassPrototype Class = "prototype"
	ClassModel     Class = "model"
	ClassMachine   Class = "machine"
	ClassAssembler Class = "assembler"

	// Macro-language classes. Only these are recognized inside a macro body.
	ClassLoop    Class = "loop"    // ACTR
	ClassBranch  Class = "branch"  // AGO AIF ANOP
	ClassDeclare Class = "declare" // GBLx LCLx
	ClassAssign  Class = "assign"  // SETx
	ClassExit    Class = "exit"    // MEXIT
	ClassEnd     Class = "end"     // MEND
)

// Info describes a Kind.
type Info struct {
	Name  string
	Class Class
}

// BodyStructural reports whether statements of this kind are recognized
// while a macro body is being scanned.
func (i Info) BodyStructural() bool {
	switch i.Class {
	case ClassLoop, ClassBranch, ClassDeclare, ClassAssign, ClassExit, ClassEnd:
		return true
	}
	return false
}

var kindInfo = [kindCount]Info{
	KindUnknown:   {"unknown", ClassNone},
	KindComment:   {"comment", ClassComment},
	KindLineError: {"line_error", ClassError},
	KindLiteral:   {"literal", ClassLiteral},
	KindMacroCall: {"macro_call", ClassMacro},
	KindPrototype: {"macro_prototype", ClassPrototype},
	KindModel:     {"model", ClassModel},
	KindMachine:   {"machine", ClassMachine},

	KindAMODE:     {"AMODE", ClassAssembler},
	KindATRACEOFF: {"ATRACEOFF", ClassAssembler},
	KindATRACEON:  {"ATRACEON", ClassAssembler},
	KindCCW0:      {"CCW0", ClassAssembler},
	KindCCW1:      {"CCW1", ClassAssembler},
	KindCNOP:      {"CNOP", ClassAssembler},
	KindCOPY:      {"COPY", ClassAssembler},
	KindCSECT:     {"CSECT", ClassAssembler},
	KindDC:        {"DC", ClassAssembler},
	KindDROP:      {"DROP", ClassAssembler},
	KindDS:        {"DS", ClassAssembler},
	KindDSECT:     {"DSECT", ClassAssembler},
	KindEJECT:     {"EJECT", ClassAssembler},
	KindEND:       {"END", ClassAssembler},
	KindENTRY:     {"ENTRY", ClassAssembler},
	KindEQU:       {"EQU", ClassAssembler},
	KindLTORG:     {"LTORG", ClassAssembler},
	KindMACRO:     {"MACRO", ClassAssembler},
	KindMHELP:     {"MHELP", ClassAssembler},
	KindMNOTE:     {"MNOTE", ClassAssembler},
	KindOPSYN:     {"OPSYN", ClassAssembler},
	KindORG:       {"ORG", ClassAssembler},
	KindPOP:       {"POP", ClassAssembler},
	KindPRINT:     {"PRINT", ClassAssembler},
	KindPSWS:      {"PSWS", ClassAssembler},
	KindPSW360:    {"PSW360", ClassAssembler},
	KindPSW67:     {"PSW67", ClassAssembler},
	KindPSWBC:     {"PSWBC", ClassAssembler},
	KindPSWEC:     {"PSWEC", ClassAssembler},
	KindPSW380:    {"PSW380", ClassAssembler},
	KindPSWXA:     {"PSWXA", ClassAssembler},
	KindPSWE370:   {"PSWE370", ClassAssembler},
	KindPSWE390:   {"PSWE390", ClassAssembler},
	KindPSWZ:      {"PSWZ", ClassAssembler},
	KindPSWZS:     {"PSWZS", ClassAssembler},
	KindPUSH:      {"PUSH", ClassAssembler},
	KindREGION:    {"REGION", ClassAssembler},
	KindRMODE:     {"RMODE", ClassAssembler},
	KindSPACE:     {"SPACE", ClassAssembler},
	KindSTART:     {"START", ClassAssembler},
	KindTITLE:     {"TITLE", ClassAssembler},
	KindUSING:     {"USING", ClassAssembler},
	KindXMODE:     {"XMODE", ClassAssembler},

	KindACTR:  {"ACTR", ClassLoop},
	KindAGO:   {"AGO", ClassBranch},
	KindAIF:   {"AIF", ClassBranch},
	KindANOP:  {"ANOP", ClassBranch},
	KindGBLA:  {"GBLA", ClassDeclare},
	KindGBLB:  {"GBLB", ClassDeclare},
	KindGBLC:  {"GBLC", ClassDeclare},
	KindLCLA:  {"LCLA", ClassDeclare},
	KindLCLB:  {"LCLB", ClassDeclare},
	KindLCLC:  {"LCLC", ClassDeclare},
	KindSETA:  {"SETA", ClassAssign},
	KindSETB:  {"SETB", ClassAssign},
	KindSETC:  {"SETC", ClassAssign},
	KindMEXIT: {"MEXIT", ClassExit},
	KindMEND:  {"MEND", ClassEnd},
}

// KindInfo returns the static description of k.
// Out-of-range kinds report the KindUnknown entry.
func KindInfo(k Kind) Info {
	if k < 0 || k >= kindCount {
		return kindInfo[KindUnknown]
	}
	return kindInfo[k]
}

// Kinds returns every defined kind in declaration order, excluding KindUnknown.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount-1)
	for k := KindUnknown + 1; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindInfo[k].Name
}
