package macro

import (
	"fmt"

	"github.com/roach88/asmop/internal/ir"
)

// State is the state of a macro definition recognizer.
type State int

const (
	Idle      State = iota // outside any definition
	Prototype              // MACRO seen, expecting the prototype statement
	Body                   // collecting body lines until MEND
	Recovery               // bad definition, skipping to MEND
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Prototype:
		return "prototype"
	case Body:
		return "body"
	case Recovery:
		return "recovery"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Recognition returns the resolution context statements are recognized in.
func (s State) Recognition() ir.Recognition {
	switch s {
	case Prototype:
		return ir.RecognizePrototype
	case Body:
		return ir.RecognizeBody
	case Recovery:
		return ir.RecognizeRecovery
	default:
		return ir.RecognizeNormal
	}
}

// Statement is one source statement as seen by the builder.
type Statement struct {
	Text string // line as written
	Op   string // operation field
	At   ir.Location
}

// DefinitionError reports a malformed macro definition.
type DefinitionError struct {
	At      ir.Location
	Message string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.At, e.Message)
}

// Builder recognizes macro definitions in a statement stream and passes each
// completed definition to its define function.
type Builder struct {
	state   State
	library bool
	define  func(*ir.MacroInfo)
	start   ir.Location // MACRO statement of the open definition
	cur     *ir.MacroInfo
	depth   int // nested MACRO statements inside the body
}

// NewBuilder creates an idle builder. Definitions it completes are flagged
// as library definitions when library is set.
func NewBuilder(library bool, define func(*ir.MacroInfo)) *Builder {
	return &Builder{library: library, define: define}
}

// State returns the current state.
func (b *Builder) State() State {
	return b.state
}

// Recognition returns the context the next statement must be resolved in.
func (b *Builder) Recognition() ir.Recognition {
	return b.state.Recognition()
}

// Step advances the builder with st, classified as d in the context
// Recognition returned before the call. It reports whether the statement
// belongs to a macro definition.
func (b *Builder) Step(st Statement, d ir.Descriptor) (bool, error) {
	switch b.state {
	case Idle:
		if d.Kind != ir.KindMACRO {
			return false, nil
		}
		b.state = Prototype
		b.start = st.At
		return true, nil

	case Prototype:
		if d.Kind == ir.KindComment {
			return true, nil
		}
		if st.Op == "" {
			b.state = Recovery
			return true, &DefinitionError{At: st.At, Message: "macro prototype has no operation field"}
		}
		b.cur = &ir.MacroInfo{
			Name:      st.Op,
			Prototype: st.Text,
			DefinedAt: st.At,
			Library:   b.library,
		}
		b.state = Body
		return true, nil

	case Body:
		switch {
		case d.Kind == ir.KindMEND && b.depth == 0:
			b.define(b.cur)
			b.reset()
			return true, nil
		case d.Kind == ir.KindMEND:
			b.depth--
		case st.Op == "MACRO":
			b.depth++
		case d.Kind == ir.KindComment:
			return true, nil
		}
		b.cur.Body = append(b.cur.Body, st.Text)
		return true, nil

	case Recovery:
		if d.Kind == ir.KindMEND {
			b.reset()
		}
		return true, nil
	}
	return false, ir.NewConsistency("MACRO", "macro builder in unknown state %d", int(b.state))
}

// Finish reports an error if a definition is still open at end of input.
func (b *Builder) Finish() error {
	if b.state == Idle {
		return nil
	}
	name := "macro"
	if b.cur != nil {
		name = b.cur.Name
	}
	at := b.start
	b.reset()
	return &DefinitionError{At: at, Message: fmt.Sprintf("%s definition not terminated by MEND", name)}
}

func (b *Builder) reset() {
	b.state = Idle
	b.cur = nil
	b.depth = 0
}
