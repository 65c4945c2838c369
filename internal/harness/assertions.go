package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/asmop/internal/engine"
	"github.com/roach88/asmop/internal/ir"
	"github.com/roach88/asmop/internal/scan"
	"github.com/roach88/asmop/internal/synonym"
	"github.com/roach88/asmop/internal/xmode"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string                // Assertion type for categorization
	Expected string                // Human-readable expected outcome
	Actual   string                // Human-readable actual outcome
	Lines    []scan.Classification // Line context, if relevant
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Lines) > 0 {
		fmt.Fprintf(&buf, "\nLines:\n")
		for _, c := range e.Lines {
			fmt.Fprintf(&buf, "  [%s] %-16s %s\n", c.At, c.Descriptor.Kind, c.Text)
		}
	}

	return buf.String()
}

// AssertionContext provides the state assertions are evaluated against.
type AssertionContext struct {
	Engine *engine.Engine
	Lines  []scan.Classification
}

func (actx *AssertionContext) line(assertionType string, n int) (scan.Classification, error) {
	if n < 1 || n > len(actx.Lines) {
		return scan.Classification{}, &AssertionError{
			Type:     assertionType,
			Expected: fmt.Sprintf("line %d", n),
			Actual:   fmt.Sprintf("source has %d lines", len(actx.Lines)),
		}
	}
	return actx.Lines[n-1], nil
}

// assertLineKind checks the kind, and optionally the attribute, of a line.
func assertLineKind(actx *AssertionContext, a Assertion) error {
	c, err := actx.line(AssertLineKind, a.Line)
	if err != nil {
		return err
	}
	d := c.Descriptor
	if d.Kind.String() == a.Kind && (a.Attr == "" || string(d.Attr) == a.Attr) {
		return nil
	}
	return &AssertionError{
		Type:     AssertLineKind,
		Expected: fmt.Sprintf("line %d kind=%s attr=%s", a.Line, a.Kind, orAny(a.Attr)),
		Actual:   fmt.Sprintf("kind=%s attr=%s", d.Kind, d.Attr),
		Lines:    []scan.Classification{c},
	}
}

// assertLineError checks that a line has an error, with a code if given.
func assertLineError(actx *AssertionContext, a Assertion) error {
	c, err := actx.line(AssertLineError, a.Line)
	if err != nil {
		return err
	}
	if c.Err != nil && (a.Code == "" || errorCode(c.Err) == a.Code) {
		return nil
	}
	actual := "no error"
	if c.Err != nil {
		actual = fmt.Sprintf("code=%s: %v", errorCode(c.Err), c.Err)
	}
	return &AssertionError{
		Type:     AssertLineError,
		Expected: fmt.Sprintf("line %d error code=%s", a.Line, orAny(a.Code)),
		Actual:   actual,
		Lines:    []scan.Classification{c},
	}
}

// assertErrorCount checks the number of lines with errors.
func assertErrorCount(actx *AssertionContext, a Assertion) error {
	var failing []scan.Classification
	for _, c := range actx.Lines {
		if c.Err != nil {
			failing = append(failing, c)
		}
	}
	if len(failing) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertErrorCount,
		Expected: fmt.Sprintf("%d lines with errors", a.Count),
		Actual:   fmt.Sprintf("%d lines with errors", len(failing)),
		Lines:    failing,
	}
}

// assertMacroXRef checks the cross-reference markers of a macro, rendered
// as flag followed by location ("*src:3", " src:10").
func assertMacroXRef(actx *AssertionContext, a Assertion) error {
	entry, ok := actx.Engine.Registry().Entry(a.Macro)
	if !ok {
		return &AssertionError{
			Type:     AssertMacroXRef,
			Expected: fmt.Sprintf("macro %s defined", a.Macro),
			Actual:   fmt.Sprintf("defined macros: %v", actx.Engine.Registry().Names()),
		}
	}
	var got []string
	for _, m := range entry.XRef.Markers() {
		got = append(got, string(m.Flag)+m.At.String())
	}
	if strings.Join(got, "|") == strings.Join(a.Markers, "|") {
		return nil
	}
	return &AssertionError{
		Type:     AssertMacroXRef,
		Expected: fmt.Sprintf("macro %s markers %q", a.Macro, a.Markers),
		Actual:   fmt.Sprintf("%q", got),
	}
}

// assertSynonym checks the state of an alias and, when Kind is given, the
// kind of its snapshot.
func assertSynonym(actx *AssertionContext, a Assertion) error {
	state, d := actx.Engine.Synonyms().Lookup(a.Alias)
	if state.String() == a.State && (a.Kind == "" || (state == synonym.Resolved && d.Kind.String() == a.Kind)) {
		return nil
	}
	return &AssertionError{
		Type:     AssertSynonym,
		Expected: fmt.Sprintf("alias %s state=%s kind=%s", a.Alias, a.State, orAny(a.Kind)),
		Actual:   fmt.Sprintf("state=%s kind=%s", state, d.Kind),
	}
}

// assertMode checks the active XMODE mapping of a category.
func assertMode(actx *AssertionContext, a Assertion) error {
	c, err := xmode.ParseCategory(a.Category)
	if err != nil {
		return err
	}
	got, ok := actx.Engine.Modes().Mapping(c)
	if !ok {
		got = "none"
	}
	if strings.EqualFold(got, a.Value) {
		return nil
	}
	return &AssertionError{
		Type:     AssertMode,
		Expected: fmt.Sprintf("%s=%s", c, a.Value),
		Actual:   fmt.Sprintf("%s=%s", c, got),
	}
}

// assertAttribute checks the O' attribute of a name at end of run.
func assertAttribute(actx *AssertionContext, a Assertion) error {
	got, err := actx.Engine.Attribute(a.Name)
	if err != nil {
		return &AssertionError{
			Type:     AssertAttribute,
			Expected: fmt.Sprintf("O'%s=%s", a.Name, a.Attr),
			Actual:   err.Error(),
		}
	}
	if string(got) == a.Attr {
		return nil
	}
	return &AssertionError{
		Type:     AssertAttribute,
		Expected: fmt.Sprintf("O'%s=%s", a.Name, a.Attr),
		Actual:   fmt.Sprintf("O'%s=%s", a.Name, got),
	}
}

func errorCode(err error) string {
	var e *ir.Error
	if errors.As(err, &e) {
		return string(e.Code)
	}
	return "SYNTAX"
}

func orAny(s string) string {
	if s == "" {
		return "any"
	}
	return s
}

// EvaluateAssertions evaluates all assertions.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var failures []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertLineKind:
			err = assertLineKind(actx, assertion)
		case AssertLineError:
			err = assertLineError(actx, assertion)
		case AssertErrorCount:
			err = assertErrorCount(actx, assertion)
		case AssertMacroXRef:
			err = assertMacroXRef(actx, assertion)
		case AssertSynonym:
			err = assertSynonym(actx, assertion)
		case AssertMode:
			err = assertMode(actx, assertion)
		case AssertAttribute:
			err = assertAttribute(actx, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			failures = append(failures, err.Error())
		}
	}

	return failures
}
