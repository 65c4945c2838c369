// Package scan classifies source statements line by line.
//
// A Scanner splits each fixed-format line into fields, tracks macro
// definitions with a macro.Builder, and resolves the operation field through
// an engine.Engine in the recognition context the builder is in. OPSYN and
// XMODE statements are applied to the engine's tables as they are seen.
package scan

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/asmop/internal/engine"
	"github.com/roach88/asmop/internal/ir"
	"github.com/roach88/asmop/internal/macro"
)

// ErrOutsideDefinition is reported for a library member statement that is
// not part of a macro definition.
var ErrOutsideDefinition = errors.New("statement outside macro definition")

// Classification is the result of scanning one line.
type Classification struct {
	At         ir.Location
	Text       string
	Label      string
	Op         string
	Operands   string
	Descriptor ir.Descriptor
	Literals   []ir.Descriptor
	Err        error // per-line diagnostic, if any
}

// Map renders c in the canonical trace form.
func (c Classification) Map() map[string]any {
	m := ir.DescriptorMap(c.Descriptor)
	m["at"] = c.At.String()
	if c.Label != "" {
		m["label"] = c.Label
	}
	if c.Op != "" {
		m["op"] = c.Op
	}
	if len(c.Literals) > 0 {
		lits := make([]any, len(c.Literals))
		for i, d := range c.Literals {
			lit, _ := d.Literal()
			lits[i] = lit.Text
		}
		m["literals"] = lits
	}
	if c.Err != nil {
		m["error"] = c.Err.Error()
	}
	return m
}

// Result is the outcome of scanning a whole source.
type Result struct {
	Lines []Classification

	// Final reports a definition left open at end of input.
	Final error
}

// Errors returns every per-line diagnostic followed by Final.
func (r *Result) Errors() []error {
	var errs []error
	for _, c := range r.Lines {
		if c.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.At, c.Err))
		}
	}
	if r.Final != nil {
		errs = append(errs, r.Final)
	}
	return errs
}

// Scanner classifies the lines of one source.
type Scanner struct {
	eng     *engine.Engine
	builder *macro.Builder
	library bool
	logger  *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// WithLibrary scans a macro library member. Completed definitions are passed
// to define instead of being registered, no library loads are triggered and
// statements outside definitions are errors.
func WithLibrary(define func(*ir.MacroInfo)) Option {
	return func(s *Scanner) {
		s.library = true
		s.builder = macro.NewBuilder(true, define)
	}
}

// New creates a scanner resolving through eng.
func New(eng *engine.Engine, opts ...Option) *Scanner {
	s := &Scanner{
		eng:    eng,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.builder == nil {
		s.builder = macro.NewBuilder(false, func(m *ir.MacroInfo) {
			eng.Registry().Define(m)
			s.logger.Debug("macro defined", "name", m.Name, "at", m.DefinedAt.String())
		})
	}
	return s
}

// Run scans every line of r. source names r in locations.
//
// Per-line diagnostics are recorded on the lines. The returned error is
// non-nil only for a read failure, a cancelled context or a fatal
// Consistency error, which abort the scan.
func (s *Scanner) Run(ctx context.Context, r io.Reader, source string) (*Result, error) {
	res := &Result{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		line++
		c, err := s.Line(ctx, sc.Text(), ir.Location{Source: source, Line: line})
		res.Lines = append(res.Lines, c)
		if err != nil {
			return res, err
		}
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("reading %s: %w", source, err)
	}
	res.Final = s.builder.Finish()
	return res, nil
}

// Line classifies one line. The returned error is fatal; per-line
// diagnostics are in Classification.Err.
func (s *Scanner) Line(ctx context.Context, text string, at ir.Location) (Classification, error) {
	c := Classification{At: at, Text: text}
	recognition := s.builder.Recognition()

	if lt := Classify(text); lt != Statement {
		c.Descriptor = s.eng.Comment(recognition, lt != LoudComment)
		return c, s.step(&c)
	}

	f, err := Split(text)
	c.Label, c.Op, c.Operands = f.Label, ir.Upper(f.Op), f.Operands
	if err != nil {
		switch recognition {
		case ir.RecognizeNormal:
			c.Descriptor = s.eng.LineError()
			c.Err = err
			return c, nil
		case ir.RecognizeRecovery:
			c.Descriptor = s.eng.Comment(recognition, true)
			return c, nil
		}
		// Prototype and body lines are kept as written.
	}

	c.Descriptor, err = s.eng.Resolve(ctx, engine.Request{
		Name:        c.Op,
		Recognition: recognition,
		LibraryLoad: !s.library,
		Synonyms:    true,
		At:          at,
	})
	if err != nil {
		if ir.IsFatal(err) {
			return c, err
		}
		c.Descriptor = ir.Descriptor{Name: c.Op, Kind: ir.KindUnknown, Attr: ir.AttrUndefined}
		c.Err = err
		return c, nil
	}
	return c, s.step(&c)
}

// step advances the macro builder with c and applies statements that are
// not part of a macro definition.
func (s *Scanner) step(c *Classification) error {
	handled, err := s.builder.Step(macro.Statement{Text: c.Text, Op: c.Op, At: c.At}, c.Descriptor)
	if err != nil {
		if ir.IsFatal(err) {
			return err
		}
		c.Err = err
		return nil
	}
	if handled || c.Descriptor.Kind == ir.KindComment || c.Err != nil {
		return nil
	}
	if s.library {
		c.Err = ErrOutsideDefinition
		return nil
	}
	return s.apply(c)
}

// apply records the effects of an ordinary statement. A fatal error from
// an OPSYN or XMODE operand is returned instead of kept as a diagnostic.
func (s *Scanner) apply(c *Classification) error {
	switch c.Descriptor.Kind {
	case ir.KindMacroCall:
		s.eng.Registry().Reference(c.Descriptor.Name, c.At)
	case ir.KindOPSYN:
		c.Err = s.opsyn(c)
	case ir.KindXMODE:
		c.Err = s.xmode(c)
	}
	for _, op := range Operands(c.Operands) {
		if strings.HasPrefix(op, "=") {
			c.Literals = append(c.Literals, s.eng.Literal(op, c.At))
		}
	}
	if ir.IsFatal(c.Err) {
		return c.Err
	}
	return nil
}

// opsyn applies "ALIAS OPSYN TARGET", or "ALIAS OPSYN" to delete ALIAS.
func (s *Scanner) opsyn(c *Classification) error {
	alias := ir.Upper(c.Label)
	if alias == "" {
		return ir.WithLocation(ir.NewInvalidSetting("OPSYN", "missing name field"), c.At)
	}
	if c.Operands == "" {
		s.eng.DeleteSynonym(alias, c.At)
		return nil
	}
	return s.eng.DeclareSynonym(alias, ir.Upper(c.Operands), c.At)
}

// xmode applies "XMODE CATEGORY,SETTING".
func (s *Scanner) xmode(c *Classification) error {
	ops := Operands(c.Operands)
	if len(ops) != 2 {
		return ir.WithLocation(ir.NewInvalidSetting("XMODE", c.Operands), c.At)
	}
	return ir.WithLocation(s.eng.SetMode(ops[0], ops[1]), c.At)
}
