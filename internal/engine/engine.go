package engine

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/asmop/internal/archdb"
	"github.com/roach88/asmop/internal/directive"
	"github.com/roach88/asmop/internal/insncache"
	"github.com/roach88/asmop/internal/ir"
	"github.com/roach88/asmop/internal/macro"
	"github.com/roach88/asmop/internal/synonym"
	"github.com/roach88/asmop/internal/xmode"
)

// Request is one operation field to resolve.
type Request struct {
	Name        string         // operation field as written
	Recognition ir.Recognition // macro-definition context
	LibraryLoad bool           // permit defining an unknown macro from the library
	Synonyms    bool           // consult the synonym table
	At          ir.Location    // line the operation field is on
}

// Engine resolves operation fields for one assembly run.
type Engine struct {
	cache      *insncache.Cache
	synonyms   *synonym.Table
	modes      *xmode.Table
	macros     *macro.Registry
	directives *directive.Table
	library    macro.Loader
	logger     *slog.Logger
	runIDs     RunIDGenerator
	runID      string
	overrides  []modeSetting
}

type modeSetting struct {
	category string
	token    string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRunID sets the run id generator. The default is UUIDv7Generator.
func WithRunID(gen RunIDGenerator) Option {
	return func(e *Engine) {
		e.runIDs = gen
	}
}

// WithMode overrides the initial XMODE setting of category. Overrides are
// applied after the database defaults, in the order given.
func WithMode(category, token string) Option {
	return func(e *Engine) {
		e.overrides = append(e.overrides, modeSetting{category: category, token: token})
	}
}

// WithLibrary sets the macro library loader. Without one, step 5 of the
// cascade is skipped.
func WithLibrary(loader macro.Loader) Option {
	return func(e *Engine) {
		e.library = loader
	}
}

// New creates an Engine over db.
//
// The XMODE table is seeded from the database defaults and then from any
// WithMode overrides. An invalid default is a Consistency error; an invalid
// override is an InvalidSetting error.
func New(db archdb.Database, opts ...Option) (*Engine, error) {
	e := &Engine{
		cache:      insncache.New(db),
		synonyms:   synonym.New(),
		modes:      xmode.New(),
		macros:     macro.NewRegistry(),
		directives: directive.New(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		runIDs:     UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.runID = e.runIDs.Generate()

	defaults := db.Defaults()
	for _, s := range []modeSetting{{string(xmode.CCW), defaults.CCW}, {string(xmode.PSW), defaults.PSW}} {
		if s.token == "" {
			continue
		}
		if err := e.SetMode(s.category, s.token); err != nil {
			ce := ir.NewConsistency(s.category, "cpu %s default %s format %q is not a valid setting", defaults.CPU, s.category, s.token)
			ce.Cause = err
			return nil, ce
		}
	}
	for _, s := range e.overrides {
		if err := e.SetMode(s.category, s.token); err != nil {
			return nil, err
		}
	}

	e.logger.Debug("engine created",
		"run_id", e.runID,
		"cpu", defaults.CPU,
		"modes", e.modes.String())
	return e, nil
}

// AttachLibrary sets the macro library loader after construction. Loaders
// that resolve member statements through this engine are attached this way.
func (e *Engine) AttachLibrary(loader macro.Loader) {
	e.library = loader
}

// RunID returns the id of this run.
func (e *Engine) RunID() string { return e.runID }

// Registry returns the macro registry.
func (e *Engine) Registry() *macro.Registry { return e.macros }

// Synonyms returns the synonym table.
func (e *Engine) Synonyms() *synonym.Table { return e.synonyms }

// Modes returns the XMODE table.
func (e *Engine) Modes() *xmode.Table { return e.modes }

// Cache returns the instruction cache.
func (e *Engine) Cache() *insncache.Cache { return e.cache }

// Directives returns the directive table.
func (e *Engine) Directives() *directive.Table { return e.directives }

// Resolve classifies req.Name in req.Recognition context.
//
// Errors are *ir.Error values attributed to req.At: NotFound when nothing
// matches, LibraryLoad when step 5 fails, and Consistency (fatal) for a
// database fault or an unknown recognition context.
func (e *Engine) Resolve(ctx context.Context, req Request) (ir.Descriptor, error) {
	switch req.Recognition {
	case ir.RecognizePrototype:
		return ir.Descriptor{Name: req.Name, Kind: ir.KindPrototype, Attr: ir.AttrMacro}, nil

	case ir.RecognizeBody:
		if d, ok := e.directives.LookupBody(req.Name); ok {
			return d, nil
		}
		return ir.Descriptor{Name: req.Name, Kind: ir.KindModel, Attr: ir.AttrUndefined}, nil

	case ir.RecognizeRecovery:
		if d, ok := e.directives.Lookup(req.Name); ok && d.Kind == ir.KindMEND {
			return d, nil
		}
		return e.comment(req.Name), nil

	case ir.RecognizeNormal:
		d, err := e.cascade(ctx, req)
		if err != nil {
			return ir.Descriptor{}, ir.WithLocation(err, req.At)
		}
		return d, nil
	}

	err := ir.NewConsistency(req.Name, "unknown recognition context %s", req.Recognition)
	return ir.Descriptor{}, ir.WithLocation(err, req.At)
}

func (e *Engine) cascade(ctx context.Context, req Request) (ir.Descriptor, error) {
	name := req.Name

	if req.Synonyms {
		switch state, d := e.synonyms.Lookup(name); state {
		case synonym.Tombstoned:
			return ir.Descriptor{}, ir.NewNotFound(name)
		case synonym.Resolved:
			return d, nil
		}
	}

	if d, ok := e.macros.Lookup(name); ok {
		return d, nil
	}

	entry, err := e.cache.Lookup(name)
	switch {
	case err == nil:
		attr := ir.AttrOrdinary
		if entry.Extended() {
			attr = ir.AttrExtended
		}
		return ir.Descriptor{Name: entry.Mnemonic(), Kind: ir.KindMachine, Attr: attr, Payload: entry}, nil
	case !ir.IsNotFound(err):
		return ir.Descriptor{}, err
	}

	if d, ok := e.directives.Lookup(e.modes.Resolve(name)); ok {
		return d, nil
	}

	if req.Synonyms && req.LibraryLoad && e.library != nil {
		e.logger.Debug("loading macro from library", "name", name, "at", req.At.String())
		d, err := e.macros.LoadFromLibrary(ctx, name, e.library, req.At)
		if err != nil {
			e.logger.Warn("macro library load failed", "name", name, "at", req.At.String(), "error", err)
			return ir.Descriptor{}, err
		}
		return d, nil
	}

	return ir.Descriptor{}, ir.NewNotFound(name)
}

// ResolveDirect resolves name by the normal cascade without the synonym
// table and without library load. Synonym targets are resolved this way.
func (e *Engine) ResolveDirect(name string) (ir.Descriptor, error) {
	return e.cascade(context.Background(), Request{Name: name})
}

// Attribute returns the O' attribute of name: the attribute of its normal
// resolution without library load, or U if it does not resolve. The error
// is non-nil only for a fatal Consistency fault.
func (e *Engine) Attribute(name string) (ir.Attribute, error) {
	d, err := e.cascade(context.Background(), Request{Name: name, Synonyms: true})
	if err != nil {
		if ir.IsFatal(err) {
			return ir.AttrUndefined, err
		}
		return ir.AttrUndefined, nil
	}
	return d.Attr, nil
}

// Comment returns the descriptor of a comment line. Inside a macro body a
// loud comment is a model statement; a quiet comment never is.
func (e *Engine) Comment(recognition ir.Recognition, quiet bool) ir.Descriptor {
	if recognition == ir.RecognizeBody && !quiet {
		return ir.Descriptor{Name: "*", Kind: ir.KindModel, Attr: ir.AttrUndefined}
	}
	return e.comment("*")
}

func (e *Engine) comment(name string) ir.Descriptor {
	return ir.Descriptor{Name: name, Kind: ir.KindComment, Attr: ir.AttrUndefined}
}

// LineError returns the descriptor of a line that could not be split into
// statement fields.
func (e *Engine) LineError() ir.Descriptor {
	d, _ := e.directives.Lookup(directive.LineError)
	return d
}

// Literal returns the descriptor of a literal placed in a literal pool.
func (e *Engine) Literal(text string, at ir.Location) ir.Descriptor {
	return ir.Descriptor{
		Name:    "=",
		Kind:    ir.KindLiteral,
		Attr:    ir.AttrUndefined,
		Payload: &ir.LiteralRef{Text: text, At: at},
	}
}

// DeclareSynonym makes alias stand for target as target resolves now.
// target is resolved without the synonym table, so synonyms never chain.
func (e *Engine) DeclareSynonym(alias, target string, at ir.Location) error {
	if err := e.synonyms.Declare(alias, target, e); err != nil {
		return ir.WithLocation(err, at)
	}
	e.logger.Debug("synonym declared", "alias", alias, "target", target, "at", at.String())
	return nil
}

// DeleteSynonym tombstones alias: it no longer resolves through the synonym
// table until declared again.
func (e *Engine) DeleteSynonym(alias string, at ir.Location) {
	e.synonyms.Tombstone(alias)
	e.logger.Debug("synonym deleted", "alias", alias, "at", at.String())
}

// SetMode applies an XMODE setting. category and token are case-insensitive.
func (e *Engine) SetMode(category, token string) error {
	c, err := xmode.ParseCategory(category)
	if err != nil {
		return err
	}
	if err := e.modes.SetMode(c, token); err != nil {
		return err
	}
	e.logger.Debug("xmode set", "category", string(c), "token", token)
	return nil
}
