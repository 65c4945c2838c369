// Package macro tracks macro definitions and recognizes macro definitions in
// statement streams.
package macro

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/asmop/internal/ir"
)

// Loader defines a macro from an external library.
//
// On success LoadMacro must have called Registry.Define for name. On failure
// it must leave the registry unchanged.
type Loader interface {
	LoadMacro(ctx context.Context, name string) error
}

// Entry is the registry record of one macro name.
//
// An Entry is created on first definition and keeps its identity and
// cross-reference history across redefinitions.
type Entry struct {
	Name       string
	Descriptor ir.Descriptor
	Library    bool
	XRef       *ir.XRef
}

// Registry maps macro names to their entries.
type Registry struct {
	entries map[string]*Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Descriptor builds the macro-call descriptor of info.
func Descriptor(info *ir.MacroInfo) ir.Descriptor {
	attr := ir.AttrMacro
	if info.Library {
		attr = ir.AttrLibraryMacro
	}
	return ir.Descriptor{Name: info.Name, Kind: ir.KindMacroCall, Attr: attr, Payload: info}
}

// Define records a definition of info.Name at info.DefinedAt.
// A redefinition replaces the descriptor and extends the existing history.
// A library definition adds no marker: lines inside a library member never
// appear in the history.
func (r *Registry) Define(info *ir.MacroInfo) *Entry {
	e, ok := r.entries[info.Name]
	if !ok {
		e = &Entry{Name: info.Name, XRef: ir.NewXRef()}
		r.entries[info.Name] = e
	}
	e.Descriptor = Descriptor(info)
	e.Library = info.Library
	if !info.Library {
		e.XRef.Define(info.DefinedAt)
	}
	return e
}

// Lookup returns the current descriptor of name.
func (r *Registry) Lookup(name string) (ir.Descriptor, bool) {
	e, ok := r.entries[name]
	if !ok {
		return ir.Descriptor{}, false
	}
	return e.Descriptor, true
}

// Entry returns the registry entry of name.
func (r *Registry) Entry(name string) (*Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// Reference records a use of name at at. It reports false if name is not defined.
func (r *Registry) Reference(name string, at ir.Location) bool {
	e, ok := r.entries[name]
	if !ok {
		return false
	}
	e.XRef.Reference(at)
	return true
}

// Names returns the defined macro names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of defined macros.
func (r *Registry) Len() int {
	return len(r.entries)
}

// LoadFromLibrary returns the descriptor of name, defining it through loader
// when it is not yet registered. at is the referencing line.
//
// The history of a library macro starts with its first reference.
func (r *Registry) LoadFromLibrary(ctx context.Context, name string, loader Loader, at ir.Location) (ir.Descriptor, error) {
	if d, ok := r.Lookup(name); ok {
		return d, nil
	}
	if err := loader.LoadMacro(ctx, name); err != nil {
		switch {
		case ir.IsFatal(err):
			return ir.Descriptor{}, err
		case !ir.IsLibraryLoad(err):
			err = ir.NewLibraryLoad(name, nil, err)
		}
		return ir.Descriptor{}, ir.WithLocation(err, at)
	}
	e, ok := r.entries[name]
	if !ok {
		err := ir.NewLibraryLoad(name, nil, fmt.Errorf("library member did not define macro %s", name))
		return ir.Descriptor{}, ir.WithLocation(err, at)
	}
	return e.Descriptor, nil
}
