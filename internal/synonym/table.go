// Package synonym implements the operation synonym (OPSYN) table.
//
// Each alias is in one of three states: Absent, Tombstoned (explicitly
// deleted) or Resolved to a descriptor snapshot taken when the synonym was
// declared. Snapshots never track later changes to their target.
package synonym

import (
	"sort"

	"github.com/roach88/asmop/internal/ir"
)

// State is the lookup state of an alias.
type State int

const (
	Absent State = iota
	Tombstoned
	Resolved
)

func (s State) String() string {
	switch s {
	case Tombstoned:
		return "tombstoned"
	case Resolved:
		return "resolved"
	default:
		return "absent"
	}
}

// Resolver resolves a synonym target without consulting the synonym table.
type Resolver interface {
	ResolveDirect(name string) (ir.Descriptor, error)
}

// Entry is one table entry.
type Entry struct {
	Alias      string
	State      State
	Descriptor ir.Descriptor // set only when State is Resolved
}

// Table holds the declared synonyms.
type Table struct {
	entries map[string]Entry
}

// New creates an empty table.
func New() *Table {
	return &Table{entries: make(map[string]Entry)}
}

// Declare makes alias stand for target as target resolves right now.
//
// target is resolved by r, which must not consult this table, so synonyms
// never chain. If target cannot be resolved the table is unchanged and the
// resolver's error (NotFound) is returned.
func (t *Table) Declare(alias, target string, r Resolver) error {
	d, err := r.ResolveDirect(target)
	if err != nil {
		return err
	}
	t.entries[alias] = Entry{Alias: alias, State: Resolved, Descriptor: d}
	return nil
}

// Tombstone deletes alias: lookups of it fail until it is declared again.
func (t *Table) Tombstone(alias string) {
	t.entries[alias] = Entry{Alias: alias, State: Tombstoned}
}

// Lookup returns the state of alias and, when Resolved, its snapshot.
func (t *Table) Lookup(alias string) (State, ir.Descriptor) {
	e, ok := t.entries[alias]
	if !ok {
		return Absent, ir.Descriptor{}
	}
	return e.State, e.Descriptor
}

// Entries returns every entry sorted by alias.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out
}
