// Package insncache lazily builds machine-instruction metadata from the
// architecture database.
//
// Entries are built on first use and kept for the run: repeated lookups of
// a mnemonic return the identical *ir.InstructionEntry and the database is
// queried at most once per mnemonic, hits and misses alike.
package insncache

import (
	"errors"

	"github.com/roach88/asmop/internal/archdb"
	"github.com/roach88/asmop/internal/ir"
)

// Cache maps upper-case mnemonics to instruction entries.
//
// Not safe for concurrent use; one cache belongs to one assembly run.
type Cache struct {
	db      archdb.Database
	entries map[string]*ir.InstructionEntry
	missing map[string]struct{}
}

// New creates an empty cache over db.
func New(db archdb.Database) *Cache {
	return &Cache{
		db:      db,
		entries: make(map[string]*ir.InstructionEntry),
		missing: make(map[string]struct{}),
	}
}

// Lookup returns the entry for mnemonic, building it on first use.
//
// Returns a NotFound error if the CPU does not define the mnemonic. An
// instruction whose format is absent, or whose opcode cannot be decoded, is
// a Consistency error: the database contradicts itself.
func (c *Cache) Lookup(mnemonic string) (*ir.InstructionEntry, error) {
	key := ir.Upper(mnemonic)
	if e, ok := c.entries[key]; ok {
		return e, nil
	}
	if _, ok := c.missing[key]; ok {
		return nil, ir.NewNotFound(key)
	}

	rec, err := c.db.Instruction(key)
	if errors.Is(err, archdb.ErrNotFound) {
		c.missing[key] = struct{}{}
		return nil, ir.NewNotFound(key)
	}
	if err != nil {
		e := ir.NewConsistency(key, "instruction %s: database query failed", key)
		e.Cause = err
		return nil, e
	}

	format, err := c.db.Format(rec.Format)
	if err != nil {
		e := ir.NewConsistency(key, "instruction %s references format %q which is not defined", key, rec.Format)
		e.Cause = err
		return nil, e
	}

	opcode, err := rec.OpcodeParts()
	if err != nil {
		e := ir.NewConsistency(key, "instruction %s has an invalid opcode", key)
		e.Cause = err
		return nil, e
	}

	entry := ir.NewInstructionEntry(ir.InstructionSpec{
		Mnemonic:     key,
		Opcode:       opcode,
		Fixed:        rec.Fixed,
		Filters:      rec.Filters,
		Extended:     rec.Extended,
		Format:       format.ID,
		Length:       format.Length,
		Operands:     format.OperandNames(),
		OperandTypes: format.OperandTypes(),
	})
	c.entries[key] = entry
	return entry, nil
}

// Len returns the number of built entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Defaults returns the database's CPU-derived defaults.
func (c *Cache) Defaults() archdb.Defaults {
	return c.db.Defaults()
}
