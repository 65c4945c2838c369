package archdb

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Catalog holds every definition of a machine family.
type Catalog struct {
	CPUs         map[string]CPU
	Formats      map[string]FormatRecord
	Instructions map[string]InstructionRecord
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		CPUs:         make(map[string]CPU),
		Formats:      make(map[string]FormatRecord),
		Instructions: make(map[string]InstructionRecord),
	}
}

// CPUNames returns the CPU ids in sorted order.
func (c *Catalog) CPUNames() []string {
	names := make([]string, 0, len(c.CPUs))
	for name := range c.CPUs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Machine expands cpu into a Database holding only the instructions the CPU
// supports, plus every format.
//
// Formats are not cross-checked here; an instruction naming a missing
// format is reported by the instruction cache when it is first used.
func (c *Catalog) Machine(cpu string) (*Machine, error) {
	def, ok := c.CPUs[cpu]
	if !ok {
		return nil, fmt.Errorf("cpu %q not defined (have %s)", cpu, strings.Join(c.CPUNames(), ", "))
	}

	m := &Machine{
		defaults: Defaults{
			CPU:     def.ID,
			AddrMax: def.AddrMax,
			CCW:     strings.ToUpper(def.CCW),
			PSW:     strings.ToUpper(def.PSW),
		},
		instructions: make(map[string]InstructionRecord, len(def.Instructions)),
		formats:      c.Formats,
	}
	for _, mnemonic := range def.Instructions {
		rec, ok := c.Instructions[strings.ToUpper(mnemonic)]
		if !ok {
			return nil, fmt.Errorf("cpu %q: instruction %q not defined", cpu, mnemonic)
		}
		m.instructions[rec.Mnemonic] = rec
	}
	return m, nil
}

// Validate reports every structural problem in the catalog. Loaders do not
// call it; it backs the validate command.
func (c *Catalog) Validate() []error {
	var errs []error

	mnemonics := make([]string, 0, len(c.Instructions))
	for m := range c.Instructions {
		mnemonics = append(mnemonics, m)
	}
	sort.Strings(mnemonics)

	for _, m := range mnemonics {
		rec := c.Instructions[m]
		if _, ok := c.Formats[rec.Format]; !ok {
			errs = append(errs, fmt.Errorf("instruction %s: format %q not defined", m, rec.Format))
		}
		if _, err := rec.OpcodeParts(); err != nil {
			errs = append(errs, err)
		}
	}

	for _, name := range c.CPUNames() {
		cpu := c.CPUs[name]
		if cpu.PSW == "" {
			errs = append(errs, fmt.Errorf("cpu %s: psw format is required", name))
		}
		for _, m := range cpu.Instructions {
			if _, ok := c.Instructions[strings.ToUpper(m)]; !ok {
				errs = append(errs, fmt.Errorf("cpu %s: instruction %q not defined", name, m))
			}
		}
	}

	ids := make([]string, 0, len(c.Formats))
	for id := range c.Formats {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		f := c.Formats[id]
		if !slices.Contains([]int{2, 4, 6}, f.Length) {
			errs = append(errs, fmt.Errorf("format %s: length %d must be 2, 4 or 6", id, f.Length))
		}
	}
	return errs
}

// Machine is an expanded CPU. It implements Database.
type Machine struct {
	defaults     Defaults
	instructions map[string]InstructionRecord
	formats      map[string]FormatRecord
}

// Instruction implements Database.
func (m *Machine) Instruction(mnemonic string) (InstructionRecord, error) {
	rec, ok := m.instructions[mnemonic]
	if !ok {
		return InstructionRecord{}, fmt.Errorf("instruction %s: %w", mnemonic, ErrNotFound)
	}
	return rec, nil
}

// Format implements Database.
func (m *Machine) Format(id string) (FormatRecord, error) {
	f, ok := m.formats[id]
	if !ok {
		return FormatRecord{}, fmt.Errorf("format %s: %w", id, ErrNotFound)
	}
	return f, nil
}

// Defaults implements Database.
func (m *Machine) Defaults() Defaults {
	return m.defaults
}

// Mnemonics returns the supported mnemonics in sorted order.
func (m *Machine) Mnemonics() []string {
	out := make([]string, 0, len(m.instructions))
	for k := range m.instructions {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
