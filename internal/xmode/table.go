// Package xmode implements the XMODE table: per-category substitution of a
// generic directive name by an architecture-specific variant.
package xmode

import (
	"fmt"
	"sort"

	"github.com/roach88/asmop/internal/ir"
)

// Category is a mode category. Its value is also the generic directive name
// the category substitutes.
type Category string

const (
	CCW Category = "CCW" // channel command word format
	PSW Category = "PSW" // program status word format
)

// Categories returns the categories in sorted order.
func Categories() []Category {
	return []Category{CCW, PSW}
}

const none = "NONE"

// settings maps each accepted token of a category to the concrete directive name.
var settings = map[Category]map[string]string{
	CCW: {
		"0": "CCW0", "CCW0": "CCW0",
		"1": "CCW1", "CCW1": "CCW1",
	},
	PSW: variants("PSW", "S", "360", "67", "BC", "EC", "380", "XA", "E370", "E390", "Z", "ZS"),
}

func variants(prefix string, suffixes ...string) map[string]string {
	m := make(map[string]string, 2*len(suffixes))
	for _, s := range suffixes {
		m[s] = prefix + s
		m[prefix+s] = prefix + s
	}
	return m
}

// Table holds the active mapping of each category.
type Table struct {
	active map[Category]string
}

// New creates a table with no active mappings.
func New() *Table {
	return &Table{active: make(map[Category]string)}
}

// ParseCategory accepts a category name in any case.
func ParseCategory(name string) (Category, error) {
	c := Category(ir.Upper(name))
	if _, ok := settings[c]; !ok {
		return "", ir.NewInvalidSetting("XMODE", name)
	}
	return c, nil
}

// SetMode validates token for category and makes it the active mapping.
// NONE clears the mapping. Any other unknown token fails InvalidSetting and
// leaves the table unchanged.
func (t *Table) SetMode(category Category, token string) error {
	accepted, ok := settings[category]
	if !ok {
		return ir.NewInvalidSetting("XMODE", string(category))
	}
	tok := ir.Upper(token)
	if tok == none {
		delete(t.active, category)
		return nil
	}
	concrete, ok := accepted[tok]
	if !ok {
		return ir.NewInvalidSetting(string(category), token)
	}
	t.active[category] = concrete
	return nil
}

// Resolve returns the active variant when name is the generic name of a
// category with a mapping, else name unchanged.
func (t *Table) Resolve(name string) string {
	if concrete, ok := t.active[Category(name)]; ok {
		return concrete
	}
	return name
}

// Mapping returns the active variant of category, if any.
func (t *Table) Mapping(category Category) (string, bool) {
	concrete, ok := t.active[category]
	return concrete, ok
}

// Tokens returns the accepted tokens of category, NONE included, sorted.
func Tokens(category Category) []string {
	accepted := settings[category]
	out := make([]string, 0, len(accepted)+1)
	for tok := range accepted {
		out = append(out, tok)
	}
	out = append(out, none)
	sort.Strings(out)
	return out
}

func (t *Table) String() string {
	out := ""
	for _, c := range Categories() {
		v, ok := t.active[c]
		if !ok {
			v = "none"
		}
		out += fmt.Sprintf("%s=%s ", c, v)
	}
	return out[:len(out)-1]
}
