package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/asmop/internal/archdb"
)

// Import writes every definition of cat in one transaction.
//
// Existing rows with the same keys are replaced, and a CPU's instruction
// list is replaced as a whole. A CPU listing a mnemonic the catalog does
// not define violates a foreign key and fails the import.
func (s *Store) Import(ctx context.Context, cat *archdb.Catalog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("import: begin: %w", err)
	}
	defer tx.Rollback()

	for _, id := range sortedKeys(cat.Formats) {
		if err := writeFormat(ctx, tx, cat.Formats[id]); err != nil {
			return fmt.Errorf("import: %w", err)
		}
	}
	for _, m := range sortedKeys(cat.Instructions) {
		if err := writeInstruction(ctx, tx, cat.Instructions[m]); err != nil {
			return fmt.Errorf("import: %w", err)
		}
	}
	for _, id := range cat.CPUNames() {
		if err := writeCPU(ctx, tx, cat.CPUs[id]); err != nil {
			return fmt.Errorf("import: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("import: commit: %w", err)
	}
	return nil
}

func writeFormat(ctx context.Context, tx *sql.Tx, f archdb.FormatRecord) error {
	ops, err := marshalOperands(f.Operands)
	if err != nil {
		return fmt.Errorf("format %s: %w", f.ID, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO formats (id, length, operands)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET length = excluded.length, operands = excluded.operands
	`, f.ID, f.Length, ops)
	if err != nil {
		return fmt.Errorf("format %s: %w", f.ID, err)
	}
	return nil
}

func writeInstruction(ctx context.Context, tx *sql.Tx, rec archdb.InstructionRecord) error {
	fixed, err := marshalFixed(rec.Fixed)
	if err != nil {
		return fmt.Errorf("instruction %s: %w", rec.Mnemonic, err)
	}
	filters, err := marshalFilters(rec.Filters)
	if err != nil {
		return fmt.Errorf("instruction %s: %w", rec.Mnemonic, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO instructions (mnemonic, opcode, format, extended, fixed, filters)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(mnemonic) DO UPDATE SET
			opcode = excluded.opcode,
			format = excluded.format,
			extended = excluded.extended,
			fixed = excluded.fixed,
			filters = excluded.filters
	`, rec.Mnemonic, rec.Opcode, rec.Format, rec.Extended, fixed, filters)
	if err != nil {
		return fmt.Errorf("instruction %s: %w", rec.Mnemonic, err)
	}
	return nil
}

func writeCPU(ctx context.Context, tx *sql.Tx, cpu archdb.CPU) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO cpus (id, addrmax, ccw, psw)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET addrmax = excluded.addrmax, ccw = excluded.ccw, psw = excluded.psw
	`, cpu.ID, cpu.AddrMax, cpu.CCW, cpu.PSW)
	if err != nil {
		return fmt.Errorf("cpu %s: %w", cpu.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cpu_instructions WHERE cpu_id = ?`, cpu.ID); err != nil {
		return fmt.Errorf("cpu %s: %w", cpu.ID, err)
	}
	for _, m := range cpu.Instructions {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO cpu_instructions (cpu_id, mnemonic) VALUES (?, ?)
		`, cpu.ID, strings.ToUpper(m))
		if err != nil {
			return fmt.Errorf("cpu %s: instruction %s: %w", cpu.ID, m, err)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
