package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/asmop/internal/archdb"
)

// CPUNames returns the ids of the stored CPUs in sorted order.
func (s *Store) CPUNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM cpus ORDER BY id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query cpus: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan cpu: %w", err)
		}
		names = append(names, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cpus: %w", err)
	}
	return names, nil
}

// Machine returns the database of one stored CPU. Instruction and format
// rows are read when they are first queried.
func (s *Store) Machine(ctx context.Context, cpu string) (*Machine, error) {
	var d archdb.Defaults
	err := s.db.QueryRowContext(ctx, `
		SELECT id, addrmax, ccw, psw FROM cpus WHERE id = ?
	`, cpu).Scan(&d.CPU, &d.AddrMax, &d.CCW, &d.PSW)
	if errors.Is(err, sql.ErrNoRows) {
		names, _ := s.CPUNames(ctx)
		return nil, fmt.Errorf("cpu %q not defined (have %s)", cpu, strings.Join(names, ", "))
	}
	if err != nil {
		return nil, fmt.Errorf("query cpu %s: %w", cpu, err)
	}
	d.CCW = strings.ToUpper(d.CCW)
	d.PSW = strings.ToUpper(d.PSW)
	return &Machine{db: s.db, defaults: d}, nil
}

// Catalog reads the whole stored catalog back.
func (s *Store) Catalog(ctx context.Context) (*archdb.Catalog, error) {
	cat := archdb.NewCatalog()

	rows, err := s.db.QueryContext(ctx, `SELECT id, length, operands FROM formats`)
	if err != nil {
		return nil, fmt.Errorf("query formats: %w", err)
	}
	for rows.Next() {
		f, err := scanFormat(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		cat.Formats[f.ID] = f
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate formats: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT mnemonic, opcode, format, extended, fixed, filters FROM instructions
	`)
	if err != nil {
		return nil, fmt.Errorf("query instructions: %w", err)
	}
	for rows.Next() {
		rec, err := scanInstruction(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		cat.Instructions[rec.Mnemonic] = rec
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instructions: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT c.id, c.addrmax, c.ccw, c.psw, ci.mnemonic
		FROM cpus c LEFT JOIN cpu_instructions ci ON ci.cpu_id = c.id
		ORDER BY c.id COLLATE BINARY ASC, ci.mnemonic COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query cpus: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cpu archdb.CPU
		var mnemonic sql.NullString
		if err := rows.Scan(&cpu.ID, &cpu.AddrMax, &cpu.CCW, &cpu.PSW, &mnemonic); err != nil {
			return nil, fmt.Errorf("scan cpu: %w", err)
		}
		if prev, ok := cat.CPUs[cpu.ID]; ok {
			cpu.Instructions = prev.Instructions
		}
		if mnemonic.Valid {
			cpu.Instructions = append(cpu.Instructions, mnemonic.String)
		}
		cat.CPUs[cpu.ID] = cpu
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cpus: %w", err)
	}
	return cat, nil
}

// Machine is one stored CPU. It implements archdb.Database.
type Machine struct {
	db       *sql.DB
	defaults archdb.Defaults
}

// Instruction implements archdb.Database.
func (m *Machine) Instruction(mnemonic string) (archdb.InstructionRecord, error) {
	row := m.db.QueryRowContext(context.Background(), `
		SELECT i.mnemonic, i.opcode, i.format, i.extended, i.fixed, i.filters
		FROM instructions i
		JOIN cpu_instructions ci ON ci.mnemonic = i.mnemonic
		WHERE ci.cpu_id = ? AND i.mnemonic = ?
	`, m.defaults.CPU, mnemonic)
	rec, err := scanInstruction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return archdb.InstructionRecord{}, fmt.Errorf("instruction %s: %w", mnemonic, archdb.ErrNotFound)
	}
	return rec, err
}

// Format implements archdb.Database.
func (m *Machine) Format(id string) (archdb.FormatRecord, error) {
	row := m.db.QueryRowContext(context.Background(), `
		SELECT id, length, operands FROM formats WHERE id = ?
	`, id)
	f, err := scanFormat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return archdb.FormatRecord{}, fmt.Errorf("format %s: %w", id, archdb.ErrNotFound)
	}
	return f, err
}

// Defaults implements archdb.Database.
func (m *Machine) Defaults() archdb.Defaults {
	return m.defaults
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInstruction(row scanner) (archdb.InstructionRecord, error) {
	var rec archdb.InstructionRecord
	var fixed, filters string
	if err := row.Scan(&rec.Mnemonic, &rec.Opcode, &rec.Format, &rec.Extended, &fixed, &filters); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan instruction: %w", err)
	}
	var err error
	if rec.Fixed, err = unmarshalFixed(fixed); err != nil {
		return rec, fmt.Errorf("instruction %s: %w", rec.Mnemonic, err)
	}
	if rec.Filters, err = unmarshalFilters(filters); err != nil {
		return rec, fmt.Errorf("instruction %s: %w", rec.Mnemonic, err)
	}
	return rec, nil
}

func scanFormat(row scanner) (archdb.FormatRecord, error) {
	var f archdb.FormatRecord
	var ops string
	if err := row.Scan(&f.ID, &f.Length, &ops); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return f, err
		}
		return f, fmt.Errorf("scan format: %w", err)
	}
	var err error
	if f.Operands, err = unmarshalOperands(ops); err != nil {
		return f, fmt.Errorf("format %s: %w", f.ID, err)
	}
	return f, nil
}
