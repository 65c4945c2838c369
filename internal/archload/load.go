// Package archload opens an architecture database from a path, dispatching
// on its form: a CUE file or directory, a YAML file, or a SQLite store.
package archload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/asmop/internal/archdb"
	"github.com/roach88/asmop/internal/store"
)

// Format is the on-disk form of an architecture database.
type Format string

const (
	FormatCUE    Format = "cue"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
)

// Detect returns the format of path: directories are CUE packages, other
// paths are recognized by extension.
func Detect(path string) (Format, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("architecture database not found: %w", err)
	}
	if info.IsDir() {
		return FormatCUE, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return FormatCUE, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	}
	return "", fmt.Errorf("unrecognized architecture database %s (want .cue, .yaml, .db or a CUE directory)", path)
}

// Catalog loads the whole catalog at path.
func Catalog(ctx context.Context, path string) (*archdb.Catalog, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatCUE:
		return archdb.LoadCUE(path)
	case FormatYAML:
		return archdb.LoadYAML(path)
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Catalog(ctx)
}

// Machine is an opened CPU database. Close releases the store, if any.
type Machine struct {
	archdb.Database
	closer func() error
}

// Close releases resources held by the database.
func (m *Machine) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer()
}

// Open opens the database of cpu from path. Catalog documents are expanded
// in memory; SQLite stores are queried on demand until Close.
func Open(ctx context.Context, path, cpu string) (*Machine, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, err
	}

	if format == FormatSQLite {
		st, err := store.Open(path)
		if err != nil {
			return nil, err
		}
		m, err := st.Machine(ctx, cpu)
		if err != nil {
			st.Close()
			return nil, err
		}
		return &Machine{Database: m, closer: st.Close}, nil
	}

	cat, err := Catalog(ctx, path)
	if err != nil {
		return nil, err
	}
	m, err := cat.Machine(cpu)
	if err != nil {
		return nil, err
	}
	return &Machine{Database: m}, nil
}
