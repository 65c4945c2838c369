// Package maclib loads macro definitions from library member files.
package maclib

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/asmop/internal/engine"
	"github.com/roach88/asmop/internal/ir"
	"github.com/roach88/asmop/internal/macro"
	"github.com/roach88/asmop/internal/scan"
)

// Loader finds macro library members in a list of directories and defines
// the macros they contain in an engine's registry.
type Loader struct {
	eng    *engine.Engine
	dirs   []string
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates a loader searching dirs in order and attaches it to eng.
func New(eng *engine.Engine, dirs []string, opts ...Option) *Loader {
	l := &Loader{
		eng:    eng,
		dirs:   dirs,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	eng.AttachLibrary(l)
	return l
}

// Member returns the path of the library member for name.
// Candidates in each directory are <name>.mac, <NAME>.MAC and <name>.
func (l *Loader) Member(name string) (string, error) {
	candidates := []string{strings.ToLower(name) + ".mac", strings.ToUpper(name) + ".MAC", name}
	for _, dir := range l.dirs {
		for _, c := range candidates {
			path := filepath.Join(dir, c)
			info, err := os.Stat(path)
			if err == nil && !info.IsDir() {
				return path, nil
			}
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("checking %s: %w", path, err)
			}
		}
	}
	return "", fmt.Errorf("member %s not found in library path %s", name, strings.Join(l.dirs, string(filepath.ListSeparator)))
}

// LoadMacro implements macro.Loader.
//
// The whole member is scanned before anything is registered: a member that
// fails to scan, or that does not define name, leaves the registry
// unchanged. Errors are LibraryLoad errors whose Member is the member line
// at fault when there is one.
func (l *Loader) LoadMacro(ctx context.Context, name string) error {
	path, err := l.Member(name)
	if err != nil {
		return ir.NewLibraryLoad(name, nil, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return ir.NewLibraryLoad(name, nil, err)
	}
	defer f.Close()

	var defined []*ir.MacroInfo
	sc := scan.New(l.eng, scan.WithLogger(l.logger), scan.WithLibrary(func(m *ir.MacroInfo) {
		defined = append(defined, m)
	}))
	res, err := sc.Run(ctx, f, filepath.Base(path))
	if err != nil {
		if ir.IsFatal(err) {
			return err
		}
		return ir.NewLibraryLoad(name, nil, err)
	}
	for _, c := range res.Lines {
		if c.Err != nil {
			at := c.At
			return ir.NewLibraryLoad(name, &at, c.Err)
		}
	}
	if res.Final != nil {
		var de *macro.DefinitionError
		if errors.As(res.Final, &de) {
			at := de.At
			return ir.NewLibraryLoad(name, &at, res.Final)
		}
		return ir.NewLibraryLoad(name, nil, res.Final)
	}

	found := false
	for _, m := range defined {
		if m.Name == name {
			found = true
		}
	}
	if !found {
		return ir.NewLibraryLoad(name, nil, fmt.Errorf("member %s does not define macro %s", filepath.Base(path), name))
	}

	for _, m := range defined {
		l.eng.Registry().Define(m)
	}
	l.logger.Debug("library member loaded", "name", name, "path", path, "macros", len(defined))
	return nil
}
