package archdb

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// CompileError represents a catalog error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadCUE loads a catalog from a CUE file or from every CUE file of a directory.
func LoadCUE(path string) (*Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access catalog: %w", err)
	}

	ctx := cuecontext.New()
	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog file: %w", err)
		}
		return CompileCUE(ctx.CompileBytes(data, cue.Filename(filepath.Base(path))))
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: path})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", path)
	}
	if inst := instances[0]; inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}
	return CompileCUE(ctx.BuildInstance(instances[0]))
}

// CompileCUE converts a CUE value into a Catalog.
//
// The value has three optional structs keyed by id:
//
//	cpus: s370: {addrmax: 24, ccw: "CCW0", psw: "PSWBC", instructions: ["LR"]}
//	formats: RR: {length: 2, operands: [{name: "R1", type: "R"}, {name: "R2", type: "R"}]}
//	instructions: LR: {opcode: "18", format: "RR"}
func CompileCUE(v cue.Value) (*Catalog, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	cat := NewCatalog()
	if err := eachField(v, "cpus", func(id string, fv cue.Value) error {
		cpu, err := compileCPU(id, fv)
		if err != nil {
			return err
		}
		cat.CPUs[id] = cpu
		return nil
	}); err != nil {
		return nil, err
	}
	if err := eachField(v, "formats", func(id string, fv cue.Value) error {
		f, err := compileFormat(id, fv)
		if err != nil {
			return err
		}
		cat.Formats[id] = f
		return nil
	}); err != nil {
		return nil, err
	}
	if err := eachField(v, "instructions", func(id string, fv cue.Value) error {
		rec, err := compileInstruction(id, fv)
		if err != nil {
			return err
		}
		cat.Instructions[rec.Mnemonic] = rec
		return nil
	}); err != nil {
		return nil, err
	}
	return cat, nil
}

// eachField calls fn for every field of the struct at path. A missing struct is not an error.
func eachField(v cue.Value, path string, fn func(string, cue.Value) error) error {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return nil
	}
	iter, err := sv.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if err := fn(iter.Selector().Unquoted(), iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func compileCPU(id string, v cue.Value) (CPU, error) {
	cpu := CPU{ID: id}
	var err error

	if cpu.AddrMax, err = requiredInt(v, "addrmax", "cpus."+id); err != nil {
		return cpu, err
	}
	if cpu.PSW, err = requiredString(v, "psw", "cpus."+id); err != nil {
		return cpu, err
	}
	if cpu.CCW, err = optionalString(v, "ccw"); err != nil {
		return cpu, err
	}

	list := v.LookupPath(cue.ParsePath("instructions"))
	if !list.Exists() {
		return cpu, nil
	}
	iter, err := list.List()
	if err != nil {
		return cpu, formatCUEError(err)
	}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return cpu, formatCUEError(err)
		}
		cpu.Instructions = append(cpu.Instructions, strings.ToUpper(s))
	}
	return cpu, nil
}

func compileFormat(id string, v cue.Value) (FormatRecord, error) {
	f := FormatRecord{ID: id}
	var err error

	if f.Length, err = requiredInt(v, "length", "formats."+id); err != nil {
		return f, err
	}

	ops := v.LookupPath(cue.ParsePath("operands"))
	if !ops.Exists() {
		return f, nil
	}
	iter, err := ops.List()
	if err != nil {
		return f, formatCUEError(err)
	}
	for iter.Next() {
		ov := iter.Value()
		name, err := requiredString(ov, "name", "formats."+id+".operands")
		if err != nil {
			return f, err
		}
		typ, err := requiredString(ov, "type", "formats."+id+".operands")
		if err != nil {
			return f, err
		}
		f.Operands = append(f.Operands, Operand{Name: name, Type: typ})
	}
	return f, nil
}

func compileInstruction(id string, v cue.Value) (InstructionRecord, error) {
	rec := InstructionRecord{Mnemonic: strings.ToUpper(id)}
	field := "instructions." + id
	var err error

	if rec.Opcode, err = requiredString(v, "opcode", field); err != nil {
		return rec, err
	}
	if rec.Format, err = requiredString(v, "format", field); err != nil {
		return rec, err
	}

	if ev := v.LookupPath(cue.ParsePath("extended")); ev.Exists() {
		if rec.Extended, err = ev.Bool(); err != nil {
			return rec, formatCUEError(err)
		}
	}

	if err := eachField(v, "fixed", func(name string, fv cue.Value) error {
		n, err := fv.Int64()
		if err != nil {
			return formatCUEError(err)
		}
		if rec.Fixed == nil {
			rec.Fixed = make(map[string]int)
		}
		rec.Fixed[name] = int(n)
		return nil
	}); err != nil {
		return rec, err
	}

	if err := eachField(v, "filters", func(name string, fv cue.Value) error {
		s, err := fv.String()
		if err != nil {
			return formatCUEError(err)
		}
		if rec.Filters == nil {
			rec.Filters = make(map[string]string)
		}
		rec.Filters[name] = s
		return nil
	}); err != nil {
		return rec, err
	}

	return rec, nil
}

func requiredString(v cue.Value, name, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return "", &CompileError{Field: field + "." + name, Message: name + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, name string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func requiredInt(v cue.Value, name, field string) (int, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return 0, &CompileError{Field: field + "." + name, Message: name + " is required", Pos: v.Pos()}
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return int(n), nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
