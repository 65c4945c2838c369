package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/asmop/internal/archdb"
	"github.com/roach88/asmop/internal/archload"
	"github.com/roach88/asmop/internal/insncache"
	"github.com/roach88/asmop/internal/store"
)

// ValidationError is one catalog problem.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Validation error codes.
const (
	ErrCodeLoad    = "E_LOAD"
	ErrCodeCatalog = "E_INVALID_CATALOG"
)

// ImportResult summarizes an import.
type ImportResult struct {
	DB           string   `json:"db"`
	CPUs         []string `json:"cpus"`
	Formats      int      `json:"formats"`
	Instructions int      `json:"instructions"`
}

// InstructionView is one instruction as the resolution engine sees it.
type InstructionView struct {
	Mnemonic string `json:"mnemonic"`
	Opcode   []int  `json:"opcode"`
	Format   string `json:"format"`
	Length   int    `json:"length"`
	Operands int    `json:"operands"`
	Extended bool   `json:"extended,omitempty"`
}

// MachineView describes one CPU.
type MachineView struct {
	Defaults     archdb.Defaults   `json:"defaults"`
	Instructions []InstructionView `json:"instructions,omitempty"`
}

// NewArchCommand creates the arch command and its subcommands.
func NewArchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arch",
		Short: "Manage architecture databases",
		Long: `Validate, import and inspect architecture databases.

A database is a CUE file or directory, a YAML file, or a SQLite store
built with "arch import".`,
	}

	cmd.AddCommand(newArchImportCommand(rootOpts))
	cmd.AddCommand(newArchValidateCommand(rootOpts))
	cmd.AddCommand(newArchShowCommand(rootOpts))

	return cmd
}

func newArchImportCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "import <catalog>",
		Short: "Import a CUE or YAML catalog into a SQLite store",
		Long: `Import a catalog into a SQLite store.

The catalog is validated first. Importing again replaces existing rows,
so the store always mirrors the latest import of each CPU.

Examples:
  asmop arch import s370.cue --db arch.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchImport(cmd.Context(), rootOpts, args[0], dbPath, cmd)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runArchImport(ctx context.Context, opts *RootOptions, path, dbPath string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts, cmd)

	cat, errs := loadAndValidate(ctx, path)
	if len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return outputArchError(formatter, ErrCodeLoad, "failed to open store", err)
	}
	defer st.Close()

	formatter.VerboseLog("Importing %d CPU(s) into %s", len(cat.CPUs), dbPath)
	if err := st.Import(ctx, cat); err != nil {
		return outputArchError(formatter, ErrCodeLoad, "import failed", err)
	}

	result := ImportResult{
		DB:           dbPath,
		CPUs:         cat.CPUNames(),
		Formats:      len(cat.Formats),
		Instructions: len(cat.Instructions),
	}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Imported %d CPU(s), %d format(s), %d instruction(s) into %s\n",
		len(result.CPUs), result.Formats, result.Instructions, dbPath)
	return nil
}

func newArchValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <catalog>",
		Short: "Validate an architecture database",
		Long: `Validate an architecture database without importing it.

Checks that every instruction names a defined format and has a decodable
opcode, that every CPU lists only defined instructions and names a PSW
format, and that format lengths are 2, 4 or 6 bytes.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			formatter := newFormatter(rootOpts, cmd)
			if _, errs := loadAndValidate(ctx, args[0]); len(errs) > 0 {
				return outputValidationErrors(formatter, errs)
			}
			if formatter.JSON() {
				return formatter.Success(ValidationResult{Valid: true})
			}
			fmt.Fprintln(formatter.Writer, "✓ Catalog valid")
			return nil
		},
	}
}

// loadAndValidate loads the catalog at path and reports every problem.
func loadAndValidate(ctx context.Context, path string) (*archdb.Catalog, []ValidationError) {
	cat, err := archload.Catalog(ctx, path)
	if err != nil {
		verr := ValidationError{Code: ErrCodeLoad, Message: err.Error()}
		var cerr *archdb.CompileError
		if errors.As(err, &cerr) && cerr.Pos.IsValid() {
			verr.Line = cerr.Pos.Line()
		}
		return nil, []ValidationError{verr}
	}

	var errs []ValidationError
	for _, err := range cat.Validate() {
		errs = append(errs, ValidationError{Code: ErrCodeCatalog, Message: err.Error()})
	}
	return cat, errs
}

func newArchShowCommand(rootOpts *RootOptions) *cobra.Command {
	var cpu string

	cmd := &cobra.Command{
		Use:   "show <database>",
		Short: "Show the CPUs of a database, or the instructions of one CPU",
		Args:  cobra.ExactArgs(1),
		Long: `Show the CPUs of an architecture database with their defaults.

With --cpu, show that CPU's defaults and every instruction it supports
as the resolution engine builds it (format, length, operand count).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runArchShow(ctx, rootOpts, args[0], cpu, cmd)
		},
	}

	cmd.Flags().StringVar(&cpu, "cpu", "", "CPU to show in detail")

	return cmd
}

func runArchShow(ctx context.Context, opts *RootOptions, path, cpu string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cat, err := archload.Catalog(ctx, path)
	if err != nil {
		return outputArchError(formatter, ErrCodeLoad, "failed to load architecture database", err)
	}

	if cpu == "" {
		views := make([]archdb.Defaults, 0, len(cat.CPUs))
		for _, name := range cat.CPUNames() {
			m, err := cat.Machine(name)
			if err != nil {
				return outputArchError(formatter, ErrCodeCatalog, "invalid cpu", err)
			}
			views = append(views, m.Defaults())
		}
		if formatter.JSON() {
			return formatter.Success(views)
		}
		for _, d := range views {
			fmt.Fprintf(formatter.Writer, "%-12s addrmax=%d ccw=%s psw=%s\n", d.CPU, d.AddrMax, orNone(d.CCW), d.PSW)
		}
		return nil
	}

	m, err := cat.Machine(cpu)
	if err != nil {
		return outputArchError(formatter, ErrCodeLoad, "unknown cpu", err)
	}
	cache := insncache.New(m)
	view := MachineView{Defaults: m.Defaults()}
	for _, mnemonic := range m.Mnemonics() {
		e, err := cache.Lookup(mnemonic)
		if err != nil {
			return outputArchError(formatter, ErrCodeCatalog, "inconsistent instruction", err)
		}
		view.Instructions = append(view.Instructions, InstructionView{
			Mnemonic: e.Mnemonic(),
			Opcode:   e.Opcode(),
			Format:   e.Format(),
			Length:   e.Length(),
			Operands: e.NumOperands(),
			Extended: e.Extended(),
		})
	}

	if formatter.JSON() {
		return formatter.Success(view)
	}
	d := view.Defaults
	fmt.Fprintf(formatter.Writer, "%s addrmax=%d ccw=%s psw=%s\n\n", d.CPU, d.AddrMax, orNone(d.CCW), d.PSW)
	for _, in := range view.Instructions {
		opcode := make([]string, len(in.Opcode))
		for i, b := range in.Opcode {
			opcode[i] = fmt.Sprintf("%02X", b)
		}
		ext := ""
		if in.Extended {
			ext = " extended"
		}
		fmt.Fprintf(formatter.Writer, "%-8s %-6s %-5s len=%d operands=%d%s\n",
			in.Mnemonic, strings.Join(opcode, ""), in.Format, in.Length, in.Operands, ext)
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// outputArchError outputs a command-level error.
func outputArchError(formatter *OutputFormatter, code, message string, err error) error {
	_ = formatter.Error(code, fmt.Sprintf("%s: %v", message, err))
	return WrapExitError(ExitCommandError, message, err)
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []ValidationError) error {
	if formatter.JSON() {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		if err := writeResponse(formatter.Writer, response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
