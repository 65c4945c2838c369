package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/asmop/internal/archload"
	"github.com/roach88/asmop/internal/engine"
	"github.com/roach88/asmop/internal/maclib"
	"github.com/roach88/asmop/internal/scan"
	"github.com/roach88/asmop/internal/xmode"
)

// ClassifyOptions holds flags for the classify command.
type ClassifyOptions struct {
	*RootOptions
	Arch   string   // architecture database path
	CPU    string   // CPU within Arch
	Maclib []string // macro library directories
	CCW    string   // initial CCW setting, overrides the CPU default
	PSW    string   // initial PSW setting, overrides the CPU default
}

// SourceResult is the classification of one source file.
type SourceResult struct {
	Source string           `json:"source"`
	Lines  []map[string]any `json:"lines"`
	Final  string           `json:"final,omitempty"`
	Errors int              `json:"errors"`
}

// NewClassifyCommand creates the classify command.
func NewClassifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClassifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "classify <source>...",
		Short: "Classify the operation field of every source statement",
		Long: `Classify the operation field of every statement in the given sources.

Sources are scanned in order on one engine, so macros, OPSYN synonyms and
XMODE settings carry over from one source to the next. Use "-" to read
standard input.

Exit codes:
  0 - No line diagnostics
  1 - One or more lines could not be classified
  2 - Command error (database not found, unknown CPU, fatal database fault)

Examples:
  asmop classify --arch s370.cue --cpu s370 prog.asm
  asmop classify --arch arch.db --cpu z --maclib ./macros prog.asm
  asmop classify --arch s370.yaml --cpu s370 --psw XA --format json prog.asm`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Arch, "arch", "", "architecture database (.cue, .yaml, .db or CUE directory)")
	cmd.Flags().StringVar(&opts.CPU, "cpu", "", "CPU to assemble for")
	cmd.Flags().StringSliceVar(&opts.Maclib, "maclib", nil, "macro library directory (repeatable)")
	cmd.Flags().StringVar(&opts.CCW, "ccw", "", "initial XMODE CCW setting")
	cmd.Flags().StringVar(&opts.PSW, "psw", "", "initial XMODE PSW setting")
	_ = cmd.MarkFlagRequired("arch")
	_ = cmd.MarkFlagRequired("cpu")

	return cmd
}

func runClassify(ctx context.Context, opts *ClassifyOptions, sources []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	db, err := archload.Open(ctx, opts.Arch, opts.CPU)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open architecture database", err)
	}
	defer db.Close()

	engOpts := []engine.Option{engine.WithLogger(logger)}
	if opts.CCW != "" {
		engOpts = append(engOpts, engine.WithMode(string(xmode.CCW), opts.CCW))
	}
	if opts.PSW != "" {
		engOpts = append(engOpts, engine.WithMode(string(xmode.PSW), opts.PSW))
	}
	eng, err := engine.New(db, engOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create engine", err)
	}
	if len(opts.Maclib) > 0 {
		maclib.New(eng, opts.Maclib, maclib.WithLogger(logger))
	}
	formatter.VerboseLog("run %s: cpu %s, %s", eng.RunID(), opts.CPU, eng.Modes())

	sc := scan.New(eng, scan.WithLogger(logger))
	results := make([]SourceResult, 0, len(sources))
	total := 0
	for _, source := range sources {
		res, err := classifySource(ctx, sc, source, cmd.InOrStdin())
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("classify %s", source), err)
		}
		sr := SourceResult{Source: source, Lines: make([]map[string]any, len(res.Lines))}
		for i, c := range res.Lines {
			sr.Lines[i] = c.Map()
		}
		if res.Final != nil {
			sr.Final = res.Final.Error()
		}
		sr.Errors = len(res.Errors())
		total += sr.Errors
		results = append(results, sr)

		if opts.Format != "json" {
			writeClassifyText(cmd.OutOrStdout(), res)
		}
	}

	if opts.Format == "json" {
		return outputClassifyJSON(cmd, eng.RunID(), results, total)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n%d sources, %d diagnostics\n", len(results), total)
	if total > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d diagnostic(s)", total))
	}
	return nil
}

// classifySource scans one source, "-" being stdin.
func classifySource(ctx context.Context, sc *scan.Scanner, source string, stdin io.Reader) (*scan.Result, error) {
	if source == "-" {
		return sc.Run(ctx, stdin, "stdin")
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return sc.Run(ctx, f, source)
}

func writeClassifyText(w io.Writer, res *scan.Result) {
	for _, c := range res.Lines {
		d := c.Descriptor
		fmt.Fprintf(w, "%-16s %-16s %s %s\n", c.At, d.Kind, d.Attr, d.Name)
		if c.Err != nil {
			fmt.Fprintf(w, "  error: %v\n", c.Err)
		}
	}
	if res.Final != nil {
		fmt.Fprintf(w, "error: %v\n", res.Final)
	}
}

func outputClassifyJSON(cmd *cobra.Command, runID string, results []SourceResult, total int) error {
	response := CLIResponse{
		Status: "ok",
		Data:   results,
		RunID:  runID,
	}
	if total > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_CLASSIFY",
			Message: fmt.Sprintf("%d diagnostic(s)", total),
		}
	}

	if err := writeResponse(cmd.OutOrStdout(), response); err != nil {
		return err
	}
	if total > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d diagnostic(s)", total))
	}
	return nil
}
