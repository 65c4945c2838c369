package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/roach88/asmop/internal/archload"
	"github.com/roach88/asmop/internal/engine"
	"github.com/roach88/asmop/internal/maclib"
	"github.com/roach88/asmop/internal/scan"
	"github.com/roach88/asmop/internal/testutil"
)

// Run executes a test scenario and returns the result.
//
// Each scenario runs on a fresh engine with a fixed run id.
//
// Execution flow:
// 1. Open the architecture database for the scenario CPU
// 2. Create the engine with XMODE overrides and the macro library
// 3. Scan the source
// 4. Evaluate assertions against the lines and the engine state
//
// Per-line diagnostics are part of the result, not errors. Run fails only
// when the scenario cannot be set up or the scan is aborted by a fatal
// error.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	db, err := archload.Open(ctx, scenario.Arch, scenario.CPU)
	if err != nil {
		return nil, fmt.Errorf("failed to open architecture database: %w", err)
	}
	defer db.Close()

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithRunID(testutil.NewFixedRunID(scenario.RunID)),
	}
	categories := make([]string, 0, len(scenario.Modes))
	for c := range scenario.Modes {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		opts = append(opts, engine.WithMode(c, scenario.Modes[c]))
	}
	eng, err := engine.New(db, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	if len(scenario.Maclib) > 0 {
		maclib.New(eng, scenario.Maclib, maclib.WithLogger(logger))
	}

	source := scenario.SourceName
	if source == "" {
		source = scenario.Name + ".asm"
	}
	res, err := scan.New(eng, scan.WithLogger(logger)).Run(ctx, strings.NewReader(scenario.Source), source)
	if err != nil {
		return nil, fmt.Errorf("scan aborted: %w", err)
	}

	result := NewResult()
	result.RunID = eng.RunID()
	result.Lines = res.Lines
	if res.Final != nil {
		result.Final = res.Final.Error()
	}

	actx := &AssertionContext{Engine: eng, Lines: res.Lines}
	for _, errMsg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}
