package harness

import (
	"github.com/roach88/asmop/internal/scan"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion holds.
	Pass bool `json:"pass"`

	// RunID is the id of the engine run.
	RunID string `json:"run_id"`

	// Lines contains the classification of every source line in order.
	Lines []scan.Classification `json:"-"`

	// Final reports a macro definition left open at end of source.
	Final string `json:"final,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Trace renders every line in the canonical trace form.
func (r *Result) Trace() []any {
	trace := make([]any, len(r.Lines))
	for i, c := range r.Lines {
		trace[i] = c.Map()
	}
	return trace
}
