// Package harness provides a conformance testing framework for operation
// field resolution.
//
// A scenario names an architecture database, a CPU, optional macro library
// directories and XMODE overrides, and a source program. Run scans the
// program through a fresh engine and evaluates the scenario's assertions
// against the per-line classifications and the final engine state.
//
// Runs are deterministic: the run id is fixed (scenario run_id or
// "test-run-default") and classifications are rendered as canonical JSON,
// so traces can be compared byte for byte against golden files.
package harness
