package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/asmop/internal/ir"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Arch is the architecture database path (CUE, YAML or SQLite).
	// Relative paths are resolved against the scenario file location.
	Arch string `yaml:"arch"`

	// CPU selects the processor within Arch.
	CPU string `yaml:"cpu"`

	// Maclib lists macro library directories, searched in order.
	Maclib []string `yaml:"maclib,omitempty"`

	// Modes overrides the initial XMODE settings, keyed by category.
	Modes map[string]string `yaml:"modes,omitempty"`

	// Source is the program text. Lines are numbered from 1.
	Source string `yaml:"source"`

	// SourceName names the program in locations. Defaults to Name + ".asm".
	SourceName string `yaml:"source_name,omitempty"`

	// Assertions validate the classifications and final engine state.
	Assertions []Assertion `yaml:"assertions"`

	// RunID is an optional fixed run id for deterministic tests.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`
}

// Assertion validates a classification or the final engine state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "line_kind": line Line classified as Kind (and Attr when given)
	// - "line_error": line Line has an error with Code (any error when empty)
	// - "error_count": exactly Count lines have errors
	// - "macro_xref": macro Macro has cross-reference Markers
	// - "synonym": alias Alias is in State (and resolves to Kind when given)
	// - "mode": category Category maps to Value ("none" for no mapping)
	// - "attribute": Name has O' attribute Attr at end of run
	Type string `yaml:"type"`

	Line     int      `yaml:"line,omitempty"`
	Kind     string   `yaml:"kind,omitempty"`
	Attr     string   `yaml:"attr,omitempty"`
	Code     string   `yaml:"code,omitempty"`
	Count    int      `yaml:"count,omitempty"`
	Macro    string   `yaml:"macro,omitempty"`
	Markers  []string `yaml:"markers,omitempty"`
	Alias    string   `yaml:"alias,omitempty"`
	State    string   `yaml:"state,omitempty"`
	Category string   `yaml:"category,omitempty"`
	Value    string   `yaml:"value,omitempty"`
	Name     string   `yaml:"name,omitempty"`
}

// Assertion type constants.
const (
	AssertLineKind   = "line_kind"
	AssertLineError  = "line_error"
	AssertErrorCount = "error_count"
	AssertMacroXRef  = "macro_xref"
	AssertSynonym    = "synonym"
	AssertMode       = "mode"
	AssertAttribute  = "attribute"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
//
// Relative arch and maclib paths are resolved against the directory of path.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	if scenario.Arch != "" && !filepath.IsAbs(scenario.Arch) {
		scenario.Arch = filepath.Join(base, scenario.Arch)
	}
	for i, dir := range scenario.Maclib {
		if !filepath.IsAbs(dir) {
			scenario.Maclib[i] = filepath.Join(base, dir)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Arch == "" {
		return fmt.Errorf("arch is required")
	}
	if _, err := os.Stat(s.Arch); os.IsNotExist(err) {
		return fmt.Errorf("architecture database not found: %s", s.Arch)
	}

	if s.CPU == "" {
		return fmt.Errorf("cpu is required")
	}

	if s.Source == "" {
		return fmt.Errorf("source is required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertLineKind:
		if a.Line <= 0 || a.Kind == "" {
			return fmt.Errorf("assertions[%d]: line and kind are required for line_kind", index)
		}
		if _, ok := kindByName[a.Kind]; !ok {
			return fmt.Errorf("assertions[%d]: unknown kind %q", index, a.Kind)
		}
	case AssertLineError:
		if a.Line <= 0 {
			return fmt.Errorf("assertions[%d]: line is required for line_error", index)
		}
	case AssertErrorCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for error_count", index)
		}
	case AssertMacroXRef:
		if a.Macro == "" {
			return fmt.Errorf("assertions[%d]: macro is required for macro_xref", index)
		}
	case AssertSynonym:
		if a.Alias == "" || a.State == "" {
			return fmt.Errorf("assertions[%d]: alias and state are required for synonym", index)
		}
	case AssertMode:
		if a.Category == "" || a.Value == "" {
			return fmt.Errorf("assertions[%d]: category and value are required for mode", index)
		}
	case AssertAttribute:
		if a.Name == "" || a.Attr == "" {
			return fmt.Errorf("assertions[%d]: name and attr are required for attribute", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// kindByName indexes every kind by its trace name.
var kindByName = func() map[string]ir.Kind {
	m := map[string]ir.Kind{ir.KindUnknown.String(): ir.KindUnknown}
	for _, k := range ir.Kinds() {
		m[k.String()] = k
	}
	return m
}()
