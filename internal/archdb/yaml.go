package archdb

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlCatalog is the on-disk YAML shape. Map keys supply the ids.
type yamlCatalog struct {
	CPUs         map[string]CPU               `yaml:"cpus"`
	Formats      map[string]FormatRecord      `yaml:"formats"`
	Instructions map[string]InstructionRecord `yaml:"instructions"`
}

// LoadYAML reads a catalog from a YAML file.
func LoadYAML(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML parses a catalog document. Unknown fields are rejected.
func ParseYAML(data []byte) (*Catalog, error) {
	var doc yamlCatalog
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cat := NewCatalog()
	for id, cpu := range doc.CPUs {
		cpu.ID = id
		cat.CPUs[id] = cpu
	}
	for id, f := range doc.Formats {
		f.ID = id
		cat.Formats[id] = f
	}
	for m, rec := range doc.Instructions {
		rec.Mnemonic = strings.ToUpper(m)
		cat.Instructions[rec.Mnemonic] = rec
	}
	return cat, nil
}
