package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/asmop/internal/archdb"
	"github.com/roach88/asmop/internal/ir"
)

// marshalOperands converts format operands to canonical JSON TEXT.
func marshalOperands(ops []archdb.Operand) (string, error) {
	arr := make([]any, len(ops))
	for i, o := range ops {
		arr[i] = map[string]any{"name": o.Name, "type": o.Type}
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal operands: %w", err)
	}
	return string(data), nil
}

// marshalFixed converts fixed-field assignments to canonical JSON TEXT.
func marshalFixed(fixed map[string]int) (string, error) {
	m := make(map[string]any, len(fixed))
	for k, v := range fixed {
		m[k] = v
	}
	data, err := ir.MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("marshal fixed fields: %w", err)
	}
	return string(data), nil
}

// marshalFilters converts operand filters to canonical JSON TEXT.
func marshalFilters(filters map[string]string) (string, error) {
	m := make(map[string]any, len(filters))
	for k, v := range filters {
		m[k] = v
	}
	data, err := ir.MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("marshal filters: %w", err)
	}
	return string(data), nil
}

// unmarshalOperands parses an operands column.
func unmarshalOperands(data string) ([]archdb.Operand, error) {
	var ops []archdb.Operand
	if err := json.Unmarshal([]byte(data), &ops); err != nil {
		return nil, fmt.Errorf("unmarshal operands: %w", err)
	}
	return ops, nil
}

// unmarshalFixed parses a fixed column. An empty object yields nil.
func unmarshalFixed(data string) (map[string]int, error) {
	var m map[string]int
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("unmarshal fixed fields: %w", err)
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}

// unmarshalFilters parses a filters column. An empty object yields nil.
func unmarshalFilters(data string) (map[string]string, error) {
	var m map[string]string
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("unmarshal filters: %w", err)
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}
