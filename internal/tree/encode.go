package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Canonical encodes data as compact JSON with sorted mapping keys and without
// HTML escaping. Equal documents always produce identical bytes.
func Canonical(data any) ([]byte, error) {
	plain, err := normalize(data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(plain); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Pretty encodes data as two-space indented JSON with sorted keys and a
// trailing newline. Artifacts on disk use this form.
func Pretty(data any) ([]byte, error) {
	compact, err := Canonical(data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, fmt.Errorf("indent json: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// EstimateTokens returns ceil(len(canonical JSON)/4).
func EstimateTokens(data any) (int, error) {
	encoded, err := Canonical(data)
	if err != nil {
		return 0, err
	}
	return (len(encoded) + 3) / 4, nil
}

// normalize reduces data to maps, slices and scalars so struct fields are
// emitted in sorted key order like any other mapping.
func normalize(data any) (any, error) {
	switch v := data.(type) {
	case Value:
		return v.ToAny(), nil
	case nil, string, bool, json.Number, map[string]any, []any:
		return v, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var plain any
	if err := dec.Decode(&plain); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return plain, nil
}
