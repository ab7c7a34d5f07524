package tree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// FromAny converts decoded JSON or YAML data into a Value.
func FromAny(data any) (Value, error) {
	switch d := data.(type) {
	case nil:
		return Null(), nil
	case Value:
		return d, nil
	case string:
		return String(d), nil
	case bool:
		return Bool(d), nil
	case json.Number:
		return Number(d), nil
	case int:
		return Int(d), nil
	case int64:
		return Number(json.Number(strconv.FormatInt(d, 10))), nil
	case uint64:
		return Number(json.Number(strconv.FormatUint(d, 10))), nil
	case float64:
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return Value{}, fmt.Errorf("unsupported number %v", d)
		}
		return Number(json.Number(strconv.FormatFloat(d, 'f', -1, 64))), nil
	case time.Time:
		return String(d.UTC().Format(time.RFC3339)), nil
	case []any:
		items := make([]Value, 0, len(d))
		for i, item := range d {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items = append(items, v)
		}
		return Value{kind: KindSequence, seq: items}, nil
	case map[string]any:
		m := make(map[string]Value, len(d))
		for k, item := range d {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			m[k] = v
		}
		return Value{kind: KindMapping, mapping: m}, nil
	case map[any]any:
		m := make(map[string]Value, len(d))
		for k, item := range d {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("%v: %w", k, err)
			}
			m[fmt.Sprint(k)] = v
		}
		return Value{kind: KindMapping, mapping: m}, nil
	default:
		return Value{}, fmt.Errorf("unsupported document type %T", data)
	}
}

// ToAny converts v into plain Go data suitable for encoding/json.
func (v Value) ToAny() any {
	switch v.kind {
	case KindScalar:
		return v.scalar
	case KindSequence:
		out := make([]any, len(v.seq))
		for i, item := range v.seq {
			out[i] = item.ToAny()
		}
		return out
	case KindMapping:
		out := make(map[string]any, len(v.mapping))
		for k, child := range v.mapping {
			out[k] = child.ToAny()
		}
		return out
	default:
		return nil
	}
}

// ParseJSON decodes a single JSON document. Numbers keep their decimal text.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Value{}, fmt.Errorf("decode json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, errors.New("decode json: trailing data after document")
	}
	return FromAny(raw)
}

// ParseYAML decodes a single YAML document.
func ParseYAML(data []byte) (Value, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Value{}, fmt.Errorf("decode yaml: %w", err)
	}
	return FromAny(raw)
}

// MarshalJSON encodes v with sorted mapping keys.
func (v Value) MarshalJSON() ([]byte, error) {
	return Canonical(v.ToAny())
}

// UnmarshalJSON decodes JSON into v.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Decode converts v into the typed document out via its JSON form.
func (v Value) Decode(out any) error {
	data, err := Canonical(v.ToAny())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// FromStruct converts a typed document into a Value via its JSON form.
func FromStruct(in any) (Value, error) {
	data, err := Canonical(in)
	if err != nil {
		return Value{}, err
	}
	return ParseJSON(data)
}
