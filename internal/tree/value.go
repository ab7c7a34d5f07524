package tree

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindScalar
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "null"
	}
}

// Value is a document node: a mapping, a sequence, a scalar, or null.
// Scalars hold string, bool, or json.Number. The zero Value is null.
type Value struct {
	kind    Kind
	scalar  any
	seq     []Value
	mapping map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string scalar.
func String(s string) Value { return Value{kind: KindScalar, scalar: s} }

// Bool returns a boolean scalar.
func Bool(b bool) Value { return Value{kind: KindScalar, scalar: b} }

// Int returns a numeric scalar.
func Int(n int) Value { return Value{kind: KindScalar, scalar: json.Number(strconv.Itoa(n))} }

// Number returns a numeric scalar from its decimal text.
func Number(n json.Number) Value { return Value{kind: KindScalar, scalar: n} }

// Sequence returns a sequence holding items.
func Sequence(items ...Value) Value {
	seq := make([]Value, len(items))
	copy(seq, items)
	return Value{kind: KindSequence, seq: seq}
}

// Mapping returns a mapping holding a copy of entries.
func Mapping(entries map[string]Value) Value {
	m := make(map[string]Value, len(entries))
	for k, v := range entries {
		m[k] = v
	}
	return Value{kind: KindMapping, mapping: m}
}

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsMapping reports whether v is a mapping.
func (v Value) IsMapping() bool { return v.kind == KindMapping }

// Len returns the number of entries of a mapping or items of a sequence.
func (v Value) Len() int {
	switch v.kind {
	case KindMapping:
		return len(v.mapping)
	case KindSequence:
		return len(v.seq)
	default:
		return 0
	}
}

// Keys returns the mapping keys in sorted order.
func (v Value) Keys() []string {
	if v.kind != KindMapping {
		return nil
	}
	keys := make([]string, 0, len(v.mapping))
	for k := range v.mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the mapping entry for key.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Value{}, false
	}
	child, ok := v.mapping[key]
	return child, ok
}

// Items returns the sequence items.
func (v Value) Items() []Value {
	if v.kind != KindSequence {
		return nil
	}
	out := make([]Value, len(v.seq))
	copy(out, v.seq)
	return out
}

// Lookup walks a dotted path of mapping keys.
func (v Value) Lookup(path string) (Value, bool) {
	current := v
	for _, part := range strings.Split(path, ".") {
		next, ok := current.Get(part)
		if !ok {
			return Value{}, false
		}
		current = next
	}
	return current, true
}

// Set returns a copy of the mapping v with key bound to child. A non-mapping v
// is treated as an empty mapping.
func (v Value) Set(key string, child Value) Value {
	m := make(map[string]Value, v.Len()+1)
	if v.kind == KindMapping {
		for k, existing := range v.mapping {
			m[k] = existing
		}
	}
	m[key] = child
	return Value{kind: KindMapping, mapping: m}
}

// Text returns the scalar rendered as text. Null and containers yield "".
func (v Value) Text() string {
	if v.kind != KindScalar {
		return ""
	}
	switch s := v.scalar.(type) {
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case json.Number:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}

// StringValue returns the scalar if it is a string.
func (v Value) StringValue() (string, bool) {
	s, ok := v.scalar.(string)
	return s, ok && v.kind == KindScalar
}

// IntValue returns the scalar as an int if it is an integral number.
func (v Value) IntValue() (int, bool) {
	n, ok := v.scalar.(json.Number)
	if !ok || v.kind != KindScalar {
		return 0, false
	}
	i, err := strconv.Atoi(n.String())
	if err != nil {
		return 0, false
	}
	return i, true
}

// Truthy reports whether v is present and non-empty: a non-blank string, true,
// a non-zero number, or a non-empty container.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindScalar:
		switch s := v.scalar.(type) {
		case string:
			return strings.TrimSpace(s) != ""
		case bool:
			return s
		case json.Number:
			f, err := s.Float64()
			return err == nil && f != 0
		}
		return true
	case KindMapping, KindSequence:
		return v.Len() > 0
	default:
		return false
	}
}

// Equal reports deep equality.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindScalar:
		return scalarEqual(v.scalar, other.scalar)
	case KindSequence:
		if len(v.seq) != len(other.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(other.seq[i]) {
				return false
			}
		}
		return true
	default:
		if len(v.mapping) != len(other.mapping) {
			return false
		}
		for k, child := range v.mapping {
			o, ok := other.mapping[k]
			if !ok || !child.Equal(o) {
				return false
			}
		}
		return true
	}
}

func scalarEqual(a, b any) bool {
	an, aNum := a.(json.Number)
	bn, bNum := b.(json.Number)
	if aNum && bNum {
		af, aerr := an.Float64()
		bf, berr := bn.Float64()
		if aerr == nil && berr == nil {
			return af == bf
		}
		return an == bn
	}
	return a == b
}
