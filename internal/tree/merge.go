package tree

import "sort"

// Merge overlays override onto def. When present is false the default is
// returned unchanged. Mappings merge key by key; sequences and scalars in the
// override replace the default wholesale; keys absent from the override keep
// their default values.
func Merge(def, override Value, present bool) Value {
	if !present {
		return def
	}
	if def.kind != KindMapping || override.kind != KindMapping {
		return override
	}
	merged := make(map[string]Value, len(def.mapping)+len(override.mapping))
	for k, v := range def.mapping {
		merged[k] = v
	}
	for k, v := range override.mapping {
		if existing, ok := merged[k]; ok {
			merged[k] = Merge(existing, v, true)
			continue
		}
		merged[k] = v
	}
	return Value{kind: KindMapping, mapping: merged}
}

// DiffKeys returns the sorted dotted paths at which before and after differ.
// Mappings are compared key by key; any other difference is reported at the
// path of the differing node.
func DiffKeys(before, after Value) []string {
	var out []string
	diffInto(&out, "", before, after)
	sort.Strings(out)
	return out
}

func diffInto(out *[]string, prefix string, before, after Value) {
	if before.kind == KindMapping && after.kind == KindMapping {
		keys := map[string]struct{}{}
		for k := range before.mapping {
			keys[k] = struct{}{}
		}
		for k := range after.mapping {
			keys[k] = struct{}{}
		}
		for k := range keys {
			b, bok := before.mapping[k]
			a, aok := after.mapping[k]
			path := joinPath(prefix, k)
			if bok != aok {
				*out = append(*out, path)
				continue
			}
			diffInto(out, path, b, a)
		}
		return
	}
	if !before.Equal(after) {
		*out = append(*out, prefix)
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
