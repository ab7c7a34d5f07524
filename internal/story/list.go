package story

import (
	"encoding/json"
	"strings"

	"storycodex/internal/tree"
)

// StringList decodes either a single string or a list of scalars.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	v, err := tree.ParseJSON(data)
	if err != nil {
		return err
	}
	*l = listFromValue(v)
	return nil
}

func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func listFromValue(v tree.Value) StringList {
	switch v.Kind() {
	case tree.KindNull:
		return nil
	case tree.KindSequence:
		out := make(StringList, 0, v.Len())
		for _, item := range v.Items() {
			if text := strings.TrimSpace(item.Text()); text != "" {
				out = append(out, text)
			}
		}
		return out
	default:
		if text := strings.TrimSpace(v.Text()); text != "" {
			return StringList{text}
		}
		return nil
	}
}

// AppendUnique appends the entries of extra missing from base, keeping order.
func AppendUnique(base []string, extra ...string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, item := range append(append([]string{}, base...), extra...) {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
