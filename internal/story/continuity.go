package story

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"storycodex/internal/services"
	"storycodex/internal/tree"
)

// Fact is one recorded "entity.attribute" value.
type Fact struct {
	Key       string
	Entity    string
	Attribute string
	Value     tree.Value
	// Keywords are extra cue words for the attribute.
	Keywords []string
}

// SplitFactKey splits "entity.attribute" at the first dot.
func SplitFactKey(key string) (entity, attribute string, ok bool) {
	entity, attribute, ok = strings.Cut(strings.TrimSpace(key), ".")
	if !ok || entity == "" || attribute == "" {
		return "", "", false
	}
	return entity, attribute, true
}

// Facts is the continuity fact table, kept sorted by key.
type Facts struct {
	Version int
	Items   []Fact
}

// Lookup returns the fact recorded under key.
func (f Facts) Lookup(key string) (Fact, bool) {
	idx := sort.Search(len(f.Items), func(i int) bool { return f.Items[i].Key >= key })
	if idx < len(f.Items) && f.Items[idx].Key == key {
		return f.Items[idx], true
	}
	return Fact{}, false
}

// Entities returns the distinct entity ids that have facts, sorted.
func (f Facts) Entities() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, fact := range f.Items {
		if _, ok := seen[fact.Entity]; ok {
			continue
		}
		seen[fact.Entity] = struct{}{}
		out = append(out, fact.Entity)
	}
	sort.Strings(out)
	return out
}

func (f *Facts) UnmarshalJSON(data []byte) error {
	doc, err := tree.ParseJSON(data)
	if err != nil {
		return err
	}
	parsed, err := FactsFromTree(doc)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func (f Facts) MarshalJSON() ([]byte, error) {
	entries := make(map[string]any, len(f.Items))
	for _, fact := range f.Items {
		if len(fact.Keywords) == 0 {
			entries[fact.Key] = fact.Value
			continue
		}
		entries[fact.Key] = map[string]any{"value": fact.Value, "keywords": fact.Keywords}
	}
	return json.Marshal(map[string]any{"version": f.Version, "facts": entries})
}

// FactsFromTree reads {version, facts:{"entity.attribute": value | {value, keywords}}}.
func FactsFromTree(doc tree.Value) (Facts, error) {
	if !doc.IsMapping() {
		return Facts{}, &services.SchemaError{Kind: "facts", Detail: "document must be an object"}
	}
	out := Facts{Version: 1}
	if v, ok := doc.Get("version"); ok {
		if n, ok := v.IntValue(); ok {
			out.Version = n
		}
	}
	table, ok := doc.Get("facts")
	if !ok || table.IsNull() {
		return out, nil
	}
	if !table.IsMapping() {
		return Facts{}, &services.SchemaError{Kind: "facts", Detail: "facts must be an object keyed by entity.attribute"}
	}
	problems := schemaProblems{kind: "facts"}
	for _, key := range table.Keys() {
		entity, attribute, ok := SplitFactKey(key)
		if !ok {
			problems.addf("fact key %q must be entity.attribute", key)
			continue
		}
		raw, _ := table.Get(key)
		fact := Fact{Key: key, Entity: entity, Attribute: attribute, Value: raw}
		if raw.IsMapping() {
			if value, ok := raw.Get("value"); ok {
				fact.Value = value
				if kw, ok := raw.Get("keywords"); ok {
					fact.Keywords = listFromValue(kw)
				}
			}
		}
		out.Items = append(out.Items, fact)
	}
	if err := problems.err(); err != nil {
		return Facts{}, err
	}
	return out, nil
}

// Lock severities.
const (
	SeverityMust   = "must"
	SeverityShould = "should"
)

// Lock marks a fact or statement as non-negotiable.
type Lock struct {
	ID        string      `json:"id"`
	Key       string      `json:"key,omitempty"`
	Value     *tree.Value `json:"value,omitempty"`
	Statement string      `json:"statement"`
	Severity  string      `json:"severity"`
	Tags      StringList  `json:"tags"`
}

// HasTag reports whether the lock carries tag.
func (l Lock) HasTag(tag string) bool {
	for _, t := range l.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// NormalizeLock accepts the loose lock shapes found in hand-written files:
// lock_id for id, text for statement, unknown severities as should, and bare
// strings as statements.
func NormalizeLock(v tree.Value) Lock {
	if !v.IsMapping() {
		return Lock{ID: "unknown", Statement: v.Text(), Severity: SeverityShould, Tags: StringList{}}
	}
	text := func(keys ...string) string {
		for _, key := range keys {
			if child, ok := v.Get(key); ok && !child.IsNull() {
				return strings.TrimSpace(child.Text())
			}
		}
		return ""
	}
	lock := Lock{
		ID:        text("id", "lock_id"),
		Key:       text("key", "fact_key"),
		Statement: text("statement", "text"),
		Severity:  strings.ToLower(text("severity")),
		Tags:      StringList{},
	}
	if lock.ID == "" {
		lock.ID = "unknown"
	}
	if lock.Severity != SeverityMust && lock.Severity != SeverityShould {
		lock.Severity = SeverityShould
	}
	if value, ok := v.Get("value"); ok && !value.IsNull() {
		lock.Value = &value
	}
	if tags, ok := v.Get("tags"); ok {
		if list := listFromValue(tags); list != nil {
			lock.Tags = list
		}
	}
	if lock.Statement == "" && lock.Key != "" && lock.Value != nil {
		lock.Statement = fmt.Sprintf("%s is %s", lock.Key, lock.Value.Text())
	}
	return lock
}

// Locks is the continuity lock list.
type Locks struct {
	Version int    `json:"version"`
	Locks   []Lock `json:"locks"`
}

func (l *Locks) UnmarshalJSON(data []byte) error {
	doc, err := tree.ParseJSON(data)
	if err != nil {
		return err
	}
	*l = LocksFromTree(doc)
	return nil
}

// LocksFromTree reads {version, locks:[...]}, {items:[...]} or a bare list.
func LocksFromTree(doc tree.Value) Locks {
	out := Locks{Version: 1, Locks: []Lock{}}
	var items []tree.Value
	switch doc.Kind() {
	case tree.KindSequence:
		items = doc.Items()
	case tree.KindMapping:
		if v, ok := doc.Get("version"); ok {
			if n, ok := v.IntValue(); ok {
				out.Version = n
			}
		}
		for _, key := range []string{"locks", "items"} {
			if list, ok := doc.Get(key); ok && list.Kind() == tree.KindSequence {
				items = list.Items()
				break
			}
		}
	}
	for _, item := range items {
		out.Locks = append(out.Locks, NormalizeLock(item))
	}
	return out
}

// ForKey returns the first lock bound to a fact key.
func (l Locks) ForKey(key string) (Lock, bool) {
	for _, lock := range l.Locks {
		if lock.Key == key {
			return lock, true
		}
	}
	return Lock{}, false
}
