package story

import (
	"encoding/json"
	"sort"
	"strings"

	"storycodex/internal/textutil"
	"storycodex/internal/tree"
)

// Detail levels of world and character artifacts, lowest first.
const (
	DetailTiny   = "tiny"
	DetailMedium = "medium"
	DetailFull   = "full"
)

// DetailLevels lists the detail levels from lowest to highest.
var DetailLevels = []string{DetailTiny, DetailMedium, DetailFull}

// Entity is one world or character entry at some detail level.
type Entity struct {
	ID   string
	Name string
	Data tree.Value
}

func (e Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Data)
}

// Matches reports whether ref names this entity by id or name, ignoring case.
func (e Entity) Matches(ref string) bool {
	target := textutil.Fold(strings.TrimSpace(ref))
	if target == "" {
		return false
	}
	return target == textutil.Fold(e.ID) || target == textutil.Fold(e.Name) ||
		textutil.SanitizeToken(ref) == textutil.SanitizeToken(e.ID)
}

// GlossaryEntry defines a world term.
type GlossaryEntry struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// EntityDoc is a world or character artifact at one detail level.
type EntityDoc struct {
	Entities []Entity
	Glossary []GlossaryEntry
}

// Find returns the entity matching ref.
func (d EntityDoc) Find(ref string) (Entity, bool) {
	for _, entity := range d.Entities {
		if entity.Matches(ref) {
			return entity, true
		}
	}
	return Entity{}, false
}

// EntityDocFromTree reads {entities|characters|items:[{id, name, ...}], glossary}
// or a bare list of entries. Entries are sorted by id.
func EntityDocFromTree(doc tree.Value) EntityDoc {
	var out EntityDoc
	var lists []tree.Value
	switch doc.Kind() {
	case tree.KindSequence:
		lists = append(lists, doc)
	case tree.KindMapping:
		for _, key := range []string{"entities", "characters", "items"} {
			if list, ok := doc.Get(key); ok && list.Kind() == tree.KindSequence {
				lists = append(lists, list)
			}
		}
		if glossary, ok := doc.Get("glossary"); ok {
			out.Glossary = glossaryFromTree(glossary)
		}
	}
	seen := map[string]bool{}
	for _, list := range lists {
		for _, item := range list.Items() {
			entity, ok := entityFromTree(item)
			if !ok || seen[entity.ID] {
				continue
			}
			seen[entity.ID] = true
			out.Entities = append(out.Entities, entity)
		}
	}
	sort.Slice(out.Entities, func(i, j int) bool { return out.Entities[i].ID < out.Entities[j].ID })
	return out
}

func entityFromTree(item tree.Value) (Entity, bool) {
	if !item.IsMapping() {
		return Entity{}, false
	}
	var id, name string
	if v, ok := item.Get("id"); ok {
		id = strings.TrimSpace(v.Text())
	}
	if v, ok := item.Get("name"); ok {
		name = strings.TrimSpace(v.Text())
	}
	if id == "" && name == "" {
		return Entity{}, false
	}
	if id == "" {
		id = textutil.SanitizeToken(name)
	}
	if name == "" {
		name = id
	}
	return Entity{ID: id, Name: name, Data: item}, true
}

func glossaryFromTree(v tree.Value) []GlossaryEntry {
	var out []GlossaryEntry
	for _, item := range v.Items() {
		term, _ := item.Get("term")
		definition, _ := item.Get("definition")
		entry := GlossaryEntry{Term: strings.TrimSpace(term.Text()), Definition: strings.TrimSpace(definition.Text())}
		if entry.Term == "" || entry.Definition == "" {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// CharacterState holds per-chapter character overrides:
// {characters:{id:{current_state, ...}}}.
type CharacterState struct {
	Characters map[string]tree.Value `json:"characters"`
}

// CurrentState returns the chapter's current_state override for an entity.
func (s CharacterState) CurrentState(e Entity) (string, bool) {
	for _, key := range []string{e.ID, e.Name} {
		entry, ok := s.Characters[key]
		if !ok {
			continue
		}
		if state, ok := entry.Get("current_state"); ok {
			if text := strings.TrimSpace(state.Text()); text != "" {
				return text, true
			}
		}
	}
	return "", false
}

// Apply returns the entity with its current_state replaced by the chapter override.
func (s CharacterState) Apply(e Entity) Entity {
	if state, ok := s.CurrentState(e); ok {
		e.Data = e.Data.Set("current_state", tree.String(state))
	}
	return e
}
