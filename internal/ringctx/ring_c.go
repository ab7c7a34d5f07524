package ringctx

import (
	"sort"
	"strings"

	"storycodex/internal/artifact"
	"storycodex/internal/story"
	"storycodex/internal/textutil"
)

// sceneKeywords are the folded cast names and location id of the scene.
func sceneKeywords(plan story.ScenePlan) []string {
	var out []string
	for _, name := range plan.Cast {
		if k := textutil.Fold(strings.TrimSpace(name)); k != "" {
			out = append(out, k)
		}
	}
	if loc := textutil.Fold(strings.TrimSpace(plan.Setting.LocationID)); loc != "" {
		out = append(out, loc)
	}
	return out
}

func matchesKeyword(text string, keywords []string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	folded := textutil.Fold(text)
	for _, k := range keywords {
		if strings.Contains(folded, k) || textutil.SanitizeToken(text) == textutil.SanitizeToken(k) {
			return true
		}
	}
	return false
}

// ringCBlocks ranks continuity and world content: locks (keyed first), then
// unlocked facts, then directly referenced entities, then tangential
// entities, then glossary terms.
func ringCBlocks(in *inputs, opts Options, words []string) []block {
	keywords := sceneKeywords(in.plan)
	factsRef := artifact.Of(artifact.KindFacts)
	locksRef := artifact.Of(artifact.KindLocks)

	var blocks []block

	var locks []story.Lock
	for _, lock := range in.locks.Locks {
		if len(keywords) == 0 || matchesKeyword(lock.Statement, keywords) || lockEntityMatches(lock, keywords) {
			locks = append(locks, lock)
		}
	}
	sort.SliceStable(locks, func(i, j int) bool {
		ki, kj := locks[i].Key != "", locks[j].Key != ""
		if ki != kj {
			return ki
		}
		return locks[i].ID < locks[j].ID
	})
	for _, lock := range locks {
		sources := []source{{ref: locksRef}}
		if lock.Key != "" && lock.Value == nil {
			if fact, ok := in.facts.Lookup(lock.Key); ok {
				value := fact.Value
				lock.Value = &value
				sources = append(sources, source{ref: factsRef})
			}
		}
		blocks = append(blocks, block{
			key: "ring_c.locks." + lock.ID,
			variants: []variant{{
				apply:   func(r *rings) { r.C.Locks = append(r.C.Locks, lock) },
				sources: sources,
			}},
		})
	}

	for _, fact := range in.facts.Items {
		if _, locked := in.locks.ForKey(fact.Key); locked {
			continue
		}
		if !matchesKeyword(fact.Entity, keywords) && !mentions(words, fact.Entity) {
			continue
		}
		entry := story.FactEntry{Key: fact.Key, Value: fact.Value}
		blocks = append(blocks, block{
			key: "ring_c.facts." + fact.Key,
			variants: []variant{{
				apply:   func(r *rings) { r.C.Facts = append(r.C.Facts, entry) },
				sources: []source{{ref: factsRef}},
			}},
		})
	}

	direct := map[string]bool{}
	for _, name := range in.plan.Cast {
		if b, id, ok := entityBlock(in, story.EntityCharacter, name, opts.levels()); ok {
			blocks = append(blocks, b)
			direct[story.EntityCharacter+"/"+id] = true
		}
	}
	if loc := strings.TrimSpace(in.plan.Setting.LocationID); loc != "" {
		if b, id, ok := entityBlock(in, story.EntityWorld, loc, opts.levels()); ok {
			blocks = append(blocks, b)
			direct[story.EntityWorld+"/"+id] = true
		}
	}

	for _, kind := range []string{story.EntityCharacter, story.EntityWorld} {
		docs := in.docs(kind)
		tiny, ok := docs[story.DetailTiny]
		if !ok {
			continue
		}
		for _, entity := range tiny.Entities {
			if direct[kind+"/"+entity.ID] {
				continue
			}
			if !mentions(words, entity.Name) && !mentions(words, entity.ID) {
				continue
			}
			if b, _, ok := entityBlock(in, kind, entity.ID, []string{story.DetailTiny}); ok {
				blocks = append(blocks, b)
			}
		}
	}

	for _, entry := range glossary(in, words) {
		blocks = append(blocks, block{
			key: "ring_c.glossary." + entry.term.Term,
			variants: []variant{{
				apply:   func(r *rings) { r.C.Glossary = append(r.C.Glossary, entry.term) },
				sources: []source{{ref: entityRef(story.EntityWorld, entry.level), detail: entry.level}},
			}},
		})
	}
	return blocks
}

func lockEntityMatches(lock story.Lock, keywords []string) bool {
	entity, _, ok := story.SplitFactKey(lock.Key)
	if !ok {
		return false
	}
	for _, k := range keywords {
		if textutil.Fold(entity) == k || textutil.SanitizeToken(entity) == textutil.SanitizeToken(k) {
			return true
		}
	}
	return false
}

func (in *inputs) docs(kind string) map[string]story.EntityDoc {
	if kind == story.EntityCharacter {
		return in.characters
	}
	return in.world
}

// entityBlock renders the entity named ref at each allowed level, richest
// first. Character entries pick up the chapter's current_state override.
func entityBlock(in *inputs, kind, ref string, levels []string) (block, string, bool) {
	docs := in.docs(kind)
	var variants []variant
	var id string
	for _, level := range levels {
		doc, ok := docs[level]
		if !ok {
			continue
		}
		entity, ok := doc.Find(ref)
		if !ok {
			continue
		}
		sources := []source{{ref: entityRef(kind, level), detail: level}}
		if kind == story.EntityCharacter && in.state != nil {
			if _, overridden := in.state.CurrentState(entity); overridden {
				entity = in.state.Apply(entity)
				sources = append(sources, source{ref: artifact.ForChapter(artifact.KindCharacterState, in.plan.ChapterNo)})
			}
		}
		if id == "" {
			id = entity.ID
		}
		detail := story.EntityDetail{Kind: kind, ID: entity.ID, Detail: level, Data: entity.Data}
		variants = append(variants, variant{
			apply:   func(r *rings) { r.C.Entities = append(r.C.Entities, detail) },
			sources: sources,
		})
	}
	if len(variants) == 0 {
		return block{}, "", false
	}
	return block{key: "ring_c.entities." + kind + "." + id, variants: variants}, id, true
}

type glossaryEntry struct {
	term  story.GlossaryEntry
	level string
}

// glossary returns world glossary terms mentioned in Ring A, sorted by term.
// A term defined at several levels uses the richest definition.
func glossary(in *inputs, words []string) []glossaryEntry {
	seen := map[string]bool{}
	var out []glossaryEntry
	for i := len(story.DetailLevels) - 1; i >= 0; i-- {
		level := story.DetailLevels[i]
		doc, ok := in.world[level]
		if !ok {
			continue
		}
		for _, term := range doc.Glossary {
			key := textutil.Fold(term.Term)
			if seen[key] || !mentions(words, term.Term) {
				continue
			}
			seen[key] = true
			out = append(out, glossaryEntry{term: term, level: level})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return textutil.Fold(out[i].term.Term) < textutil.Fold(out[j].term.Term)
	})
	return out
}
