package artifact

import (
	"fmt"
	"path"
	"strings"
)

// Kind names an artifact type. The path layout under the project root is part
// of the persisted-state contract.
type Kind string

const (
	KindDefaultStorySpec    Kind = "defaults.story_spec"
	KindDefaultPlotIntent   Kind = "defaults.plot_intent"
	KindSeedStoryOverrides  Kind = "seed.story_overrides"
	KindSeedPlotOverrides   Kind = "seed.plot_overrides"
	KindSeedStyleProfile    Kind = "seed.style_profile"
	KindStyleProfileExample Kind = "seed.style_profile_example"
	KindInputStorySpec      Kind = "inputs.story_spec"
	KindInputPlotIntent     Kind = "inputs.plot_intent"
	KindInputManifest       Kind = "inputs.manifest"
	KindSeedReport          Kind = "report.seed"
	KindSpine               Kind = "plan.spine"
	KindScenesIndex         Kind = "plan.scenes"
	KindScenePlan           Kind = "plan.scene"
	KindSceneBeats          Kind = "plan.beats"
	KindContextPacket       Kind = "context.packet"
	KindDraft               Kind = "draft"
	KindFinal               Kind = "final"
	KindContinuityReport    Kind = "continuity.report"
	KindContinuityPatch     Kind = "continuity.patch"
	KindFacts               Kind = "continuity.facts"
	KindLocks               Kind = "continuity.locks"
	KindWorldTiny           Kind = "world.tiny"
	KindWorldMedium         Kind = "world.medium"
	KindWorldFull           Kind = "world.full"
	KindCharactersTiny      Kind = "characters.tiny"
	KindCharactersMedium    Kind = "characters.medium"
	KindCharactersFull      Kind = "characters.full"
	KindCharacterState      Kind = "characters.state"
)

type layout struct {
	dir      string
	pattern  string // printf pattern for the file name
	index    indexKind
	metaStem string // overrides the sidecar stem ("scene_%03d.draft")
}

type indexKind int

const (
	indexNone indexKind = iota
	indexScene
	indexChapter
)

var layouts = map[Kind]layout{
	KindDefaultStorySpec:    {dir: "artifacts/defaults", pattern: "story_spec.json"},
	KindDefaultPlotIntent:   {dir: "artifacts/defaults", pattern: "plot_intent.json"},
	KindSeedStoryOverrides:  {dir: "seeds", pattern: "story_overrides%s"},
	KindSeedPlotOverrides:   {dir: "seeds", pattern: "plot_overrides%s"},
	KindSeedStyleProfile:    {dir: "seeds", pattern: "style_profile%s"},
	KindStyleProfileExample: {dir: "seeds", pattern: "style_profile.example.json"},
	KindInputStorySpec:      {dir: "artifacts/inputs", pattern: "story_spec.json"},
	KindInputPlotIntent:     {dir: "artifacts/inputs", pattern: "plot_intent.json"},
	KindInputManifest:       {dir: "artifacts/inputs", pattern: "manifest.json"},
	KindSeedReport:          {dir: "out", pattern: "seed_report.json"},
	KindSpine:               {dir: "artifacts/plot", pattern: "spine.json"},
	KindScenesIndex:         {dir: "artifacts/scenes", pattern: "scenes.json"},
	KindScenePlan:           {dir: "artifacts/scenes", pattern: "scene_%03d.plan.json", index: indexScene},
	KindSceneBeats:          {dir: "artifacts/scenes", pattern: "scene_%03d.beats.json", index: indexScene},
	KindContextPacket:       {dir: "artifacts/scenes", pattern: "scene_%03d.context.json", index: indexScene},
	KindDraft:               {dir: "out/scenes", pattern: "scene_%03d.draft.md", index: indexScene, metaStem: "scene_%03d.draft"},
	KindFinal:               {dir: "out/scenes", pattern: "scene_%03d.final.md", index: indexScene, metaStem: "scene_%03d.final"},
	KindContinuityReport:    {dir: "out/scenes", pattern: "scene_%03d.continuity_report.json", index: indexScene, metaStem: "scene_%03d.continuity"},
	KindContinuityPatch:     {dir: "out/scenes", pattern: "scene_%03d.patch.json", index: indexScene},
	KindFacts:               {dir: "artifacts/continuity", pattern: "facts.json"},
	KindLocks:               {dir: "artifacts/continuity", pattern: "locks.json"},
	KindWorldTiny:           {dir: "artifacts/world", pattern: "tiny.json"},
	KindWorldMedium:         {dir: "artifacts/world", pattern: "medium.json"},
	KindWorldFull:           {dir: "artifacts/world", pattern: "full.json"},
	KindCharactersTiny:      {dir: "artifacts/characters", pattern: "tiny.json"},
	KindCharactersMedium:    {dir: "artifacts/characters", pattern: "medium.json"},
	KindCharactersFull:      {dir: "artifacts/characters", pattern: "full.json"},
	KindCharacterState:      {dir: "artifacts/characters/state", pattern: "ch%02d.json", index: indexChapter},
}

// SeedExtensions lists the accepted override encodings in lookup order.
var SeedExtensions = []string{".json", ".yaml", ".yml"}

// Ref addresses one artifact: a kind plus the scene or chapter it belongs to.
type Ref struct {
	Kind    Kind
	Scene   int
	Chapter int
	// Ext selects the encoding of seed documents (".json", ".yaml", ".yml").
	Ext string
	// Sidecar addresses the artifact's meta document instead of the artifact.
	Sidecar bool
}

// Of returns a ref for a kind without an index.
func Of(kind Kind) Ref { return Ref{Kind: kind} }

// ForScene returns a ref for a per-scene kind.
func ForScene(kind Kind, scene int) Ref { return Ref{Kind: kind, Scene: scene} }

// ForChapter returns a ref for a per-chapter kind.
func ForChapter(kind Kind, chapter int) Ref { return Ref{Kind: kind, Chapter: chapter} }

// Meta returns the ref of r's meta sidecar.
func (r Ref) Meta() Ref {
	r.Sidecar = true
	return r
}

// Known reports whether the kind has a registered layout.
func (k Kind) Known() bool {
	_, ok := layouts[k]
	return ok
}

// Path returns the slash-separated path relative to the project root.
func (r Ref) Path() string {
	l, ok := layouts[r.Kind]
	if !ok {
		return ""
	}
	name := r.fileName(l)
	if r.Sidecar {
		name = r.sidecarName(l, name)
	}
	return path.Join(l.dir, name)
}

func (r Ref) fileName(l layout) string {
	switch l.index {
	case indexScene:
		return fmt.Sprintf(l.pattern, r.Scene)
	case indexChapter:
		return fmt.Sprintf(l.pattern, r.Chapter)
	}
	if strings.Contains(l.pattern, "%s") {
		ext := r.Ext
		if ext == "" {
			ext = ".json"
		}
		return fmt.Sprintf(l.pattern, ext)
	}
	return l.pattern
}

func (r Ref) sidecarName(l layout, name string) string {
	if l.metaStem != "" {
		return fmt.Sprintf(l.metaStem, r.Scene) + ".meta.json"
	}
	return strings.TrimSuffix(name, path.Ext(name)) + ".meta.json"
}

// String renders the ref for messages ("plan.beats[3]").
func (r Ref) String() string {
	label := string(r.Kind)
	switch {
	case r.Scene > 0:
		label = fmt.Sprintf("%s[%d]", label, r.Scene)
	case r.Chapter > 0:
		label = fmt.Sprintf("%s[ch%d]", label, r.Chapter)
	}
	if r.Sidecar {
		label += ".meta"
	}
	return label
}

// IsYAML reports whether the ref selects a YAML encoding.
func (r Ref) IsYAML() bool {
	return r.Ext == ".yaml" || r.Ext == ".yml"
}
