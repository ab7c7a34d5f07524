package stage

import (
	"fmt"
	"strings"

	"storycodex/internal/artifact"
	"storycodex/internal/textutil"
)

// ID names a pipeline stage.
type ID string

const (
	Seed       ID = "seed"
	Spine      ID = "spine"
	Scenes     ID = "scenes"
	Beats      ID = "beats"
	Context    ID = "context"
	Draft      ID = "draft"
	Continuity ID = "continuity"
)

// Target addresses the unit of work a stage runs for.
type Target struct {
	Scene   int
	Chapter int
	// Input selects the prose the continuity stage checks ("draft" or "final").
	Input string
}

// Requirement is one prerequisite artifact of a stage.
type Requirement struct {
	Kind     artifact.Kind
	Scoped   bool // addressed by the target scene
	Optional bool
}

// Definition is one row of the stage graph.
type Definition struct {
	ID          ID
	Order       int
	Requires    []Requirement
	Produces    artifact.Kind
	NeedsScene  bool
	AlwaysRerun bool
}

var graph = []Definition{
	{
		ID:          Seed,
		Order:       1,
		Requires:    []Requirement{{Kind: artifact.KindDefaultStorySpec}},
		Produces:    artifact.KindInputStorySpec,
		AlwaysRerun: true,
	},
	{
		ID:    Spine,
		Order: 2,
		Requires: []Requirement{
			{Kind: artifact.KindInputStorySpec},
			{Kind: artifact.KindInputPlotIntent, Optional: true},
		},
		Produces: artifact.KindSpine,
	},
	{
		ID:    Scenes,
		Order: 3,
		Requires: []Requirement{
			{Kind: artifact.KindInputStorySpec},
			{Kind: artifact.KindSpine},
		},
		Produces: artifact.KindScenesIndex,
	},
	{
		ID:    Beats,
		Order: 4,
		Requires: []Requirement{
			{Kind: artifact.KindInputStorySpec},
			{Kind: artifact.KindScenesIndex},
			{Kind: artifact.KindScenePlan, Scoped: true},
		},
		Produces:   artifact.KindSceneBeats,
		NeedsScene: true,
	},
	{
		ID:    Context,
		Order: 5,
		Requires: []Requirement{
			{Kind: artifact.KindInputStorySpec},
			{Kind: artifact.KindScenePlan, Scoped: true},
			{Kind: artifact.KindSceneBeats, Scoped: true},
		},
		Produces:   artifact.KindContextPacket,
		NeedsScene: true,
	},
	{
		ID:         Draft,
		Order:      6,
		Requires:   []Requirement{{Kind: artifact.KindContextPacket, Scoped: true}},
		Produces:   artifact.KindDraft,
		NeedsScene: true,
	},
	{
		ID:    Continuity,
		Order: 7,
		Requires: []Requirement{
			{Kind: artifact.KindContextPacket, Scoped: true},
			{Kind: artifact.KindDraft, Scoped: true},
		},
		Produces:   artifact.KindContinuityReport,
		NeedsScene: true,
	},
}

// All returns the stage graph in execution order.
func All() []Definition {
	out := make([]Definition, len(graph))
	copy(out, graph)
	return out
}

// Lookup returns the definition for id.
func Lookup(id ID) (Definition, bool) {
	for _, def := range graph {
		if def.ID == id {
			return def, true
		}
	}
	return Definition{}, false
}

// Parse resolves a stage name case-insensitively.
func Parse(name string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := Lookup(id); !ok {
		return "", fmt.Errorf("unknown stage %q", name)
	}
	return id, nil
}

// Label renders the stage for human output ("Continuity").
func (id ID) Label() string {
	return textutil.Title(string(id))
}

// Before reports whether stage a runs before stage b.
func Before(a, b ID) bool {
	da, okA := Lookup(a)
	db, okB := Lookup(b)
	return okA && okB && da.Order < db.Order
}

// Output returns the ref of the stage's primary artifact for target.
func (d Definition) Output(target Target) artifact.Ref {
	if d.NeedsScene {
		return artifact.ForScene(d.Produces, target.Scene)
	}
	return artifact.Of(d.Produces)
}

// Refs resolves the requirements of d against target. The continuity stage
// reads the final prose instead of the draft when target.Input is "final".
func (d Definition) Refs(target Target) []ResolvedRequirement {
	out := make([]ResolvedRequirement, 0, len(d.Requires))
	for _, req := range d.Requires {
		kind := req.Kind
		if d.ID == Continuity && kind == artifact.KindDraft && strings.EqualFold(target.Input, "final") {
			kind = artifact.KindFinal
		}
		ref := artifact.Of(kind)
		if req.Scoped {
			ref = artifact.ForScene(kind, target.Scene)
		}
		out = append(out, ResolvedRequirement{Ref: ref, Optional: req.Optional})
	}
	return out
}

// ResolvedRequirement is a requirement bound to a concrete artifact.
type ResolvedRequirement struct {
	Ref      artifact.Ref
	Optional bool
}
