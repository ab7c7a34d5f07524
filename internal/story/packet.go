package story

import (
	"storycodex/internal/tree"
)

// Include selectors for context packets.
const (
	IncludeAll   = "all"
	IncludeRingA = "ringA"
	IncludeRingB = "ringB"
	IncludeRingC = "ringC"
)

// Resolution selectors cap the detail level used for referenced entities.
const (
	ResolutionAuto   = "auto"
	ResolutionTiny   = DetailTiny
	ResolutionMedium = DetailMedium
	ResolutionFull   = DetailFull
)

// ContextPacket is the compiled, budgeted input of the draft writer. It holds
// no timestamps so equal inputs encode to identical bytes.
type ContextPacket struct {
	SceneID int       `json:"scene_id" validate:"min=1"`
	Build   BuildInfo `json:"build"`
	RingA   RingA     `json:"ring_a"`
	RingB   RingB     `json:"ring_b"`
	RingC   RingC     `json:"ring_c"`
}

// Validate checks the packet shape.
func (p ContextPacket) Validate() error {
	return validateStruct("context_packet", p)
}

type BuildInfo struct {
	BudgetTokens int      `json:"budget_tokens" validate:"min=1"`
	UsedTokens   int      `json:"used_tokens"`
	Resolution   string   `json:"resolution" validate:"oneof=auto tiny medium full"`
	Include      string   `json:"include" validate:"oneof=all ringA ringB ringC"`
	Sources      []Source `json:"sources"`
	Dropped      []string `json:"dropped"`
}

// Source records an artifact that contributed to the packet.
type Source struct {
	Artifact string `json:"artifact"`
	Detail   string `json:"detail,omitempty"`
}

// RingA holds the scene's own directives.
type RingA struct {
	Premise           string     `json:"premise,omitempty"`
	Tone              []string   `json:"tone,omitempty"`
	POV               string     `json:"pov,omitempty"`
	Tense             string     `json:"tense,omitempty"`
	GlobalConstraints []string   `json:"global_constraints,omitempty"`
	StyleRules        []string   `json:"style_rules,omitempty"`
	Scene             *ScenePlan `json:"scene,omitempty"`
	Beats             []Beat     `json:"beats,omitempty"`
}

// RingB holds narrative context around the scene.
type RingB struct {
	Act           *ActIntent     `json:"act,omitempty"`
	Chapter       *ChapterIntent `json:"chapter,omitempty"`
	PriorScene    *PriorScene    `json:"prior_scene,omitempty"`
	EarlierScenes []SceneSummary `json:"earlier_scenes,omitempty"`
}

type ActIntent struct {
	ActNo   int    `json:"act_no"`
	Summary string `json:"summary"`
}

type ChapterIntent struct {
	ChapterNo     int      `json:"chapter_no"`
	Goal          string   `json:"goal"`
	TurningPoints []string `json:"turning_points,omitempty"`
	EndHook       string   `json:"end_hook,omitempty"`
}

// Prior scene sources.
const (
	PriorFromFinal = "final"
	PriorFromDraft = "draft"
	PriorFromPlan  = "plan"
)

// PriorScene is the immediately preceding scene: its prose when written,
// otherwise its plan.
type PriorScene struct {
	SceneID int        `json:"scene_id"`
	Source  string     `json:"source"`
	Text    string     `json:"text,omitempty"`
	Plan    *ScenePlan `json:"plan,omitempty"`
}

// SceneSummary is the plan-level view of an earlier scene.
type SceneSummary struct {
	SceneID int    `json:"scene_id"`
	Title   string `json:"title"`
	Goal    string `json:"goal,omitempty"`
	Stakes  string `json:"stakes,omitempty"`
}

// RingC holds continuity and world grounding.
type RingC struct {
	Locks    []Lock          `json:"locks,omitempty"`
	Facts    []FactEntry     `json:"facts,omitempty"`
	Entities []EntityDetail  `json:"entities,omitempty"`
	Glossary []GlossaryEntry `json:"glossary,omitempty"`
}

// FactEntry is an unlocked fact selected for the scene.
type FactEntry struct {
	Key   string     `json:"key"`
	Value tree.Value `json:"value"`
}

// Entity kinds in Ring C.
const (
	EntityCharacter = "character"
	EntityWorld     = "world"
)

// EntityDetail is an entity rendered at one detail level.
type EntityDetail struct {
	Kind   string     `json:"kind"`
	ID     string     `json:"id"`
	Detail string     `json:"detail"`
	Data   tree.Value `json:"data"`
}

// Empty reports whether the ring carries no content.
func (r RingC) Empty() bool {
	return len(r.Locks) == 0 && len(r.Facts) == 0 && len(r.Entities) == 0 && len(r.Glossary) == 0
}

// Empty reports whether the ring carries no content.
func (r RingB) Empty() bool {
	return r.Act == nil && r.Chapter == nil && r.PriorScene == nil && len(r.EarlierScenes) == 0
}
