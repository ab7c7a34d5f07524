package story

import (
	"encoding/json"
	"sort"

	"storycodex/internal/artifact"
)

// Spine is the act/chapter outline with global scene ids.
type Spine struct {
	Acts []Act `json:"acts" validate:"required,min=1,dive"`
}

type Act struct {
	ActNo    int       `json:"act_no" validate:"min=1"`
	Summary  string    `json:"summary"`
	Chapters []Chapter `json:"chapters" validate:"required,min=1,dive"`
}

type Chapter struct {
	ChapterNo     int      `json:"chapter_no" validate:"min=1"`
	Goal          string   `json:"goal" validate:"required"`
	TurningPoints []string `json:"turning_points"`
	Scenes        []int    `json:"scenes" validate:"required,min=1,dive,min=1"`
	EndHook       string   `json:"end_hook,omitempty"`
}

// Validate checks the spine's shape plus scene numbering: ids are unique and
// run 1..n across the whole story, and chapter numbers are unique.
func (s Spine) Validate() error {
	if err := validateStruct("spine", s); err != nil {
		return err
	}
	problems := schemaProblems{kind: "spine"}
	seenChapters := map[int]bool{}
	seenScenes := map[int]bool{}
	var ids []int
	for _, act := range s.Acts {
		for _, ch := range act.Chapters {
			if seenChapters[ch.ChapterNo] {
				problems.addf("chapter_no %d appears more than once", ch.ChapterNo)
			}
			seenChapters[ch.ChapterNo] = true
			for _, id := range ch.Scenes {
				if seenScenes[id] {
					problems.addf("scene %d appears more than once", id)
					continue
				}
				seenScenes[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Ints(ids)
	for i, id := range ids {
		if id != i+1 {
			problems.addf("scene ids must be sequential from 1, found %d at position %d", id, i+1)
			break
		}
	}
	return problems.err()
}

// SceneIDs returns every scene id in spine order.
func (s Spine) SceneIDs() []int {
	var out []int
	for _, act := range s.Acts {
		for _, ch := range act.Chapters {
			out = append(out, ch.Scenes...)
		}
	}
	return out
}

// ChapterOf returns the chapter number owning a scene.
func (s Spine) ChapterOf(sceneID int) (int, bool) {
	for _, act := range s.Acts {
		for _, ch := range act.Chapters {
			for _, id := range ch.Scenes {
				if id == sceneID {
					return ch.ChapterNo, true
				}
			}
		}
	}
	return 0, false
}

// Chapter returns a chapter and the act containing it.
func (s Spine) Chapter(chapterNo int) (Chapter, Act, bool) {
	for _, act := range s.Acts {
		for _, ch := range act.Chapters {
			if ch.ChapterNo == chapterNo {
				return ch, act, true
			}
		}
	}
	return Chapter{}, Act{}, false
}

// ScenesIndex lists every planned scene with the paths of its plan and beats.
type ScenesIndex struct {
	Version int          `json:"version" validate:"eq=1"`
	Scenes  []SceneEntry `json:"scenes" validate:"required,min=1,dive"`
}

type SceneEntry struct {
	SceneID   int    `json:"scene_id" validate:"min=1"`
	ChapterNo int    `json:"chapter_no" validate:"min=1"`
	Title     string `json:"title" validate:"required"`
	PlanPath  string `json:"plan_path" validate:"required"`
	BeatsPath string `json:"beats_path" validate:"required"`
}

// PlanPath is the canonical plan artifact path for a scene.
func PlanPath(sceneID int) string {
	return artifact.ForScene(artifact.KindScenePlan, sceneID).Path()
}

// BeatsPath is the canonical beats artifact path for a scene.
func BeatsPath(sceneID int) string {
	return artifact.ForScene(artifact.KindSceneBeats, sceneID).Path()
}

// Validate checks the index shape and that entries use canonical paths.
func (idx ScenesIndex) Validate() error {
	if err := validateStruct("scenes_index", idx); err != nil {
		return err
	}
	problems := schemaProblems{kind: "scenes_index"}
	seen := map[int]bool{}
	for _, entry := range idx.Scenes {
		if seen[entry.SceneID] {
			problems.addf("scene_id %d appears more than once", entry.SceneID)
		}
		seen[entry.SceneID] = true
		if entry.PlanPath != PlanPath(entry.SceneID) {
			problems.addf("scene_id %d has invalid plan_path", entry.SceneID)
		}
		if entry.BeatsPath != BeatsPath(entry.SceneID) {
			problems.addf("scene_id %d has invalid beats_path", entry.SceneID)
		}
	}
	return problems.err()
}

// Entry returns the index entry for a scene.
func (idx ScenesIndex) Entry(sceneID int) (SceneEntry, bool) {
	for _, entry := range idx.Scenes {
		if entry.SceneID == sceneID {
			return entry, true
		}
	}
	return SceneEntry{}, false
}

// ScenePlan is the per-scene plan. Cast and location are placeholders until
// world and character artifacts exist.
type ScenePlan struct {
	SceneID   int      `json:"scene_id" validate:"min=1"`
	ChapterNo int      `json:"chapter_no" validate:"min=1"`
	Title     string   `json:"title" validate:"required"`
	Setting   Setting  `json:"setting"`
	Cast      []string `json:"cast"`
	Goal      string   `json:"goal" validate:"required"`
	Stakes    string   `json:"stakes"`
	BeatsRef  string   `json:"beats_ref" validate:"required"`
}

type Setting struct {
	LocationID string     `json:"location_id"`
	Time       string     `json:"time"`
	MoodTags   StringList `json:"mood_tags"`
}

func (p *ScenePlan) UnmarshalJSON(data []byte) error {
	type plain ScenePlan
	var raw plain
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = ScenePlan(raw)
	if p.Cast == nil {
		p.Cast = []string{}
	}
	return nil
}

// Validate checks the plan shape and that beats_ref names this scene's beats.
func (p ScenePlan) Validate() error {
	if err := validateStruct("scene_plan", p); err != nil {
		return err
	}
	problems := schemaProblems{kind: "scene_plan"}
	if p.BeatsRef != BeatsPath(p.SceneID) {
		problems.addf("scene_id %d has invalid beats_ref %q", p.SceneID, p.BeatsRef)
	}
	return problems.err()
}

// Beat types in their usual order within a scene.
const (
	BeatEntry       = "entry"
	BeatOrientation = "orientation"
	BeatPressure    = "pressure"
	BeatInteraction = "interaction"
	BeatTurn        = "turn"
	BeatExit        = "exit"
	BeatHook        = "hook"
)

// SceneBeats is the ordered beat list for one scene.
type SceneBeats struct {
	SceneID int    `json:"scene_id" validate:"min=1"`
	Beats   []Beat `json:"beats" validate:"required,min=1,dive"`
}

type Beat struct {
	Type        string     `json:"type" validate:"oneof=entry orientation pressure interaction turn exit hook"`
	Description string     `json:"description" validate:"required"`
	MustInclude StringList `json:"must_include,omitempty"`
	MustAvoid   StringList `json:"must_avoid,omitempty"`
}

// Validate checks the beat shape and that at least one turn is present.
func (b SceneBeats) Validate() error {
	if err := validateStruct("scene_beats", b); err != nil {
		return err
	}
	for _, beat := range b.Beats {
		if beat.Type == BeatTurn {
			return nil
		}
	}
	problems := schemaProblems{kind: "scene_beats"}
	problems.addf("beats must include at least one turn")
	return problems.err()
}
