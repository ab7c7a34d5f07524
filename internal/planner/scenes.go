package planner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"storycodex/internal/artifact"
	"storycodex/internal/services/llm"
	"storycodex/internal/stage"
	"storycodex/internal/story"
	"storycodex/internal/tree"
)

const scenesMaxTokens = 2000

// ScenesStage generates the scenes index and one plan per scene.
type ScenesStage struct {
	base
}

// NewScenesStage builds the scenes planner.
func NewScenesStage(gen llm.Generator, defaultModel string, logger *slog.Logger) *ScenesStage {
	return &ScenesStage{base: newBase(gen, defaultModel, logger)}
}

// HealthCheck reports whether a generator is configured.
func (s *ScenesStage) HealthCheck(context.Context) stage.Health {
	return s.health(string(stage.Scenes))
}

// UpToDate treats a chapter run as done when the index and every plan of the
// chapter exist; a whole-story run is done when the index exists.
func (s *ScenesStage) UpToDate(ctx context.Context, store artifact.Store, target stage.Target) (bool, error) {
	ok, err := store.Exists(ctx, artifact.Of(artifact.KindScenesIndex))
	if err != nil || !ok || target.Chapter == 0 {
		return ok, err
	}
	var spine story.Spine
	if err := artifact.LoadJSON(ctx, store, artifact.Of(artifact.KindSpine), &spine); err != nil {
		return false, nil
	}
	ch, _, found := spine.Chapter(target.Chapter)
	if !found {
		return false, nil
	}
	for _, id := range ch.Scenes {
		exists, err := store.Exists(ctx, artifact.ForScene(artifact.KindScenePlan, id))
		if err != nil || !exists {
			return false, err
		}
	}
	return true, nil
}

type scenesReply struct {
	Index *story.ScenesIndex `json:"index"`
	Plans *[]story.ScenePlan `json:"plans"`
}

// Execute plans the scenes of the whole story or of target.Chapter.
func (s *ScenesStage) Execute(ctx context.Context, store artifact.Store, req stage.Request) error {
	specRef := artifact.Of(artifact.KindInputStorySpec)
	spineRef := artifact.Of(artifact.KindSpine)
	spec, err := artifact.LoadTree(ctx, store, specRef)
	if err != nil {
		return err
	}
	spineDoc, err := artifact.LoadTree(ctx, store, spineRef)
	if err != nil {
		return err
	}
	var spine story.Spine
	if err := artifact.LoadJSON(ctx, store, spineRef, &spine); err != nil {
		return err
	}
	targets := spine.SceneIDs()
	if req.Target.Chapter > 0 {
		ch, _, ok := spine.Chapter(req.Target.Chapter)
		if !ok {
			return fmt.Errorf("chapter %d not found in spine", req.Target.Chapter)
		}
		targets = ch.Scenes
	}

	model := s.model(req.Params)
	var reply scenesReply
	parse := func(content string) []string {
		var parsed scenesReply
		if err := decodeReply(content, &parsed); err != nil {
			return []string{"Response is not valid JSON: " + err.Error()}
		}
		if problems := validateScenesReply(parsed, spine, targets); len(problems) > 0 {
			return problems
		}
		reply = parsed
		return nil
	}
	if err := s.generate(ctx, "scenes", model, scenesMaxTokens, scenesPrompt(spec, spineDoc, req.Target.Chapter), scenesRepairPrompt, parse); err != nil {
		return err
	}

	indexRef := artifact.Of(artifact.KindScenesIndex)
	if err := req.Outputs.PutJSON(indexRef, reply.Index); err != nil {
		return err
	}
	plans := *reply.Plans
	sort.Slice(plans, func(i, j int) bool { return plans[i].SceneID < plans[j].SceneID })
	for _, plan := range plans {
		if err := req.Outputs.PutJSON(artifact.ForScene(artifact.KindScenePlan, plan.SceneID), plan); err != nil {
			return err
		}
	}
	meta, err := s.meta(ctx, store, req, stage.Scenes, model, specRef, spineRef)
	if err != nil {
		return err
	}
	if req.Target.Chapter > 0 {
		meta.Details = map[string]any{"chapter": req.Target.Chapter}
	}
	return req.Outputs.PutJSON(indexRef.Meta(), meta)
}

// validateScenesReply checks the reply against the spine: the index covers
// every spine scene with canonical paths, and plans cover exactly targets.
func validateScenesReply(reply scenesReply, spine story.Spine, targets []int) []string {
	var problems []string
	chapterOf := map[int]int{}
	for _, id := range spine.SceneIDs() {
		ch, _ := spine.ChapterOf(id)
		chapterOf[id] = ch
	}

	if reply.Index == nil {
		problems = append(problems, "Missing index in response")
	} else {
		if err := reply.Index.Validate(); err != nil {
			for _, p := range story.Problems(err) {
				problems = append(problems, "index: "+p)
			}
		}
		seen := map[int]bool{}
		for _, entry := range reply.Index.Scenes {
			seen[entry.SceneID] = true
			want, known := chapterOf[entry.SceneID]
			if !known {
				problems = append(problems, fmt.Sprintf("index includes unknown scene_id %d", entry.SceneID))
				continue
			}
			if entry.ChapterNo != want {
				problems = append(problems, fmt.Sprintf("scene_id %d has wrong chapter_no", entry.SceneID))
			}
		}
		if missing := missingIDs(spine.SceneIDs(), seen); len(missing) > 0 {
			problems = append(problems, "index missing scenes: "+joinInts(missing))
		}
	}

	if reply.Plans == nil {
		problems = append(problems, "Missing plans in response")
		return problems
	}
	planned := map[int]bool{}
	for _, plan := range *reply.Plans {
		want, known := chapterOf[plan.SceneID]
		if !known {
			problems = append(problems, fmt.Sprintf("plan has unknown scene_id %d", plan.SceneID))
			continue
		}
		if err := plan.Validate(); err != nil {
			for _, p := range story.Problems(err) {
				problems = append(problems, fmt.Sprintf("plan %d: %s", plan.SceneID, p))
			}
		}
		if plan.ChapterNo != want {
			problems = append(problems, fmt.Sprintf("plan scene_id %d has wrong chapter_no", plan.SceneID))
		}
		if len(plan.Cast) > 4 {
			problems = append(problems, fmt.Sprintf("plan %d: cast must have at most 4 entries", plan.SceneID))
		}
		planned[plan.SceneID] = true
	}
	if missing := missingIDs(targets, planned); len(missing) > 0 {
		problems = append(problems, "missing plans for scenes: "+joinInts(missing))
	}
	wanted := map[int]bool{}
	for _, id := range targets {
		wanted[id] = true
	}
	var extra []int
	for id := range planned {
		if !wanted[id] {
			extra = append(extra, id)
		}
	}
	if len(extra) > 0 {
		sort.Ints(extra)
		problems = append(problems, "plans provided for unexpected scenes: "+joinInts(extra))
	}
	return problems
}

func missingIDs(ids []int, seen map[int]bool) []int {
	var out []int
	for _, id := range ids {
		if !seen[id] {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}

const scenesExample = `{
  "index": {
    "version": 1,
    "scenes": [
      {
        "scene_id": 1,
        "chapter_no": 1,
        "title": "Scene Title",
        "plan_path": "artifacts/scenes/scene_001.plan.json",
        "beats_path": "artifacts/scenes/scene_001.beats.json"
      }
    ]
  },
  "plans": [
    {
      "scene_id": 1,
      "chapter_no": 1,
      "title": "Scene Title",
      "setting": {
        "location_id": "ship_corridor",
        "time": "night",
        "mood_tags": ["tense"]
      },
      "cast": ["Protagonist"],
      "goal": "Short goal",
      "stakes": "Short stakes",
      "beats_ref": "artifacts/scenes/scene_001.beats.json"
    }
  ]
}`

func scenesPrompt(spec, spine tree.Value, chapter int) []llm.Message {
	chapterLine := "Include plans for all chapters."
	if chapter > 0 {
		chapterLine = fmt.Sprintf("Only include plans for chapter %d.", chapter)
	}
	instruction := "Generate a JSON object with two keys: index and plans. BOTH keys are required. " +
		"Return JSON only, no extra text, no markdown fences. " +
		"Do NOT wrap the JSON in {role, content}. " +
		"Use the spine scene IDs exactly; scenes are global sequential integers. " +
		"index must be an object: {version: 1, scenes: [ ... ]}. " +
		"Each index.scenes item must be: {scene_id, chapter_no, title, plan_path, beats_path}. " +
		"plan_path must be artifacts/scenes/scene_###.plan.json and " +
		"beats_path must be artifacts/scenes/scene_###.beats.json (zero-padded to 3 digits). " +
		"plans must be a list of scene-plan objects with required fields, and there must be one plan per scene_id. " +
		"Do not omit the plans list: it is required even if brief. " +
		"{scene_id, chapter_no, title, setting, cast, goal, stakes, beats_ref}. " +
		"setting must be an object: {location_id, time, mood_tags} and " +
		"location_id must be a short slug (e.g. argonaut_station_corridor). " +
		"beats_ref must equal the matching beats_path. " +
		"Keep cast to 0-4 entries. Keep content concise. " +
		chapterLine + "\n\n" +
		"Output format:\n" +
		`{"index": <scenes-index>, "plans": [<scene-plan>, ...]}` + "\n\n" +
		"Example (shape only, not actual content):\n" + scenesExample + "\n\n" +
		"Story spec JSON:\n" + prettyJSON(spec) + "\n\n" +
		"Spine JSON:\n" + prettyJSON(spine)
	return []llm.Message{llm.System(plannerSystem), llm.User(instruction)}
}

func scenesRepairPrompt(invalid string, problems []string) []llm.Message {
	instruction := "The previous response was invalid. Return ONLY valid JSON (no markdown fences) in the format " +
		`{"index": <scenes-index>, "plans": [<scene-plan>, ...]}.` + "\n" +
		"Errors:\n" + problemList(problems) + "\n\n" +
		"Invalid response:\n" + invalid
	return []llm.Message{llm.System(repairSystem), llm.User(instruction)}
}
