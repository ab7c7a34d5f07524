package planner

import (
	"context"
	"fmt"
	"log/slog"

	"storycodex/internal/artifact"
	"storycodex/internal/services/llm"
	"storycodex/internal/stage"
	"storycodex/internal/story"
	"storycodex/internal/tree"
)

const beatsMaxTokens = 1200

// BeatsStage generates the beat list of one scene.
type BeatsStage struct {
	base
}

// NewBeatsStage builds the beats planner.
func NewBeatsStage(gen llm.Generator, defaultModel string, logger *slog.Logger) *BeatsStage {
	return &BeatsStage{base: newBase(gen, defaultModel, logger)}
}

// HealthCheck reports whether a generator is configured.
func (s *BeatsStage) HealthCheck(context.Context) stage.Health {
	return s.health(string(stage.Beats))
}

// Execute plans the beats of req.Target.Scene.
func (s *BeatsStage) Execute(ctx context.Context, store artifact.Store, req stage.Request) error {
	sceneID := req.Target.Scene
	specRef := artifact.Of(artifact.KindInputStorySpec)
	planRef := artifact.ForScene(artifact.KindScenePlan, sceneID)
	plotRef := artifact.Of(artifact.KindInputPlotIntent)

	spec, err := artifact.LoadTree(ctx, store, specRef)
	if err != nil {
		return err
	}
	plan, err := artifact.LoadTree(ctx, store, planRef)
	if err != nil {
		return err
	}
	var extras []string
	for _, opt := range []struct {
		label string
		ref   artifact.Ref
	}{
		{"Spine JSON", artifact.Of(artifact.KindSpine)},
		{"Scenes index JSON", artifact.Of(artifact.KindScenesIndex)},
		{"Plot intent JSON", plotRef},
	} {
		doc, ok, err := loadOptional(ctx, store, opt.ref)
		if err != nil {
			return err
		}
		if ok {
			extras = append(extras, opt.label+":\n"+prettyJSON(doc))
		}
	}

	model := s.model(req.Params)
	var beats story.SceneBeats
	parse := func(content string) []string {
		var parsed story.SceneBeats
		if err := decodeReply(content, &parsed); err != nil {
			return []string{"Response is not valid JSON: " + err.Error()}
		}
		if parsed.SceneID != sceneID {
			return []string{fmt.Sprintf("scene_id must be %d", sceneID)}
		}
		if err := parsed.Validate(); err != nil {
			return story.Problems(err)
		}
		beats = parsed
		return nil
	}
	if err := s.generate(ctx, "beats", model, beatsMaxTokens, beatsPrompt(spec, plan, extras), beatsRepairPrompt, parse); err != nil {
		return err
	}

	out := artifact.ForScene(artifact.KindSceneBeats, sceneID)
	if err := req.Outputs.PutJSON(out, beats); err != nil {
		return err
	}
	meta, err := s.meta(ctx, store, req, stage.Beats, model, specRef, planRef, plotRef)
	if err != nil {
		return err
	}
	return req.Outputs.PutJSON(out.Meta(), meta)
}

const beatsExample = `{
  "scene_id": 1,
  "beats": [
    {"type": "entry", "description": "..."},
    {"type": "orientation", "description": "..."},
    {"type": "pressure", "description": "..."},
    {"type": "interaction", "description": "..."},
    {"type": "turn", "description": "..."},
    {"type": "exit", "description": "..."},
    {"type": "hook", "description": "...", "must_include": ["..."], "must_avoid": ["..."]}
  ]
}`

func beatsPrompt(spec, plan tree.Value, extras []string) []llm.Message {
	summary := tree.Mapping(map[string]tree.Value{})
	for _, key := range []string{"pov", "tense", "tone", "constraints", "serialization"} {
		v, _ := spec.Get(key)
		summary = summary.Set(key, v)
	}
	instruction := "Generate scene beats JSON that matches the schema. Return JSON only, no extra text, no markdown fences. " +
		"Beats should form a coherent mini-arc: entry -> orientation -> pressure -> interaction -> turn -> exit. " +
		"Always include at least one turn beat. " +
		"If story_spec.serialization.enabled is true OR the scene has high stakes, " +
		"include a final hook beat to tee up the next scene. " +
		"Keep descriptions concrete with visible actions, dialogue intent, or reveals. " +
		"must_include and must_avoid should be short bullet-like strings and ONLY appear inside beat objects (not at the root). " +
		"Align beats with any relevant plot constraints or act-shape purpose for this scene.\n\n" +
		"Output shape example (structure only):\n" + beatsExample + "\n\n" +
		"Story spec summary:\n" + prettyJSON(summary) + "\n\n" +
		"Scene plan JSON:\n" + prettyJSON(plan)
	for _, block := range extras {
		instruction += "\n\n" + block
	}
	return []llm.Message{llm.System(plannerSystem), llm.User(instruction)}
}

func beatsRepairPrompt(invalid string, problems []string) []llm.Message {
	instruction := "The previous response was invalid. Return ONLY valid JSON (no markdown fences) " +
		"that matches the scene beats schema {scene_id, beats: [{type, description, must_include?, must_avoid?}]}.\n" +
		"Errors:\n" + problemList(problems) + "\n\n" +
		"Invalid response:\n" + invalid
	return []llm.Message{llm.System(repairSystem), llm.User(instruction)}
}
