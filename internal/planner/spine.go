package planner

import (
	"context"
	"log/slog"

	"storycodex/internal/artifact"
	"storycodex/internal/services/llm"
	"storycodex/internal/stage"
	"storycodex/internal/story"
	"storycodex/internal/tree"
)

const (
	spineMaxTokens = 1500
	spineSchema    = "{acts: [{act_no, summary, chapters: [{chapter_no, goal, turning_points, scenes, end_hook?}]}]}"
)

// SpineStage generates artifacts/plot/spine.json from the story spec and plot intent.
type SpineStage struct {
	base
}

// NewSpineStage builds the spine planner.
func NewSpineStage(gen llm.Generator, defaultModel string, logger *slog.Logger) *SpineStage {
	return &SpineStage{base: newBase(gen, defaultModel, logger)}
}

// HealthCheck reports whether a generator is configured.
func (s *SpineStage) HealthCheck(context.Context) stage.Health {
	return s.health(string(stage.Spine))
}

// Execute plans the spine and stages it with its sidecar.
func (s *SpineStage) Execute(ctx context.Context, store artifact.Store, req stage.Request) error {
	specRef := artifact.Of(artifact.KindInputStorySpec)
	plotRef := artifact.Of(artifact.KindInputPlotIntent)
	spec, err := artifact.LoadTree(ctx, store, specRef)
	if err != nil {
		return err
	}
	plot, hasPlot, err := loadOptional(ctx, store, plotRef)
	if err != nil {
		return err
	}

	model := s.model(req.Params)
	var spine story.Spine
	parse := func(content string) []string {
		var parsed story.Spine
		if err := decodeReply(content, &parsed); err != nil {
			return []string{"Response is not valid JSON: " + err.Error()}
		}
		if err := parsed.Validate(); err != nil {
			return story.Problems(err)
		}
		spine = normalizeSpine(parsed)
		return nil
	}
	var plotPtr *tree.Value
	if hasPlot {
		plotPtr = &plot
	}
	if err := s.generate(ctx, "spine", model, spineMaxTokens, spinePrompt(spec, plotPtr), spineRepairPrompt, parse); err != nil {
		return err
	}

	out := artifact.Of(artifact.KindSpine)
	if err := req.Outputs.PutJSON(out, spine); err != nil {
		return err
	}
	meta, err := s.meta(ctx, store, req, stage.Spine, model, specRef, plotRef)
	if err != nil {
		return err
	}
	return req.Outputs.PutJSON(out.Meta(), meta)
}

func spinePrompt(spec tree.Value, plot *tree.Value) []llm.Message {
	instruction := "Generate a plot spine JSON object that matches the schema below. " +
		"Return JSON only, no extra text, no markdown fences. Keep " +
		"acts/chapters/scenes counts reasonable for the target_length. " +
		"Scenes must be sequential integers starting at 1 across the whole " +
		"story, and scenes arrays must contain integers only.\n\n" +
		"Schema: " + spineSchema + "\n\n" +
		"Story spec JSON:\n" + prettyJSON(spec)
	if plot != nil {
		instruction += "\n\nPlot intent JSON:\n" + prettyJSON(*plot) + "\n\n" +
			"Respect plot_constraints.must_include and plot_constraints.must_not, " +
			"use act_shape beats as guiding checkpoints for chapter distribution, " +
			"and preserve plot_intent.core_arc."
	}
	return []llm.Message{llm.System(plannerSystem), llm.User(instruction)}
}

func spineRepairPrompt(invalid string, problems []string) []llm.Message {
	instruction := "The previous response was invalid. Return ONLY valid JSON (no markdown " +
		"fences) that conforms to the plot spine schema: " + spineSchema + ". " +
		"Scenes arrays must contain integers only.\n" +
		"Errors:\n" + problemList(problems) + "\n" +
		"Invalid response:\n" + invalid
	return []llm.Message{llm.System(repairSystem), llm.User(instruction)}
}

func normalizeSpine(s story.Spine) story.Spine {
	for i := range s.Acts {
		for j := range s.Acts[i].Chapters {
			if s.Acts[i].Chapters[j].TurningPoints == nil {
				s.Acts[i].Chapters[j].TurningPoints = []string{}
			}
		}
	}
	return s
}
