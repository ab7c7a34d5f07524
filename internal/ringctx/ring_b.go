package ringctx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storycodex/internal/artifact"
	"storycodex/internal/services"
	"storycodex/internal/story"
)

const earlierChain = "earlier_scenes"

// ringBBlocks ranks the narrative surroundings: act and chapter intent, the
// preceding scene, then earlier scenes of the chapter newest first.
func ringBBlocks(ctx context.Context, store artifact.Store, in *inputs) ([]block, error) {
	var blocks []block
	spineRef := artifact.Of(artifact.KindSpine)

	var chapterScenes []int
	if in.spine != nil {
		if ch, act, ok := in.spine.Chapter(in.plan.ChapterNo); ok {
			actIntent := story.ActIntent{ActNo: act.ActNo, Summary: act.Summary}
			chapterIntent := story.ChapterIntent{
				ChapterNo:     ch.ChapterNo,
				Goal:          ch.Goal,
				TurningPoints: ch.TurningPoints,
				EndHook:       ch.EndHook,
			}
			blocks = append(blocks,
				block{key: "ring_b.act", variants: []variant{{
					apply:   func(r *rings) { r.B.Act = &actIntent },
					sources: []source{{ref: spineRef}},
				}}},
				block{key: "ring_b.chapter", variants: []variant{{
					apply:   func(r *rings) { r.B.Chapter = &chapterIntent },
					sources: []source{{ref: spineRef}},
				}}},
			)
			chapterScenes = ch.Scenes
		}
	}
	if chapterScenes == nil && in.index != nil {
		for _, entry := range in.index.Scenes {
			if entry.ChapterNo == in.plan.ChapterNo {
				chapterScenes = append(chapterScenes, entry.SceneID)
			}
		}
	}

	if prior := in.sceneID - 1; prior >= 1 {
		b, ok, err := priorSceneBlock(ctx, store, prior)
		if err != nil {
			return nil, err
		}
		if ok {
			blocks = append(blocks, b)
		}
	}

	earlier := make([]int, 0, len(chapterScenes))
	for _, id := range chapterScenes {
		if id < in.sceneID-1 {
			earlier = append(earlier, id)
		}
	}
	for i := len(earlier) - 1; i >= 0; i-- {
		id := earlier[i]
		ref := artifact.ForScene(artifact.KindScenePlan, id)
		var plan story.ScenePlan
		if err := artifact.LoadJSON(ctx, store, ref, &plan); err != nil {
			if errors.Is(err, services.ErrNotFound) {
				continue
			}
			return nil, err
		}
		summary := story.SceneSummary{SceneID: id, Title: plan.Title, Goal: plan.Goal, Stakes: plan.Stakes}
		blocks = append(blocks, block{
			key:   fmt.Sprintf("ring_b.earlier_scenes.%d", id),
			chain: earlierChain,
			variants: []variant{{
				apply:   func(r *rings) { r.B.EarlierScenes = append(r.B.EarlierScenes, summary) },
				sources: []source{{ref: ref}},
			}},
		})
	}
	return blocks, nil
}

// priorSceneBlock offers the preceding scene's prose (final over draft) and
// falls back to its plan when the prose does not fit or was never written.
func priorSceneBlock(ctx context.Context, store artifact.Store, id int) (block, bool, error) {
	var variants []variant
	for _, kind := range []artifact.Kind{artifact.KindFinal, artifact.KindDraft} {
		ref := artifact.ForScene(kind, id)
		data, err := store.Load(ctx, ref)
		if errors.Is(err, services.ErrNotFound) {
			continue
		}
		if err != nil {
			return block{}, false, err
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			continue
		}
		prior := story.PriorScene{SceneID: id, Source: string(kind), Text: text}
		variants = append(variants, variant{
			apply:   func(r *rings) { r.B.PriorScene = &prior },
			sources: []source{{ref: ref}},
		})
		break
	}

	planRef := artifact.ForScene(artifact.KindScenePlan, id)
	var plan story.ScenePlan
	err := artifact.LoadJSON(ctx, store, planRef, &plan)
	switch {
	case err == nil:
		prior := story.PriorScene{SceneID: id, Source: story.PriorFromPlan, Plan: &plan}
		variants = append(variants, variant{
			apply:   func(r *rings) { r.B.PriorScene = &prior },
			sources: []source{{ref: planRef}},
		})
	case !errors.Is(err, services.ErrNotFound):
		return block{}, false, err
	}

	if len(variants) == 0 {
		return block{}, false, nil
	}
	return block{key: fmt.Sprintf("ring_b.prior_scene.%d", id), variants: variants}, true, nil
}
