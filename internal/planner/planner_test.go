package planner_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storycodex/internal/artifact"
	"storycodex/internal/planner"
	"storycodex/internal/services"
	"storycodex/internal/stage"
	"storycodex/internal/story"
	"storycodex/internal/testsupport"
)

func request(target stage.Target) (stage.Request, *artifact.Batch) {
	batch := &artifact.Batch{}
	return stage.Request{
		Target:  target,
		RunID:   "run-1",
		Now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Outputs: batch,
	}, batch
}

const twoChapterSpine = `{"acts":[{"act_no":1,"summary":"s","chapters":[
 {"chapter_no":1,"goal":"g1","turning_points":[],"scenes":[1]},
 {"chapter_no":2,"goal":"g2","turning_points":[],"scenes":[2]}]}]}`

func indexJSON() map[string]any {
	entry := func(id, ch int) map[string]any {
		return map[string]any{
			"scene_id": id, "chapter_no": ch, "title": "T",
			"plan_path": story.PlanPath(id), "beats_path": story.BeatsPath(id),
		}
	}
	return map[string]any{"version": 1, "scenes": []any{entry(1, 1), entry(2, 2)}}
}

func planJSON(id, ch int) map[string]any {
	return map[string]any{
		"scene_id": id, "chapter_no": ch, "title": "T",
		"setting": map[string]any{"location_id": "dock", "time": "dawn", "mood_tags": []string{"grey"}},
		"cast":    []string{"Mara"}, "goal": "g", "stakes": "s", "beats_ref": story.BeatsPath(id),
	}
}

func TestSpineStageRepairsOnce(t *testing.T) {
	ctx := context.Background()
	store := artifact.NewMemStore()
	testsupport.PutArtifact(t, store, artifact.Of(artifact.KindInputStorySpec), testsupport.StorySpecJSON)
	gen := testsupport.NewFakeGenerator(
		`{"acts":[{"act_no":1,"summary":"s","chapters":[{"chapter_no":1,"goal":"g","scenes":["one"]}]}]}`,
		"```json\n"+testsupport.SpineJSON+"\n```",
	)

	req, batch := request(stage.Target{})
	err := planner.NewSpineStage(gen, "m1", nil).Execute(ctx, store, req)
	require.NoError(t, err)
	require.Equal(t, 2, gen.Calls())

	reqs := gen.Requests()
	require.Equal(t, "You are a careful story planner.", reqs[0].Messages[0].Content)
	require.Contains(t, reqs[0].Messages[1].Content, "Story spec JSON:\n{")
	require.NotContains(t, reqs[0].Messages[1].Content, "Plot intent JSON")
	require.Equal(t, 0.4, reqs[0].Temperature)
	require.Equal(t, 1500, reqs[0].MaxTokens)
	require.Equal(t, "m1", reqs[0].Model)
	require.Equal(t, "You must output valid JSON only.", reqs[1].Messages[0].Content)
	require.Contains(t, reqs[1].Messages[1].Content, "Invalid response:")

	require.Equal(t, []artifact.Ref{
		artifact.Of(artifact.KindSpine),
		artifact.Of(artifact.KindSpine).Meta(),
	}, batch.Refs())
	require.NoError(t, batch.Commit(ctx, store))
	meta := testsupport.LoadJSON(t, store, artifact.Of(artifact.KindSpine).Meta())
	require.Equal(t, "fake", meta["backend"])
	require.Equal(t, "run-1", meta["run_id"])
	require.Contains(t, meta["input_hashes"], "artifacts/inputs/story_spec.json")
}

func TestSpineStageIncludesPlotIntent(t *testing.T) {
	store := artifact.NewMemStore()
	testsupport.PutArtifact(t, store, artifact.Of(artifact.KindInputStorySpec), testsupport.StorySpecJSON)
	testsupport.PutArtifact(t, store, artifact.Of(artifact.KindInputPlotIntent), `{"plot_intent":{"core_arc":"fall"}}`)
	gen := testsupport.NewFakeGenerator(testsupport.SpineJSON)

	req, _ := request(stage.Target{})
	require.NoError(t, planner.NewSpineStage(gen, "m", nil).Execute(context.Background(), store, req))
	prompt := gen.Requests()[0].Messages[1].Content
	require.Contains(t, prompt, "Plot intent JSON:")
	require.Contains(t, prompt, "preserve plot_intent.core_arc.")
}

func TestSpineStageFailsAfterRepair(t *testing.T) {
	store := artifact.NewMemStore()
	testsupport.PutArtifact(t, store, artifact.Of(artifact.KindInputStorySpec), testsupport.StorySpecJSON)
	gen := testsupport.NewFakeGenerator("not json", "still not json")

	req, batch := request(stage.Target{})
	err := planner.NewSpineStage(gen, "m", nil).Execute(context.Background(), store, req)
	var schemaErr *services.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Contains(t, err.Error(), "could not be repaired")
	require.Zero(t, batch.Len())
}

func TestSpineStageSurfacesGenerationError(t *testing.T) {
	store := artifact.NewMemStore()
	testsupport.PutArtifact(t, store, artifact.Of(artifact.KindInputStorySpec), testsupport.StorySpecJSON)
	boom := &services.GenerationError{Backend: "fake", Err: errors.New("down")}
	gen := testsupport.NewFakeGenerator().FailOn(0, boom)

	req, batch := request(stage.Target{})
	err := planner.NewSpineStage(gen, "m", nil).Execute(context.Background(), store, req)
	require.ErrorIs(t, err, services.ErrExternalTool)
	require.Zero(t, batch.Len())
}

func TestScenesStageChapterOnly(t *testing.T) {
	ctx := context.Background()
	store := artifact.NewMemStore()
	testsupport.PutArtifact(t, store, artifact.Of(artifact.KindInputStorySpec), testsupport.StorySpecJSON)
	testsupport.PutArtifact(t, store, artifact.Of(artifact.KindSpine), twoChapterSpine)

	reply := testsupport.MustJSON(t, map[string]any{"index": indexJSON(), "plans": []any{planJSON(2, 2)}})
	gen := testsupport.NewFakeGenerator(reply)
	scenes := planner.NewScenesStage(gen, "m", nil)

	req, batch := request(stage.Target{Chapter: 2})
	require.NoError(t, scenes.Execute(ctx, store, req))
	require.Contains(t, gen.Requests()[0].Messages[1].Content, "Only include plans for chapter 2.")
	require.Equal(t, []artifact.Ref{
		artifact.Of(artifact.KindScenesIndex),
		artifact.ForScene(artifact.KindScenePlan, 2),
		artifact.Of(artifact.KindScenesIndex).Meta(),
	}, batch.Refs())
	require.NoError(t, batch.Commit(ctx, store))

	meta := testsupport.LoadJSON(t, store, artifact.Of(artifact.KindScenesIndex).Meta())
	require.Equal(t, map[string]any{"chapter": float64(2)}, meta["details"])

	fresh, err := scenes.UpToDate(ctx, store, stage.Target{Chapter: 2})
	require.NoError(t, err)
	require.True(t, fresh)
	fresh, err = scenes.UpToDate(ctx, store, stage.Target{Chapter: 1})
	require.NoError(t, err)
	require.False(t, fresh)
}

func TestScenesStageReportsProblemsForRepair(t *testing.T) {
	store := artifact.NewMemStore()
	testsupport.PutArtifact(t, store, artifact.Of(artifact.KindInputStorySpec), testsupport.StorySpecJSON)
	testsupport.PutArtifact(t, store, artifact.Of(artifact.KindSpine), twoChapterSpine)

	idx := indexJSON()
	idx["scenes"] = idx["scenes"].([]any)[:1]
	bad := testsupport.MustJSON(t, map[string]any{"index": idx, "plans": []any{planJSON(1, 2), planJSON(3, 1)}})
	gen := testsupport.NewFakeGenerator(bad, bad)

	req, _ := request(stage.Target{})
	err := planner.NewScenesStage(gen, "m", nil).Execute(context.Background(), store, req)
	require.Error(t, err)

	repair := gen.Requests()[1].Messages[1].Content
	for _, want := range []string{
		"- index missing scenes: 2",
		"- plan scene_id 1 has wrong chapter_no",
		"- plan has unknown scene_id 3",
		"- missing plans for scenes: 2",
	} {
		require.True(t, strings.Contains(repair, want), "repair prompt lacks %q:\n%s", want, repair)
	}
}

func TestBeatsStage(t *testing.T) {
	ctx := context.Background()
	store := artifact.NewMemStore()
	testsupport.SeedPlannedScene(t, store)

	envelope := testsupport.MustJSON(t, map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{
			"content": `{"scene_id":1,"beats":[{"type":"entry","description":"a"},{"type":"turn","description":"b","must_include":"the key"}]}`,
		}}},
	})
	gen := testsupport.NewFakeGenerator(envelope)

	req, batch := request(stage.Target{Scene: 1})
	require.NoError(t, planner.NewBeatsStage(gen, "m", nil).Execute(ctx, store, req))
	prompt := gen.Requests()[0].Messages[1].Content
	require.Contains(t, prompt, "Story spec summary:")
	require.Contains(t, prompt, "Spine JSON:")
	require.Contains(t, prompt, "Scenes index JSON:")
	require.Equal(t, 1200, gen.Requests()[0].MaxTokens)

	require.NoError(t, batch.Commit(ctx, store))
	var beats story.SceneBeats
	require.NoError(t, artifact.LoadJSON(ctx, store, artifact.ForScene(artifact.KindSceneBeats, 1), &beats))
	require.Len(t, beats.Beats, 2)
	require.Equal(t, story.StringList{"the key"}, beats.Beats[1].MustInclude)
}

func TestBeatsStageRequiresTurn(t *testing.T) {
	store := artifact.NewMemStore()
	testsupport.SeedPlannedScene(t, store)
	noTurn := `{"scene_id":1,"beats":[{"type":"entry","description":"a"}]}`
	gen := testsupport.NewFakeGenerator(noTurn, noTurn)

	req, _ := request(stage.Target{Scene: 1})
	err := planner.NewBeatsStage(gen, "m", nil).Execute(context.Background(), store, req)
	require.ErrorIs(t, err, services.ErrValidation)
	require.Contains(t, gen.Requests()[1].Messages[1].Content, "- beats must include at least one turn")
}
