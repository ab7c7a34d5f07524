package draft_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storycodex/internal/artifact"
	"storycodex/internal/draft"
	"storycodex/internal/ringctx"
	"storycodex/internal/services"
	"storycodex/internal/stage"
	"storycodex/internal/story"
	"storycodex/internal/testsupport"
)

func packet() story.ContextPacket {
	plan := testsupport.ScenePlan(1, "Mara")
	return story.ContextPacket{
		SceneID: 1,
		Build:   story.BuildInfo{BudgetTokens: 6500, Resolution: "auto", Include: "all", Sources: []story.Source{}, Dropped: []string{}},
		RingA: story.RingA{
			Premise: "A detective",
			POV:     "third",
			Tense:   "past",
			Scene:   &plan,
			Beats:   testsupport.SceneBeats(1).Beats,
		},
	}
}

// prose returns paras paragraphs of perPara words each.
func prose(paras, perPara int) string {
	blocks := make([]string, paras)
	for i := range blocks {
		blocks[i] = strings.TrimSpace(strings.Repeat("word ", perPara))
	}
	return strings.Join(blocks, "\n\n")
}

func TestTargetWords(t *testing.T) {
	for length, want := range map[string]int{"short": 600, "medium": 1000, "long": 1500} {
		got, err := draft.TargetWords(length, 0)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	got, err := draft.TargetWords("short", 800)
	require.NoError(t, err)
	require.Equal(t, 800, got)

	_, err = draft.TargetWords("epic", 0)
	require.ErrorIs(t, err, services.ErrValidation)
	_, err = draft.TargetWords("short", -5)
	require.ErrorIs(t, err, services.ErrValidation)
}

func TestValidate(t *testing.T) {
	require.Equal(t, []string{"Draft is empty"}, draft.Validate("  \n", 1000, 3))
	require.Equal(t, []string{"Word count 10 outside 600-1400"}, draft.Validate(prose(2, 5), 1000, 3))
	require.Equal(t, []string{"Paragraph count too low for beats"}, draft.Validate(prose(1, 1000), 1000, 3))
	require.Empty(t, draft.Validate(prose(3, 300), 1000, 3))
	require.Empty(t, draft.Validate(prose(1, 600), 1000, 0))
}

func TestWriteAcceptsValidDraft(t *testing.T) {
	gen := testsupport.NewFakeGenerator(prose(3, 300) + "\n\n\n")

	result, err := draft.Write(context.Background(), packet(), gen, draft.Options{Model: "m"})
	require.NoError(t, err)
	require.Equal(t, 1, result.Attempts)
	require.Equal(t, "medium", result.Length)
	require.Equal(t, 1000, result.TargetWords)
	require.True(t, strings.HasSuffix(result.Text, "word\n"))

	req := gen.Requests()[0]
	require.Equal(t, 0.7, req.Temperature)
	require.Equal(t, 2000, req.MaxTokens)
	require.Equal(t, "m", req.Model)
	require.Equal(t, "You are a professional fiction writer executing a constrained writing task.", req.Messages[0].Content)
	user := req.Messages[1].Content
	require.Contains(t, user, "Hard rules:\n- Use ONLY the provided context packet.")
	require.Contains(t, user, "Target length: medium (~1000 words). Stay within +/-30% of the target.")
	require.Contains(t, user, `"premise": "A detective"`)
	require.True(t, strings.HasSuffix(user, "- Locks obeyed?\n"))
}

func TestWriteRetriesThenExpands(t *testing.T) {
	gen := testsupport.NewFakeGenerator(prose(2, 5), prose(2, 5), prose(3, 250))

	result, err := draft.Write(context.Background(), packet(), gen, draft.Options{Length: "medium"})
	require.NoError(t, err)
	require.Equal(t, 3, result.Attempts)

	reqs := gen.Requests()
	require.Contains(t, reqs[1].Messages[1].Content, "Issues:\n- Word count 10 outside 600-1400")
	require.Contains(t, reqs[2].Messages[1].Content, "Target length: 700-1300 words.")
	require.Contains(t, reqs[2].Messages[1].Content, "Draft to expand:\n"+prose(2, 5))
}

func TestWritePromptsCarryOnlyPacketEntities(t *testing.T) {
	ctx := context.Background()
	store := artifact.NewMemStore()
	testsupport.SeedPlannedScene(t, store, "Mara")
	testsupport.PutArtifact(t, store, artifact.Of(artifact.KindCharactersTiny), `{"characters":[
		{"id":"mara","name":"Mara","role":"detective"},
		{"id":"voss","name":"Inspector Voss","role":"smuggler king"}]}`)
	testsupport.PutArtifact(t, store, artifact.Of(artifact.KindCharactersFull), `{"characters":[
		{"id":"mara","name":"Mara","role":"detective","bio":"Ex-navy, quiet."},
		{"id":"voss","name":"Inspector Voss","role":"smuggler king","bio":"Runs the grey docks."}]}`)

	compiled, err := ringctx.Compile(ctx, store, 1, ringctx.Options{Budget: 50000})
	require.NoError(t, err)
	encoded, err := artifact.EncodeJSON(compiled.Packet)
	require.NoError(t, err)
	require.Contains(t, string(encoded), "Ex-navy, quiet.")
	require.NotContains(t, string(encoded), "Voss")

	// Two invalid drafts push Write through the retry and expansion prompts.
	gen := testsupport.NewFakeGenerator(prose(2, 5), prose(2, 5), prose(3, 250))
	_, err = draft.Write(ctx, compiled.Packet, gen, draft.Options{Length: "medium"})
	require.NoError(t, err)

	reqs := gen.Requests()
	require.Len(t, reqs, 3)
	for i, req := range reqs {
		for _, msg := range req.Messages {
			require.NotContains(t, msg.Content, "Voss", "request %d %s message", i, msg.Role)
			require.NotContains(t, msg.Content, "grey docks", "request %d %s message", i, msg.Role)
		}
		require.Contains(t, req.Messages[len(req.Messages)-1].Content, "Ex-navy, quiet.", "request %d", i)
	}
}

func TestWriteFailsWhenExpansionStillInvalid(t *testing.T) {
	gen := testsupport.NewFakeGenerator(prose(2, 5), prose(2, 5), prose(2, 5))

	_, err := draft.Write(context.Background(), packet(), gen, draft.Options{TargetWords: 600})
	require.ErrorIs(t, err, services.ErrValidation)
	require.Contains(t, err.Error(), "Draft failed validation: Word count 10 outside 360-840")
	require.Equal(t, 3, gen.Calls())
}

func TestWriteSurfacesTimeout(t *testing.T) {
	timeout := &services.TimeoutError{
		GenerationError: services.GenerationError{Backend: "openai", Op: "generate", Err: context.DeadlineExceeded},
		Timeout:         time.Second,
	}
	gen := testsupport.NewFakeGenerator().FailOn(0, timeout)

	_, err := draft.Write(context.Background(), packet(), gen, draft.Options{})
	require.ErrorIs(t, err, services.ErrTimeout)
	genErr, ok := services.AsGenerationError(err)
	require.True(t, ok)
	require.Equal(t, "openai", genErr.Backend)
}

func TestStageWritesDraftAndMeta(t *testing.T) {
	ctx := context.Background()
	store := artifact.NewMemStore()
	testsupport.PutJSON(t, store, artifact.ForScene(artifact.KindContextPacket, 1), packet())
	gen := testsupport.NewFakeGenerator(prose(3, 200))

	batch := &artifact.Batch{}
	handler := draft.NewStage(gen, "default-model", "medium", 0, nil)
	err := handler.Execute(ctx, store, stage.Request{
		Target:  stage.Target{Scene: 1},
		Params:  stage.Params{Length: "short"},
		RunID:   "run-draft",
		Now:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Outputs: batch,
	})
	require.NoError(t, err)
	require.NoError(t, batch.Commit(ctx, store))

	text, err := store.Load(ctx, artifact.ForScene(artifact.KindDraft, 1))
	require.NoError(t, err)
	require.Equal(t, 600, strings.Count(string(text), "word"))

	meta := testsupport.LoadJSON(t, store, artifact.ForScene(artifact.KindDraft, 1).Meta())
	require.Equal(t, "default-model", meta["model"])
	require.Equal(t, "fake", meta["backend"])
	details := meta["details"].(map[string]any)
	require.Equal(t, float64(600), details["target_words"])
	require.Equal(t, "short", details["length"])
	require.Contains(t, meta["input_hashes"], "artifacts/scenes/scene_001.context.json")
}

func TestStageLeavesBatchEmptyOnFailure(t *testing.T) {
	store := artifact.NewMemStore()
	testsupport.PutJSON(t, store, artifact.ForScene(artifact.KindContextPacket, 1), packet())
	gen := testsupport.NewFakeGenerator().FailOn(0, &services.GenerationError{Backend: "fake", Err: errors.New("boom")})

	batch := &artifact.Batch{}
	err := draft.NewStage(gen, "m", "medium", 0, nil).Execute(context.Background(), store, stage.Request{
		Target:  stage.Target{Scene: 1},
		Outputs: batch,
	})
	require.ErrorIs(t, err, services.ErrExternalTool)
	require.Zero(t, batch.Len())
}
