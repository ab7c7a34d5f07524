package story_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"storycodex/internal/services"
	"storycodex/internal/story"
	"storycodex/internal/tree"
)

func parse(t *testing.T, text string) tree.Value {
	t.Helper()
	v, err := tree.ParseJSON([]byte(text))
	require.NoError(t, err)
	return v
}

func TestSpineValidate(t *testing.T) {
	var spine story.Spine
	require.NoError(t, json.Unmarshal([]byte(`{"acts":[{"act_no":1,"summary":"s","chapters":[
		{"chapter_no":1,"goal":"g","turning_points":[],"scenes":[1,2]},
		{"chapter_no":2,"goal":"g2","turning_points":[],"scenes":[3]}]}]}`), &spine))
	require.NoError(t, spine.Validate())
	require.Equal(t, []int{1, 2, 3}, spine.SceneIDs())

	chapter, ok := spine.ChapterOf(3)
	require.True(t, ok)
	require.Equal(t, 2, chapter)

	spine.Acts[0].Chapters[1].Scenes = []int{4}
	err := spine.Validate()
	require.Error(t, err)
	require.True(t, errors.Is(err, services.ErrValidation))
	require.Contains(t, err.Error(), "sequential")
}

func TestSpineRequiresGoal(t *testing.T) {
	spine := story.Spine{Acts: []story.Act{{ActNo: 1, Chapters: []story.Chapter{{ChapterNo: 1, Scenes: []int{1}}}}}}
	err := spine.Validate()
	var schemaErr *services.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Equal(t, []string{"acts[0].chapters[0].goal"}, schemaErr.Missing)
}

func TestScenePlanDefaultsCastAndChecksBeatsRef(t *testing.T) {
	var plan story.ScenePlan
	require.NoError(t, json.Unmarshal([]byte(`{"scene_id":1,"chapter_no":1,"title":"T","goal":"g",
		"setting":{"location_id":"dock","time":"night","mood_tags":"tense"},
		"beats_ref":"artifacts/scenes/scene_001.beats.json"}`), &plan))
	require.NotNil(t, plan.Cast)
	require.Empty(t, plan.Cast)
	require.Equal(t, story.StringList{"tense"}, plan.Setting.MoodTags)
	require.NoError(t, plan.Validate())

	encoded, err := json.Marshal(plan)
	require.NoError(t, err)
	require.Contains(t, string(encoded), `"cast":[]`)

	plan.BeatsRef = "artifacts/scenes/scene_002.beats.json"
	require.ErrorIs(t, plan.Validate(), services.ErrValidation)
}

func TestSceneBeatsValidate(t *testing.T) {
	beats := story.SceneBeats{SceneID: 1, Beats: []story.Beat{
		{Type: story.BeatEntry, Description: "arrive"},
		{Type: story.BeatExit, Description: "leave"},
	}}
	err := beats.Validate()
	require.ErrorIs(t, err, services.ErrValidation)
	require.Contains(t, err.Error(), "at least one turn")

	beats.Beats = append(beats.Beats, story.Beat{Type: "climax", Description: "boom"})
	err = beats.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "must be one of")

	beats.Beats[2].Type = story.BeatTurn
	require.NoError(t, beats.Validate())
}

func TestProblemsFlattensSchemaError(t *testing.T) {
	err := &services.SchemaError{Kind: "spine", Missing: []string{"acts"}, Detail: "a; b"}
	require.Equal(t, []string{"acts is required", "a", "b"}, story.Problems(err))
	require.Nil(t, story.Problems(nil))
}

func TestCheckStorySpec(t *testing.T) {
	defaults, err := tree.ParseJSON(story.DefaultStorySpecJSON())
	require.NoError(t, err)
	require.NoError(t, story.CheckStorySpec(defaults))

	var schemaErr *services.SchemaError
	err = story.CheckStorySpec(parse(t, `{"premise":"A detective"}`))
	require.ErrorAs(t, err, &schemaErr)
	require.Equal(t, []string{"title"}, schemaErr.Missing)

	err = story.CheckStorySpec(parse(t, `{"title":"Test"}`))
	require.ErrorAs(t, err, &schemaErr)
	require.Equal(t, []string{"premise"}, schemaErr.Missing)

	require.NoError(t, story.CheckStorySpec(parse(t, `{"title":"Test","premise":"A detective"}`)))
	require.NoError(t, story.CheckPlotIntent(parse(t, `{}`)))
	require.Error(t, story.CheckPlotIntent(parse(t, `[]`)))
}

func TestStorySpecViewFallbacks(t *testing.T) {
	spec, err := story.DecodeStorySpec(parse(t, `{"title":"T","logline":"L","tone":"noir"}`))
	require.NoError(t, err)
	require.Equal(t, "L", spec.PremiseText())
	require.Equal(t, story.StringList{"noir"}, spec.Tone)
	require.Equal(t, "first", spec.PointOfView())
	require.Equal(t, "past", spec.VerbTense())

	spec, err = story.DecodeStorySpec(parse(t, `{"title":"T","premise":"P","logline":"L","pov":"third"}`))
	require.NoError(t, err)
	require.Equal(t, "P", spec.PremiseText())
	require.Equal(t, "third", spec.PointOfView())
}

func TestFactsFromTree(t *testing.T) {
	facts, err := story.FactsFromTree(parse(t, `{"version":2,"facts":{
		"mara.eye_color":"green",
		"harbor.state":{"value":"flooded","keywords":["water","tide"]}}}`))
	require.NoError(t, err)
	require.Equal(t, 2, facts.Version)
	require.Len(t, facts.Items, 2)
	require.Equal(t, "harbor.state", facts.Items[0].Key)
	require.Equal(t, []string{"water", "tide"}, facts.Items[0].Keywords)
	require.Equal(t, "flooded", facts.Items[0].Value.Text())

	fact, ok := facts.Lookup("mara.eye_color")
	require.True(t, ok)
	require.Equal(t, "mara", fact.Entity)
	require.Equal(t, "eye_color", fact.Attribute)
	require.Equal(t, []string{"harbor", "mara"}, facts.Entities())

	_, err = story.FactsFromTree(parse(t, `{"facts":{"nodot":"x"}}`))
	require.ErrorIs(t, err, services.ErrValidation)
}

func TestNormalizeLock(t *testing.T) {
	locks := story.LocksFromTree(parse(t, `{"version":1,"locks":[
		{"lock_id":"L1","text":"Mara never lies","severity":"absolute"},
		{"id":"L2","key":"mara.eye_color","value":"green","severity":"must","tags":["global"]},
		"The harbor is closed"]}`))
	require.Len(t, locks.Locks, 3)

	require.Equal(t, "L1", locks.Locks[0].ID)
	require.Equal(t, "Mara never lies", locks.Locks[0].Statement)
	require.Equal(t, story.SeverityShould, locks.Locks[0].Severity)

	require.Equal(t, story.SeverityMust, locks.Locks[1].Severity)
	require.True(t, locks.Locks[1].HasTag("GLOBAL"))
	require.Equal(t, "green", locks.Locks[1].Value.Text())
	require.Equal(t, "mara.eye_color is green", locks.Locks[1].Statement)

	require.Equal(t, "unknown", locks.Locks[2].ID)
	require.Equal(t, "The harbor is closed", locks.Locks[2].Statement)

	lock, ok := locks.ForKey("mara.eye_color")
	require.True(t, ok)
	require.Equal(t, "L2", lock.ID)
}

func TestEntityDocAndCharacterState(t *testing.T) {
	doc := story.EntityDocFromTree(parse(t, `{"characters":[
		{"id":"mara","name":"Mara Vell","current_state":"calm"},
		{"name":"Old Tom"}],
		"glossary":[{"term":"Tidewright","definition":"harbor guild"},{"term":"x"}]}`))
	require.Len(t, doc.Entities, 2)
	require.Equal(t, "mara", doc.Entities[0].ID)
	require.Equal(t, "old_tom", doc.Entities[1].ID)
	require.Len(t, doc.Glossary, 1)

	entity, ok := doc.Find("MARA VELL")
	require.True(t, ok)

	var state story.CharacterState
	require.NoError(t, json.Unmarshal([]byte(`{"characters":{"mara":{"current_state":"wounded"}}}`), &state))
	applied := state.Apply(entity)
	current, _ := applied.Data.Get("current_state")
	require.Equal(t, "wounded", current.Text())
	original, _ := entity.Data.Get("current_state")
	require.Equal(t, "calm", original.Text())
}

func TestExampleStyleProfileRules(t *testing.T) {
	doc, err := tree.ParseJSON(story.ExampleStyleProfileJSON())
	require.NoError(t, err)
	profile, err := story.DecodeStyleProfile(doc)
	require.NoError(t, err)

	require.Equal(t, story.StringList{"noir", "taut"}, profile.Tone)
	require.Equal(t, []string{"MUST: shadow detail", "MUST NOT: montage"}, profile.Constraints())
	require.Equal(t, []string{
		"Intent: Lean, tense noir with sharp sensory cuts.",
		"Sentence rhythm: Mix short punches with one longer line per beat.",
		"Paragraphing: One paragraph per beat, no long blocks.",
		"Dialogue subtext: Say less than you mean.",
		"Dialogue style: Clipped, subtext-heavy.",
		"Diction register: plain",
		"Diction note: Favor clarity over flourish.",
		"Output controls: metaphor_density=low, exposition_throttle=tight, violence=medium, gore=low",
	}, profile.Rules())
}

func TestAppendUnique(t *testing.T) {
	require.Equal(t, []string{"a", "b", "c"}, story.AppendUnique([]string{"a", "b"}, "b", "c", "a"))
}

func TestDefaultPlotIntentDecodes(t *testing.T) {
	intent, err := story.DecodePlotIntent(story.DefaultPlotIntent())
	require.NoError(t, err)
	require.Len(t, intent.ActShape, 3)
	require.Empty(t, intent.Intent.CoreArc)
}
