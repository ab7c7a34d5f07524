package artifact_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"storycodex/internal/artifact"
)

func TestRefPaths(t *testing.T) {
	tests := []struct {
		ref  artifact.Ref
		want string
	}{
		{artifact.Of(artifact.KindInputStorySpec), "artifacts/inputs/story_spec.json"},
		{artifact.Of(artifact.KindSeedReport), "out/seed_report.json"},
		{artifact.Of(artifact.KindSpine), "artifacts/plot/spine.json"},
		{artifact.ForScene(artifact.KindScenePlan, 3), "artifacts/scenes/scene_003.plan.json"},
		{artifact.ForScene(artifact.KindSceneBeats, 12), "artifacts/scenes/scene_012.beats.json"},
		{artifact.ForScene(artifact.KindContextPacket, 1), "artifacts/scenes/scene_001.context.json"},
		{artifact.ForScene(artifact.KindDraft, 1), "out/scenes/scene_001.draft.md"},
		{artifact.ForScene(artifact.KindContinuityReport, 1), "out/scenes/scene_001.continuity_report.json"},
		{artifact.ForChapter(artifact.KindCharacterState, 2), "artifacts/characters/state/ch02.json"},
		{artifact.Ref{Kind: artifact.KindSeedStoryOverrides, Ext: ".yaml"}, "seeds/story_overrides.yaml"},
		{artifact.Of(artifact.KindSeedPlotOverrides), "seeds/plot_overrides.json"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.ref.Path(), tt.ref.String())
	}
}

func TestSidecarPaths(t *testing.T) {
	require.Equal(t, "artifacts/plot/spine.meta.json", artifact.Of(artifact.KindSpine).Meta().Path())
	require.Equal(t, "artifacts/scenes/scene_002.beats.meta.json", artifact.ForScene(artifact.KindSceneBeats, 2).Meta().Path())
	require.Equal(t, "out/scenes/scene_004.draft.meta.json", artifact.ForScene(artifact.KindDraft, 4).Meta().Path())
	require.Equal(t, "out/scenes/scene_004.continuity.meta.json", artifact.ForScene(artifact.KindContinuityReport, 4).Meta().Path())
}

func TestRefString(t *testing.T) {
	require.Equal(t, "plan.beats[3]", artifact.ForScene(artifact.KindSceneBeats, 3).String())
	require.Equal(t, "characters.state[ch1]", artifact.ForChapter(artifact.KindCharacterState, 1).String())
	require.False(t, artifact.Kind("nope").Known())
}
