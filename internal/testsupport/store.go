package testsupport

import (
	"context"
	"errors"
	"sync"
	"testing"

	"storycodex/internal/artifact"
	"storycodex/internal/registry"
	"storycodex/internal/story"
)

// MustOpenRegistry opens a registry.Store under the test root and registers cleanup.
func MustOpenRegistry(t testing.TB, path string) *registry.Store {
	t.Helper()

	store, err := registry.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// Minimal fixtures for a one-chapter, one-scene story.
const (
	StorySpecJSON = `{"title":"Test","premise":"A detective","pov":"third","tense":"past","tone":["noir"],"constraints":{"must":[],"must_not":[]}}`
	SpineJSON     = `{"acts":[{"act_no":1,"summary":"Setup","chapters":[{"chapter_no":1,"goal":"Find the clue","turning_points":[],"scenes":[1]}]}]}`
)

// ScenePlan returns a valid plan for sceneID in chapter 1.
func ScenePlan(sceneID int, cast ...string) story.ScenePlan {
	if cast == nil {
		cast = []string{}
	}
	return story.ScenePlan{
		SceneID:   sceneID,
		ChapterNo: 1,
		Title:     "Scene",
		Setting:   story.Setting{LocationID: "office", Time: "night", MoodTags: story.StringList{"tense"}},
		Cast:      cast,
		Goal:      "Find the clue",
		Stakes:    "The case goes cold",
		BeatsRef:  story.BeatsPath(sceneID),
	}
}

// SceneBeats returns a valid three-beat list for sceneID.
func SceneBeats(sceneID int) story.SceneBeats {
	return story.SceneBeats{
		SceneID: sceneID,
		Beats: []story.Beat{
			{Type: story.BeatEntry, Description: "The detective arrives."},
			{Type: story.BeatTurn, Description: "A clue surfaces."},
			{Type: story.BeatExit, Description: "The detective leaves."},
		},
	}
}

// SeedPlannedScene stores the inputs, spine, index, plan and beats of a
// one-scene story so context and later stages can run.
func SeedPlannedScene(t testing.TB, store artifact.Store, cast ...string) {
	t.Helper()

	PutArtifact(t, store, artifact.Of(artifact.KindInputStorySpec), StorySpecJSON)
	PutArtifact(t, store, artifact.Of(artifact.KindSpine), SpineJSON)
	PutJSON(t, store, artifact.Of(artifact.KindScenesIndex), story.ScenesIndex{
		Version: 1,
		Scenes: []story.SceneEntry{{
			SceneID: 1, ChapterNo: 1, Title: "Scene",
			PlanPath: story.PlanPath(1), BeatsPath: story.BeatsPath(1),
		}},
	})
	PutJSON(t, store, artifact.ForScene(artifact.KindScenePlan, 1), ScenePlan(1, cast...))
	PutJSON(t, store, artifact.ForScene(artifact.KindSceneBeats, 1), SceneBeats(1))
}

// ErrStoreFull is the error FailingStore returns for a failing write.
var ErrStoreFull = errors.New("disk full")

// FailingStore wraps a MemStore and fails the Store calls whose 1-based
// sequence numbers are listed in failAt. Every other call goes through.
type FailingStore struct {
	*artifact.MemStore

	mu     sync.Mutex
	failAt map[int]bool
	writes int
}

// NewFailingStore wraps inner so that the listed writes fail.
func NewFailingStore(inner *artifact.MemStore, failAt ...int) *FailingStore {
	fail := make(map[int]bool, len(failAt))
	for _, n := range failAt {
		fail[n] = true
	}
	return &FailingStore{MemStore: inner, failAt: fail}
}

func (s *FailingStore) Store(ctx context.Context, ref artifact.Ref, data []byte) error {
	s.mu.Lock()
	s.writes++
	fail := s.failAt[s.writes]
	s.mu.Unlock()
	if fail {
		return ErrStoreFull
	}
	return s.MemStore.Store(ctx, ref, data)
}
