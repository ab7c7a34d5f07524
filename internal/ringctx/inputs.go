package ringctx

import (
	"context"
	"errors"
	"maps"
	"sort"

	"storycodex/internal/artifact"
	"storycodex/internal/services"
	"storycodex/internal/story"
	"storycodex/internal/tree"
)

// inputs is everything a packet may draw on for one scene.
type inputs struct {
	sceneID int
	spec    story.StorySpec
	plot    *story.PlotIntent
	style   *story.StyleProfile
	plan    story.ScenePlan
	beats   story.SceneBeats
	spine   *story.Spine
	index   *story.ScenesIndex
	facts   story.Facts
	locks   story.Locks
	state   *story.CharacterState

	// entity documents keyed by detail level
	characters map[string]story.EntityDoc
	world      map[string]story.EntityDoc

	used map[string]source
}

// source is an artifact that fed the packet.
type source struct {
	ref    artifact.Ref
	detail string
}

func (s source) key() string { return s.ref.Path() + "\x00" + s.detail }

func (in *inputs) use(ref artifact.Ref, detail string) {
	s := source{ref: ref, detail: detail}
	in.used[s.key()] = s
}

// sources returns the contributing artifacts sorted by path then detail.
func (in *inputs) sources() []source {
	return sortedSources(in.used)
}

// sourcesWith is sources plus extra, without recording extra as used.
func (in *inputs) sourcesWith(extra []source) []source {
	if len(extra) == 0 {
		return in.sources()
	}
	m := maps.Clone(in.used)
	for _, s := range extra {
		m[s.key()] = s
	}
	return sortedSources(m)
}

func sortedSources(m map[string]source) []source {
	out := make([]source, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if pi, pj := out[i].ref.Path(), out[j].ref.Path(); pi != pj {
			return pi < pj
		}
		return out[i].detail < out[j].detail
	})
	return out
}

func load(ctx context.Context, store artifact.Store, sceneID int) (*inputs, error) {
	in := &inputs{
		sceneID:    sceneID,
		characters: map[string]story.EntityDoc{},
		world:      map[string]story.EntityDoc{},
		used:       map[string]source{},
	}

	specRef := artifact.Of(artifact.KindInputStorySpec)
	specDoc, err := artifact.LoadTree(ctx, store, specRef)
	if err != nil {
		return nil, err
	}
	if in.spec, err = story.DecodeStorySpec(specDoc); err != nil {
		return nil, err
	}
	in.use(specRef, "")

	planRef := artifact.ForScene(artifact.KindScenePlan, sceneID)
	if err := artifact.LoadJSON(ctx, store, planRef, &in.plan); err != nil {
		return nil, err
	}
	in.use(planRef, "")

	beatsRef := artifact.ForScene(artifact.KindSceneBeats, sceneID)
	if in.plan.BeatsRef != "" && in.plan.BeatsRef != beatsRef.Path() {
		return nil, services.Wrap(services.ErrValidation, "context", "load beats",
			"beats_ref "+in.plan.BeatsRef+" does not resolve to "+beatsRef.Path(), nil)
	}
	if err := artifact.LoadJSON(ctx, store, beatsRef, &in.beats); err != nil {
		return nil, err
	}
	in.use(beatsRef, "")

	if doc, ok, err := optionalTree(ctx, store, artifact.Of(artifact.KindInputPlotIntent)); err != nil {
		return nil, err
	} else if ok {
		plot, err := story.DecodePlotIntent(doc)
		if err != nil {
			return nil, err
		}
		in.plot = &plot
		in.use(artifact.Of(artifact.KindInputPlotIntent), "")
	}

	styleRef, ok, err := artifact.ResolveSeed(ctx, store, artifact.KindSeedStyleProfile)
	if err != nil {
		return nil, err
	}
	if ok {
		doc, err := artifact.LoadTree(ctx, store, styleRef)
		if err != nil {
			return nil, err
		}
		profile, err := story.DecodeStyleProfile(doc)
		if err != nil {
			return nil, err
		}
		in.style = &profile
		in.use(styleRef, "")
	}

	if err := optionalJSON(ctx, store, artifact.Of(artifact.KindSpine), &in.spine); err != nil {
		return nil, err
	}
	if in.spine != nil {
		in.use(artifact.Of(artifact.KindSpine), "")
	}
	if err := optionalJSON(ctx, store, artifact.Of(artifact.KindScenesIndex), &in.index); err != nil {
		return nil, err
	}

	var facts *story.Facts
	if err := optionalJSON(ctx, store, artifact.Of(artifact.KindFacts), &facts); err != nil {
		return nil, err
	}
	if facts != nil {
		in.facts = *facts
		in.use(artifact.Of(artifact.KindFacts), "")
	}
	var locks *story.Locks
	if err := optionalJSON(ctx, store, artifact.Of(artifact.KindLocks), &locks); err != nil {
		return nil, err
	}
	if locks != nil {
		in.locks = *locks
		in.use(artifact.Of(artifact.KindLocks), "")
	}

	if in.plan.ChapterNo > 0 {
		stateRef := artifact.ForChapter(artifact.KindCharacterState, in.plan.ChapterNo)
		if err := optionalJSON(ctx, store, stateRef, &in.state); err != nil {
			return nil, err
		}
		if in.state != nil {
			in.use(stateRef, "")
		}
	}

	levels := map[string][2]artifact.Kind{
		story.DetailTiny:   {artifact.KindCharactersTiny, artifact.KindWorldTiny},
		story.DetailMedium: {artifact.KindCharactersMedium, artifact.KindWorldMedium},
		story.DetailFull:   {artifact.KindCharactersFull, artifact.KindWorldFull},
	}
	for _, level := range story.DetailLevels {
		kinds := levels[level]
		if doc, ok, err := optionalTree(ctx, store, artifact.Of(kinds[0])); err != nil {
			return nil, err
		} else if ok {
			in.characters[level] = story.EntityDocFromTree(doc)
		}
		if doc, ok, err := optionalTree(ctx, store, artifact.Of(kinds[1])); err != nil {
			return nil, err
		} else if ok {
			in.world[level] = story.EntityDocFromTree(doc)
		}
	}
	return in, nil
}

// entityRef returns the artifact holding entities of kind at level.
func entityRef(kind, level string) artifact.Ref {
	if kind == story.EntityCharacter {
		switch level {
		case story.DetailTiny:
			return artifact.Of(artifact.KindCharactersTiny)
		case story.DetailMedium:
			return artifact.Of(artifact.KindCharactersMedium)
		}
		return artifact.Of(artifact.KindCharactersFull)
	}
	switch level {
	case story.DetailTiny:
		return artifact.Of(artifact.KindWorldTiny)
	case story.DetailMedium:
		return artifact.Of(artifact.KindWorldMedium)
	}
	return artifact.Of(artifact.KindWorldFull)
}

func optionalTree(ctx context.Context, store artifact.Store, ref artifact.Ref) (tree.Value, bool, error) {
	doc, err := artifact.LoadTree(ctx, store, ref)
	if errors.Is(err, services.ErrNotFound) {
		return tree.Value{}, false, nil
	}
	if err != nil {
		return tree.Value{}, false, err
	}
	return doc, true, nil
}

// optionalJSON decodes ref into a freshly allocated *T, leaving *out nil when
// the artifact does not exist.
func optionalJSON[T any](ctx context.Context, store artifact.Store, ref artifact.Ref, out **T) error {
	var v T
	err := artifact.LoadJSON(ctx, store, ref, &v)
	if errors.Is(err, services.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	*out = &v
	return nil
}
