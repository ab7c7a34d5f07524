package stage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"storycodex/internal/artifact"
	"storycodex/internal/services"
	"storycodex/internal/story"
	"storycodex/internal/tree"
)

// shapeCheck parses an artifact as its expected shape. target carries the
// scene or chapter the document must cover.
type shapeCheck func(data []byte, target Target) error

var shapeChecks = map[artifact.Kind]shapeCheck{
	artifact.KindDefaultStorySpec: checkTreeObject,
	artifact.KindInputStorySpec: func(data []byte, _ Target) error {
		doc, err := tree.ParseJSON(data)
		if err != nil {
			return err
		}
		return story.CheckStorySpec(doc)
	},
	artifact.KindInputPlotIntent: func(data []byte, _ Target) error {
		doc, err := tree.ParseJSON(data)
		if err != nil {
			return err
		}
		return story.CheckPlotIntent(doc)
	},
	artifact.KindSpine: func(data []byte, target Target) error {
		var spine story.Spine
		if err := json.Unmarshal(data, &spine); err != nil {
			return err
		}
		if err := spine.Validate(); err != nil {
			return err
		}
		if target.Chapter > 0 {
			if _, _, ok := spine.Chapter(target.Chapter); !ok {
				return fmt.Errorf("chapter %d not found in spine", target.Chapter)
			}
		}
		return nil
	},
	artifact.KindScenesIndex: func(data []byte, target Target) error {
		var idx story.ScenesIndex
		if err := json.Unmarshal(data, &idx); err != nil {
			return err
		}
		if err := idx.Validate(); err != nil {
			return err
		}
		if target.Scene > 0 {
			if _, ok := idx.Entry(target.Scene); !ok {
				return fmt.Errorf("scene %d is not in the scenes index", target.Scene)
			}
		}
		return nil
	},
	artifact.KindScenePlan: func(data []byte, target Target) error {
		var plan story.ScenePlan
		if err := json.Unmarshal(data, &plan); err != nil {
			return err
		}
		if plan.SceneID != target.Scene {
			return fmt.Errorf("plan describes scene %d", plan.SceneID)
		}
		return plan.Validate()
	},
	artifact.KindSceneBeats: func(data []byte, target Target) error {
		var beats story.SceneBeats
		if err := json.Unmarshal(data, &beats); err != nil {
			return err
		}
		if beats.SceneID != target.Scene {
			return fmt.Errorf("beats describe scene %d", beats.SceneID)
		}
		return beats.Validate()
	},
	artifact.KindContextPacket: func(data []byte, target Target) error {
		var packet story.ContextPacket
		if err := json.Unmarshal(data, &packet); err != nil {
			return err
		}
		if packet.SceneID != target.Scene {
			return fmt.Errorf("packet describes scene %d", packet.SceneID)
		}
		return packet.Validate()
	},
	artifact.KindDraft: checkProse,
	artifact.KindFinal: checkProse,
}

func checkTreeObject(data []byte, _ Target) error {
	doc, err := tree.ParseJSON(data)
	if err != nil {
		return err
	}
	if !doc.IsMapping() {
		return errors.New("document must be an object")
	}
	return nil
}

func checkProse(data []byte, _ Target) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.New("file is empty")
	}
	return nil
}

// Check verifies every requirement of stage id for target, in table order,
// and returns a MissingDependencyError naming the first one that is absent or
// does not parse as its expected shape. Optional requirements are checked only
// when present.
func Check(ctx context.Context, store artifact.Store, id ID, target Target) error {
	def, ok := Lookup(id)
	if !ok {
		return services.Wrap(services.ErrValidation, string(id), "check", "unknown stage", nil)
	}
	if def.NeedsScene && target.Scene < 1 {
		return services.Wrap(services.ErrValidation, string(id), "check", "scene must be at least 1", nil)
	}
	for _, req := range def.Refs(target) {
		data, err := store.Load(ctx, req.Ref)
		if err != nil {
			if !errors.Is(err, services.ErrNotFound) {
				return err
			}
			if req.Optional {
				continue
			}
			return missing(id, req.Ref, target, "not found")
		}
		check := shapeChecks[req.Ref.Kind]
		if check == nil {
			continue
		}
		if err := check(data, target); err != nil {
			return missing(id, req.Ref, target, strings.Join(story.Problems(err), "; "))
		}
	}
	return nil
}

func missing(id ID, ref artifact.Ref, target Target, reason string) error {
	return &services.MissingDependencyError{
		Stage:       string(id),
		Requirement: ref.String(),
		Path:        ref.Path(),
		Reason:      reason,
		Hint:        Hint(ref.Kind, target),
	}
}

// Hint suggests the command that produces an artifact kind.
func Hint(kind artifact.Kind, target Target) string {
	switch kind {
	case artifact.KindDefaultStorySpec, artifact.KindDefaultPlotIntent:
		return "run storycodex init"
	case artifact.KindInputStorySpec, artifact.KindInputPlotIntent:
		return "run storycodex seed apply"
	case artifact.KindSpine:
		return "run storycodex plan spine"
	case artifact.KindScenesIndex, artifact.KindScenePlan:
		if target.Chapter > 0 {
			return fmt.Sprintf("run storycodex plan scenes --chapter %d", target.Chapter)
		}
		return "run storycodex plan scenes"
	case artifact.KindSceneBeats:
		return fmt.Sprintf("run storycodex plan beats --scene %d", target.Scene)
	case artifact.KindContextPacket:
		return fmt.Sprintf("run storycodex build-context --scene %d", target.Scene)
	case artifact.KindDraft:
		return fmt.Sprintf("run storycodex write scene --scene %d", target.Scene)
	case artifact.KindFinal:
		return "save the edited scene as " + artifact.ForScene(artifact.KindFinal, target.Scene).Path()
	}
	return ""
}
