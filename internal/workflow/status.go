package workflow

import (
	"context"
	"errors"

	"storycodex/internal/artifact"
	"storycodex/internal/logging"
	"storycodex/internal/registry"
	"storycodex/internal/services"
	"storycodex/internal/stage"
	"storycodex/internal/story"
)

// Stage states reported by Status.
const (
	StateDone    = "done"
	StateReady   = "ready"
	StateBlocked = "blocked"
)

// StageStatus is one row of the status report: a stage for one target.
type StageStatus struct {
	Stage   stage.ID      `json:"stage"`
	Scene   int           `json:"scene,omitempty"`
	Output  string        `json:"output"`
	State   string        `json:"state"`
	Reason  string        `json:"reason,omitempty"`
	LastRun *registry.Run `json:"last_run,omitempty"`
}

// StatusSummary is the workspace overview printed by `status`.
type StatusSummary struct {
	Stages []StageStatus  `json:"stages"`
	Health []stage.Health `json:"health"`
}

// runHistory is the read side of the run ledger.
type runHistory interface {
	LastRun(ctx context.Context, stage string) (*registry.Run, bool, error)
}

// Status reports, for every stage and planned scene, whether the output
// exists, could run now, or is blocked by a missing prerequisite.
func (p *Pipeline) Status(ctx context.Context) (StatusSummary, error) {
	scenes, err := p.plannedScenes(ctx)
	if err != nil {
		return StatusSummary{}, err
	}
	history, _ := p.recorder.(runHistory)

	var rows []StageStatus
	for _, def := range stage.All() {
		targets := []stage.Target{{}}
		if def.NeedsScene {
			targets = targets[:0]
			for _, id := range scenes {
				targets = append(targets, stage.Target{Scene: id})
			}
		}
		if len(targets) == 0 {
			rows = append(rows, StageStatus{Stage: def.ID, State: StateBlocked, Reason: "no scenes planned"})
			continue
		}
		var last *registry.Run
		if history != nil {
			run, ok, err := history.LastRun(ctx, string(def.ID))
			if err != nil {
				p.logger.Warn("registry last run lookup failed", logging.String(logging.FieldStage, string(def.ID)), logging.Error(err))
			} else if ok {
				last = run
			}
		}
		for _, target := range targets {
			row, err := p.stageStatus(ctx, def, target)
			if err != nil {
				return StatusSummary{}, err
			}
			if last != nil && last.Scene == target.Scene {
				row.LastRun = last
			}
			rows = append(rows, row)
		}
	}
	return StatusSummary{Stages: rows, Health: p.Health(ctx)}, nil
}

func (p *Pipeline) stageStatus(ctx context.Context, def stage.Definition, target stage.Target) (StageStatus, error) {
	out := def.Output(target)
	row := StageStatus{Stage: def.ID, Scene: target.Scene, Output: out.Path()}
	exists, err := p.store.Exists(ctx, out)
	if err != nil {
		return row, err
	}
	if exists {
		row.State = StateDone
		return row, nil
	}
	err = stage.Check(ctx, p.store, def.ID, target)
	var dep *services.MissingDependencyError
	switch {
	case err == nil:
		row.State = StateReady
	case errors.As(err, &dep):
		row.State = StateBlocked
		row.Reason = dep.Requirement + " " + dep.Reason
	default:
		return row, err
	}
	return row, nil
}

// plannedScenes lists the scene ids of the scenes index, or none when the
// index has not been written or does not parse.
func (p *Pipeline) plannedScenes(ctx context.Context) ([]int, error) {
	var idx story.ScenesIndex
	err := artifact.LoadJSON(ctx, p.store, artifact.Of(artifact.KindScenesIndex), &idx)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrValidation):
		return nil, nil
	default:
		return nil, err
	}
	ids := make([]int, 0, len(idx.Scenes))
	for _, entry := range idx.Scenes {
		ids = append(ids, entry.SceneID)
	}
	return ids, nil
}
