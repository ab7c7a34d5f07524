package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"storycodex/internal/artifact"
	"storycodex/internal/services"
	"storycodex/internal/stage"
	"storycodex/internal/stageexec"
)

// Options are the per-invocation knobs of a stage run.
type Options struct {
	Params stage.Params
	// Force regenerates outputs that already exist.
	Force bool
	// RunID tags meta sidecars and registry rows; generated when empty.
	RunID string
}

// Run executes one stage for target and returns the ref of its primary output.
func (p *Pipeline) Run(ctx context.Context, id stage.ID, target stage.Target, opts Options) (artifact.Ref, error) {
	outcome, err := p.Execute(ctx, id, target, opts)
	return outcome.Output, err
}

// Execute is Run with the full outcome: whether the stage was skipped and
// every artifact it wrote.
func (p *Pipeline) Execute(ctx context.Context, id stage.ID, target stage.Target, opts Options) (stageexec.Outcome, error) {
	handler, ok := p.handlers[id]
	if !ok {
		return stageexec.Outcome{Stage: id}, services.Wrap(services.ErrValidation, string(id), "run", "unknown stage", nil)
	}
	runID := strings.TrimSpace(opts.RunID)
	if runID == "" {
		runID = uuid.NewString()
	}
	return stageexec.Run(ctx, stageexec.Options{
		Logger:   p.logger,
		Store:    p.store,
		Recorder: p.recorder,
		Handler:  handler,
		Stage:    id,
		Target:   target,
		Params:   opts.Params,
		RunID:    runID,
		Force:    opts.Force,
		Now:      p.now,
	})
}

// RunThrough executes every stage from seed up to and including last, in
// graph order, under one run id. It stops at the first failure and returns
// the outcomes gathered so far.
func (p *Pipeline) RunThrough(ctx context.Context, last stage.ID, target stage.Target, opts Options) ([]stageexec.Outcome, error) {
	if _, ok := stage.Lookup(last); !ok {
		return nil, services.Wrap(services.ErrValidation, string(last), "run", "unknown stage", nil)
	}
	if strings.TrimSpace(opts.RunID) == "" {
		opts.RunID = uuid.NewString()
	}
	var outcomes []stageexec.Outcome
	for _, def := range stage.All() {
		if stage.Before(last, def.ID) {
			break
		}
		outcome, err := p.Execute(ctx, def.ID, scopedTarget(def, target), opts)
		if err != nil {
			return outcomes, fmt.Errorf("%s: %w", def.ID.Label(), err)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// scopedTarget drops the parts of target a stage does not address.
func scopedTarget(def stage.Definition, target stage.Target) stage.Target {
	switch {
	case def.NeedsScene:
		return target
	case def.ID == stage.Scenes:
		return stage.Target{Chapter: target.Chapter}
	default:
		return stage.Target{}
	}
}
