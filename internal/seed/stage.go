package seed

import (
	"context"

	"storycodex/internal/artifact"
	"storycodex/internal/stage"
)

// Handler runs the seed merge as the first pipeline stage.
type Handler struct{}

// Execute merges the seeds and stages the inputs, manifest and report.
func (Handler) Execute(ctx context.Context, store artifact.Store, req stage.Request) error {
	result, err := Merge(ctx, store, req.Now)
	if err != nil {
		return err
	}
	return result.Stage(req.Outputs)
}

// HealthCheck reports the seed stage as always ready; it needs no backend.
func (Handler) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(string(stage.Seed))
}
