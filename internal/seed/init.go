package seed

import (
	"context"
	"fmt"

	"storycodex/internal/artifact"
	"storycodex/internal/services"
	"storycodex/internal/story"
)

// InitOptions controls workspace scaffolding.
type InitOptions struct {
	Force bool
}

// Init writes the default templates and the example style profile. Existing
// files are only replaced with Force.
func Init(ctx context.Context, store artifact.Store, opts InitOptions) ([]artifact.Ref, error) {
	files := []struct {
		ref  artifact.Ref
		data []byte
	}{
		{artifact.Of(artifact.KindDefaultStorySpec), story.DefaultStorySpecJSON()},
		{artifact.Of(artifact.KindDefaultPlotIntent), story.DefaultPlotIntentJSON()},
		{artifact.Of(artifact.KindStyleProfileExample), story.ExampleStyleProfileJSON()},
	}

	if !opts.Force {
		for _, f := range files {
			exists, err := store.Exists(ctx, f.ref)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, services.Wrap(
					services.ErrConfiguration,
					"init",
					"scaffold",
					fmt.Sprintf("%s already exists; use --force to overwrite", f.ref.Path()),
					nil,
				)
			}
		}
	}

	var batch artifact.Batch
	for _, f := range files {
		batch.Put(f.ref, f.data)
	}
	if err := batch.Commit(ctx, store); err != nil {
		return nil, err
	}
	return batch.Refs(), nil
}
