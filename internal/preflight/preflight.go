package preflight

import (
	"context"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"storycodex/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes every applicable check for cfg concurrently and returns the
// results in a stable order.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	checks := []func(context.Context) Result{
		func(context.Context) Result { return CheckDirectoryAccess("Project root", cfg.Root) },
		func(context.Context) Result {
			return CheckDirectoryAccess("Artifacts directory", filepath.Join(cfg.Root, "artifacts"))
		},
		func(context.Context) Result {
			return CheckFile("Default story spec", filepath.Join(cfg.Root, "artifacts", "defaults", "story_spec.json"))
		},
		func(ctx context.Context) Result { return CheckLLM(ctx, "Generation backend", cfg.ClientConfig()) },
	}
	if cfg.Storage.Backend == "redis" {
		checks = append(checks, func(ctx context.Context) Result {
			return CheckRedis(ctx, cfg.Storage.RedisAddr, cfg.Storage.RedisPrefix)
		})
	}

	results := make([]Result, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	for i, check := range checks {
		g.Go(func() error {
			results[i] = check(gctx)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
