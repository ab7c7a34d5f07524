package workflow

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"storycodex/internal/artifact"
	"storycodex/internal/config"
	"storycodex/internal/registry"
	"storycodex/internal/services/llm"
)

// NewGenerator builds the chat client described by the [llm] section.
func NewGenerator(cfg *config.Config) *llm.Client {
	return llm.NewClient(cfg.ClientConfig())
}

// OpenStore returns the artifact store selected by [storage] and a function
// releasing it.
func OpenStore(ctx context.Context, cfg *config.Config) (artifact.Store, func() error, error) {
	switch cfg.Storage.Backend {
	case "redis":
		store, err := artifact.NewRedisStore(&redis.Options{Addr: cfg.Storage.RedisAddr}, cfg.Storage.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("connect redis store: %w", err)
		}
		return store, store.Close, nil
	default:
		return artifact.NewFSStore(cfg.Root), func() error { return nil }, nil
	}
}

// OpenRegistry opens the run ledger when [storage] registry is enabled.
// It returns nil without error when disabled.
func OpenRegistry(ctx context.Context, cfg *config.Config) (*registry.Store, error) {
	if !cfg.Storage.Registry {
		return nil, nil
	}
	return registry.Open(ctx, cfg.RegistryPath())
}
