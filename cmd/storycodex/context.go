package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"storycodex/internal/artifact"
	"storycodex/internal/config"
	"storycodex/internal/logging"
	"storycodex/internal/services"
	"storycodex/internal/workflow"
)

type globalFlags struct {
	root     string
	config   string
	logLevel string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(strings.TrimSpace(c.flags.root), strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if level := strings.TrimSpace(c.flags.logLevel); level != "" {
			cfg.Logging.Level = level
		}
		c.config, c.configPath, c.configSeen = cfg, path, exists
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

// withPipeline builds the pipeline for one command and releases its
// resources afterwards. Mutating commands hold the workspace lock for the
// whole call.
func (c *commandContext) withPipeline(cmd *cobra.Command, mutating bool, fn func(context.Context, *workflow.Pipeline) error) (retErr error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithRequestID(ctx, uuid.NewString())

	if mutating {
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}
		unlock, err := artifact.NewFSStore(cfg.Root).Lock()
		if err != nil {
			return err
		}
		defer func() {
			if unlockErr := unlock(); unlockErr != nil && retErr == nil {
				retErr = fmt.Errorf("release workspace lock: %w", unlockErr)
			}
		}()
	}

	logger, err := c.logger()
	if err != nil {
		return err
	}
	store, closeStore, err := workflow.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var opts []workflow.Option
	reg, err := workflow.OpenRegistry(ctx, cfg)
	switch {
	case err != nil:
		logger.Warn("run registry unavailable", logging.Error(err))
	case reg != nil:
		defer reg.Close()
		opts = append(opts, workflow.WithRecorder(reg))
	}

	pipeline := workflow.New(cfg, store, workflow.NewGenerator(cfg), logger, opts...)
	return fn(ctx, pipeline)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

var (
	errSceneRequired   = errors.New("--scene must be at least 1")
	errChapterNegative = errors.New("--chapter must not be negative")
)

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, ", ")
}
