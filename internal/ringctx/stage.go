package ringctx

import (
	"context"
	"log/slog"

	"storycodex/internal/artifact"
	"storycodex/internal/logging"
	"storycodex/internal/stage"
)

// Stage writes the context packet of a scene and its meta sidecar.
type Stage struct {
	defaults Options
	logger   *slog.Logger
}

// NewStage returns the context stage. defaults fill options a request leaves unset.
func NewStage(defaults Options, logger *slog.Logger) *Stage {
	logger = logging.NewComponentLogger(logger, "context-compiler")
	return &Stage{defaults: defaults, logger: logger}
}

// SetLogger implements stage.LoggerAware.
func (s *Stage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logging.NewComponentLogger(logger, "context-compiler")
	}
}

// HealthCheck reports ready; compilation needs nothing beyond the store.
func (s *Stage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(string(stage.Context))
}

func (s *Stage) options(params stage.Params) Options {
	opts := s.defaults
	if params.Budget > 0 {
		opts.Budget = params.Budget
	}
	if params.Resolution != "" {
		opts.Resolution = params.Resolution
	}
	if params.Include != "" {
		opts.Include = params.Include
	}
	return opts
}

// Execute compiles the packet for req.Target.Scene.
func (s *Stage) Execute(ctx context.Context, store artifact.Store, req stage.Request) error {
	sceneID := req.Target.Scene
	result, err := Compile(ctx, store, sceneID, s.options(req.Params))
	if err != nil {
		return err
	}
	build := result.Packet.Build
	if len(build.Dropped) > 0 {
		s.logger.Info("context blocks dropped to fit budget",
			logging.Int("dropped", len(build.Dropped)),
			logging.Strings("dropped_blocks", build.Dropped),
		)
	}
	s.logger.Debug("context packet compiled",
		logging.Int("budget_tokens", build.BudgetTokens),
		logging.Int("used_tokens", build.UsedTokens),
		logging.Int("sources", len(build.Sources)),
	)

	out := artifact.ForScene(artifact.KindContextPacket, sceneID)
	if err := req.Outputs.PutJSON(out, result.Packet); err != nil {
		return err
	}
	meta := artifact.NewMeta(string(stage.Context), req.RunID, req.Now)
	if meta.InputHashes, err = artifact.HashInputs(ctx, store, result.Inputs...); err != nil {
		return err
	}
	meta.Details = map[string]any{
		"budget":      build.BudgetTokens,
		"used_tokens": build.UsedTokens,
		"resolution":  build.Resolution,
		"include":     build.Include,
	}
	return req.Outputs.PutJSON(out.Meta(), meta)
}
