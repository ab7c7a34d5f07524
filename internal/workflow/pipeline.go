package workflow

import (
	"context"
	"log/slog"
	"time"

	"storycodex/internal/artifact"
	"storycodex/internal/config"
	"storycodex/internal/continuity"
	"storycodex/internal/draft"
	"storycodex/internal/logging"
	"storycodex/internal/planner"
	"storycodex/internal/ringctx"
	"storycodex/internal/seed"
	"storycodex/internal/services/llm"
	"storycodex/internal/stage"
	"storycodex/internal/stageexec"
)

// Pipeline runs stages against one workspace.
type Pipeline struct {
	cfg      *config.Config
	store    artifact.Store
	logger   *slog.Logger
	recorder stageexec.Recorder
	now      func() time.Time
	handlers map[stage.ID]stage.Handler
}

// Option configures optional Pipeline behavior.
type Option func(*Pipeline)

// WithRecorder mirrors stage runs into a run ledger such as *registry.Store.
func WithRecorder(rec stageexec.Recorder) Option {
	return func(p *Pipeline) {
		p.recorder = rec
	}
}

// WithClock overrides the time source used for meta sidecars (tests).
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithHandler replaces the handler of one stage.
func WithHandler(id stage.ID, h stage.Handler) Option {
	return func(p *Pipeline) {
		p.handlers[id] = h
	}
}

// New constructs a pipeline. gen may be nil; generating stages then fail
// their health check and their Execute with a GenerationError.
func New(cfg *config.Config, store artifact.Store, gen llm.Generator, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Pipeline{
		cfg:      cfg,
		store:    store,
		logger:   logger,
		now:      time.Now,
		handlers: newHandlers(cfg, gen, logger),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func newHandlers(cfg *config.Config, gen llm.Generator, logger *slog.Logger) map[stage.ID]stage.Handler {
	model := cfg.LLM.Model
	return map[stage.ID]stage.Handler{
		stage.Seed:   seed.Handler{},
		stage.Spine:  planner.NewSpineStage(gen, model, logger),
		stage.Scenes: planner.NewScenesStage(gen, model, logger),
		stage.Beats:  planner.NewBeatsStage(gen, model, logger),
		stage.Context: ringctx.NewStage(ringctx.Options{
			Budget:     cfg.Context.Budget,
			Resolution: cfg.Context.Resolution,
			Include:    cfg.Context.Include,
		}, logger),
		stage.Draft:      draft.NewStage(gen, model, cfg.Draft.Length, cfg.Draft.TargetWords, logger),
		stage.Continuity: continuity.NewStage(logger),
	}
}

// Store returns the artifact store the pipeline reads and writes.
func (p *Pipeline) Store() artifact.Store { return p.store }

// Init scaffolds the default templates and the example style profile.
func (p *Pipeline) Init(ctx context.Context, force bool) ([]artifact.Ref, error) {
	refs, err := seed.Init(ctx, p.store, seed.InitOptions{Force: force})
	if err != nil {
		return nil, err
	}
	p.logger.Info("workspace initialized",
		logging.Event("workspace_init"),
		logging.Int("files", len(refs)),
	)
	return refs, nil
}

// Health returns the readiness of every stage handler in graph order.
func (p *Pipeline) Health(ctx context.Context) []stage.Health {
	defs := stage.All()
	out := make([]stage.Health, 0, len(defs))
	for _, def := range defs {
		h, ok := p.handlers[def.ID]
		if !ok || h == nil {
			out = append(out, stage.Unhealthy(string(def.ID), "no handler registered"))
			continue
		}
		out = append(out, h.HealthCheck(ctx))
	}
	return out
}
