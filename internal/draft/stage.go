package draft

import (
	"context"
	"log/slog"
	"strings"

	"storycodex/internal/artifact"
	"storycodex/internal/logging"
	"storycodex/internal/services/llm"
	"storycodex/internal/stage"
	"storycodex/internal/story"
)

// Stage drafts a scene from its context packet.
type Stage struct {
	gen          llm.Generator
	defaultModel string
	length       string
	targetWords  int
	logger       *slog.Logger
}

// NewStage returns the draft stage. length and targetWords are used when a
// request does not set them.
func NewStage(gen llm.Generator, defaultModel, length string, targetWords int, logger *slog.Logger) *Stage {
	logger = logging.NewComponentLogger(logger, "draft")
	return &Stage{gen: gen, defaultModel: defaultModel, length: length, targetWords: targetWords, logger: logger}
}

// SetLogger implements stage.LoggerAware.
func (s *Stage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logging.NewComponentLogger(logger, "draft")
	}
}

// HealthCheck reports whether a generator is wired.
func (s *Stage) HealthCheck(context.Context) stage.Health {
	if s.gen == nil {
		return stage.Unhealthy(string(stage.Draft), "generation backend not configured")
	}
	return stage.Healthy(string(stage.Draft))
}

// Execute writes out/scenes/scene_NNN.draft.md and its meta.
func (s *Stage) Execute(ctx context.Context, store artifact.Store, req stage.Request) error {
	sceneID := req.Target.Scene
	packetRef := artifact.ForScene(artifact.KindContextPacket, sceneID)
	var packet story.ContextPacket
	if err := artifact.LoadJSON(ctx, store, packetRef, &packet); err != nil {
		return err
	}

	opts := Options{
		Model:       s.defaultModel,
		Length:      s.length,
		TargetWords: s.targetWords,
		Logger:      s.logger,
	}
	if m := strings.TrimSpace(req.Params.Model); m != "" {
		opts.Model = m
	}
	if req.Params.Length != "" {
		opts.Length = req.Params.Length
		opts.TargetWords = 0
	}
	if req.Params.TargetWords > 0 {
		opts.TargetWords = req.Params.TargetWords
	}

	result, err := Write(ctx, packet, s.gen, opts)
	if err != nil {
		return err
	}

	out := artifact.ForScene(artifact.KindDraft, sceneID)
	req.Outputs.Put(out, []byte(result.Text))
	meta := artifact.NewMeta(string(stage.Draft), req.RunID, req.Now)
	meta.Model = opts.Model
	meta.Backend = llm.BackendName(ctx, s.gen)
	if meta.InputHashes, err = artifact.HashInputs(ctx, store, packetRef); err != nil {
		return err
	}
	meta.Details = map[string]any{
		"target_words": result.TargetWords,
		"length":       result.Length,
		"attempts":     result.Attempts,
	}
	return req.Outputs.PutJSON(out.Meta(), meta)
}
