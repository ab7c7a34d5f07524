package stageexec

import (
	"context"
	"log/slog"
	"time"

	"storycodex/internal/artifact"
	"storycodex/internal/logging"
	"storycodex/internal/registry"
)

// runRecord mirrors one execution into the registry. Registry failures are
// logged and never fail the stage: the artifacts on disk are the source of truth.
type runRecord struct {
	ctx    context.Context
	logger *slog.Logger
	opts   Options
	id     int64
	ok     bool
}

func newRunRecord(ctx context.Context, logger *slog.Logger, opts Options) *runRecord {
	rec := &runRecord{ctx: context.WithoutCancel(ctx), logger: logger, opts: opts}
	if opts.Recorder == nil {
		return rec
	}
	id, err := opts.Recorder.BeginRun(rec.ctx, registry.RunStart{
		RunID:   opts.RunID,
		Stage:   string(opts.Stage),
		Scene:   opts.Target.Scene,
		Chapter: opts.Target.Chapter,
	})
	if err != nil {
		logging.WarnWithContext(logger, "registry begin run failed", "registry_error", logging.Error(err))
		return rec
	}
	rec.id, rec.ok = id, true
	return rec
}

func (r *runRecord) finish(status, message string) {
	if !r.ok {
		return
	}
	if err := r.opts.Recorder.FinishRun(r.ctx, r.id, status, message); err != nil {
		logging.WarnWithContext(r.logger, "registry finish run failed", "registry_error", logging.Error(err))
	}
}

func (r *runRecord) artifacts(digests []artifact.Digest, at time.Time) {
	if r.opts.Recorder == nil {
		return
	}
	for _, d := range digests {
		err := r.opts.Recorder.RecordArtifact(r.ctx, registry.ArtifactRecord{
			Path:      d.Ref.Path(),
			Kind:      string(d.Ref.Kind),
			Scene:     d.Ref.Scene,
			Chapter:   d.Ref.Chapter,
			SHA256:    d.SHA256,
			Stage:     string(r.opts.Stage),
			RunID:     r.opts.RunID,
			UpdatedAt: at,
		})
		if err != nil {
			logging.WarnWithContext(r.logger, "registry record artifact failed", "registry_error",
				logging.Artifact(d.Ref.Path()),
				logging.Error(err),
			)
		}
	}
}
