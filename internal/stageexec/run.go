package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"storycodex/internal/artifact"
	"storycodex/internal/logging"
	"storycodex/internal/registry"
	"storycodex/internal/services"
	"storycodex/internal/stage"
)

// Recorder persists run bookkeeping. *registry.Store satisfies it.
type Recorder interface {
	BeginRun(ctx context.Context, start registry.RunStart) (int64, error)
	FinishRun(ctx context.Context, id int64, status, message string) error
	RecordArtifact(ctx context.Context, rec registry.ArtifactRecord) error
}

// Options controls one stage execution.
type Options struct {
	Logger   *slog.Logger
	Store    artifact.Store
	Recorder Recorder
	Handler  stage.Handler
	Stage    stage.ID
	Target   stage.Target
	Params   stage.Params
	RunID    string
	Force    bool
	Now      func() time.Time
}

// Outcome reports what a stage execution did.
type Outcome struct {
	Stage   stage.ID
	Status  string
	Output  artifact.Ref
	Written []artifact.Ref
}

// Skipped reports whether the stage left existing outputs untouched.
func (o Outcome) Skipped() bool { return o.Status == registry.StatusSkipped }

// Run executes a stage: it skips when the output already exists (unless
// forced), gates on the stage's dependencies, runs the handler and commits the
// staged outputs only after the handler succeeded.
func Run(ctx context.Context, opts Options) (Outcome, error) {
	def, ok := stage.Lookup(opts.Stage)
	if !ok {
		return Outcome{}, fmt.Errorf("unknown stage %q", opts.Stage)
	}
	if opts.Handler == nil {
		return Outcome{}, fmt.Errorf("stage handler unavailable: %s", opts.Stage)
	}
	if opts.Store == nil {
		return Outcome{}, errors.New("artifact store is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	stageCtx := services.WithStage(ctx, string(opts.Stage))
	stageCtx = services.WithSceneID(stageCtx, opts.Target.Scene)
	stageCtx = services.WithRunID(stageCtx, opts.RunID)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)
	if aware, ok := opts.Handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	outcome := Outcome{Stage: opts.Stage, Output: def.Output(opts.Target)}

	if !opts.Force && !def.AlwaysRerun {
		fresh, err := upToDate(stageCtx, opts, def)
		if err != nil {
			return outcome, err
		}
		if fresh {
			outcome.Status = registry.StatusSkipped
			stageLogger.Info(
				"stage skipped",
				logging.Event("stage_skip"),
				logging.Artifact(outcome.Output.Path()),
				logging.String("reason", "output exists; use --force to regenerate"),
			)
			rec := newRunRecord(stageCtx, stageLogger, opts)
			rec.finish(registry.StatusSkipped, "")
			return outcome, nil
		}
	}

	stageLogger.Info(
		"stage started",
		logging.Event("stage_start"),
		logging.Artifact(outcome.Output.Path()),
		logging.Bool("force", opts.Force),
	)
	rec := newRunRecord(stageCtx, stageLogger, opts)
	started := now()

	if err := stage.Check(stageCtx, opts.Store, opts.Stage, opts.Target); err != nil {
		return outcome, handleFailure(stageLogger, rec, err)
	}

	batch := &artifact.Batch{}
	req := stage.Request{
		Target:  opts.Target,
		Params:  opts.Params,
		RunID:   opts.RunID,
		Now:     now().UTC(),
		Outputs: batch,
	}
	if err := opts.Handler.Execute(stageCtx, opts.Store, req); err != nil {
		return outcome, handleFailure(stageLogger, rec, err)
	}
	if err := stageCtx.Err(); err != nil {
		return outcome, handleFailure(stageLogger, rec, err)
	}
	if err := batch.Commit(stageCtx, opts.Store); err != nil {
		return outcome, handleFailure(stageLogger, rec, fmt.Errorf("commit outputs: %w", err))
	}

	outcome.Status = registry.StatusCompleted
	outcome.Written = batch.Refs()
	rec.artifacts(batch.Digests(), now().UTC())
	rec.finish(registry.StatusCompleted, "")

	stageLogger.Info(
		"stage completed",
		logging.Event("stage_complete"),
		logging.Artifact(outcome.Output.Path()),
		logging.Int("artifacts_written", batch.Len()),
		logging.Duration("duration", now().Sub(started)),
	)
	return outcome, nil
}

func upToDate(ctx context.Context, opts Options, def stage.Definition) (bool, error) {
	if checker, ok := opts.Handler.(stage.UpToDateChecker); ok {
		return checker.UpToDate(ctx, opts.Store, opts.Target)
	}
	return opts.Store.Exists(ctx, def.Output(opts.Target))
}

func handleFailure(logger *slog.Logger, rec *runRecord, stageErr error) error {
	message := strings.TrimSpace(stageErr.Error())
	attrs := []logging.Attr{
		logging.String(logging.FieldErrorKind, services.Kind(stageErr)),
		logging.String("error_message", message),
		logging.Error(stageErr),
	}
	var dep *services.MissingDependencyError
	if errors.As(stageErr, &dep) && dep.Hint != "" {
		attrs = append(attrs, logging.String(logging.FieldErrorHint, dep.Hint))
	}
	logging.ErrorWithContext(logger, "stage failed", "stage_failure", attrs...)
	rec.finish(registry.StatusFailed, message)
	return stageErr
}
