package stage

import (
	"context"
	"log/slog"
	"time"

	"storycodex/internal/artifact"
)

// Params carries per-invocation knobs. Stages ignore the fields they do not use.
type Params struct {
	Model       string
	Budget      int
	Resolution  string
	Include     string
	Length      string
	TargetWords int
}

// Request is one invocation of a stage handler.
type Request struct {
	Target Target
	Params Params
	RunID  string
	Now    time.Time
	// Outputs collects the artifacts the handler produces. Nothing reaches the
	// store until the executor commits the batch after Execute returns nil.
	Outputs *artifact.Batch
}

// Handler describes the contract the executor needs from each stage.
type Handler interface {
	Execute(ctx context.Context, store artifact.Store, req Request) error
	HealthCheck(ctx context.Context) Health
}

// UpToDateChecker lets a handler replace the default skip rule (primary output
// exists) with its own.
type UpToDateChecker interface {
	UpToDate(ctx context.Context, store artifact.Store, target Target) (bool, error)
}

// LoggerAware handlers receive the stage-scoped logger before Execute.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}
