package continuity

import (
	"context"
	"errors"
	"log/slog"

	"storycodex/internal/artifact"
	"storycodex/internal/logging"
	"storycodex/internal/services"
	"storycodex/internal/stage"
	"storycodex/internal/story"
)

// Stage checks a scene's draft (or final) and writes the report, the patch
// and a meta sidecar. The prose itself is only read.
type Stage struct {
	logger *slog.Logger
}

func NewStage(logger *slog.Logger) *Stage {
	logger = logging.NewComponentLogger(logger, "continuity")
	return &Stage{logger: logger}
}

// SetLogger implements stage.LoggerAware.
func (s *Stage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logging.NewComponentLogger(logger, "continuity")
	}
}

func (s *Stage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(string(stage.Continuity))
}

func (s *Stage) Execute(ctx context.Context, store artifact.Store, req stage.Request) error {
	sceneID := req.Target.Scene
	input := req.Target.Input
	if input == "" {
		input = story.InputDraft
	}
	proseKind := artifact.KindDraft
	if input == story.InputFinal {
		proseKind = artifact.KindFinal
	}

	packetRef := artifact.ForScene(artifact.KindContextPacket, sceneID)
	var packet story.ContextPacket
	if err := artifact.LoadJSON(ctx, store, packetRef, &packet); err != nil {
		return err
	}
	proseRef := artifact.ForScene(proseKind, sceneID)
	text, err := store.Load(ctx, proseRef)
	if err != nil {
		return err
	}

	factsRef := artifact.Of(artifact.KindFacts)
	locksRef := artifact.Of(artifact.KindLocks)
	var facts story.Facts
	if err := loadOptional(ctx, store, factsRef, &facts); err != nil {
		return err
	}
	var locks story.Locks
	if err := loadOptional(ctx, store, locksRef, &locks); err != nil {
		return err
	}

	report, patch := Check(string(text), facts, locks, Options{
		SceneID: sceneID,
		Input:   input,
		Beats:   packet.RingA.Beats,
		Known:   Known(packet),
		POV:     packet.RingA.POV,
		Tense:   packet.RingA.Tense,
	})
	summary := report.Summary
	s.logger.Info("continuity checked",
		logging.Event("continuity_summary"),
		logging.Int("findings", summary.Total),
		logging.Int("lock_violations", summary.Counts[story.FindingLockViolation]),
		logging.Int("fact_mismatches", summary.Counts[story.FindingFactMismatch]),
		logging.Int("unknown_references", summary.Counts[story.FindingUnknownReference]),
		logging.Int("beats_missing", summary.BeatsMissing),
		logging.String("pov", report.POV.Status),
		logging.String("tense", report.Tense.Status),
	)

	reportRef := artifact.ForScene(artifact.KindContinuityReport, sceneID)
	if err := req.Outputs.PutJSON(reportRef, report); err != nil {
		return err
	}
	if err := req.Outputs.PutJSON(artifact.ForScene(artifact.KindContinuityPatch, sceneID), patch); err != nil {
		return err
	}
	meta := artifact.NewMeta(string(stage.Continuity), req.RunID, req.Now)
	if meta.InputHashes, err = artifact.HashInputs(ctx, store, packetRef, proseRef, factsRef, locksRef); err != nil {
		return err
	}
	meta.Details = map[string]any{
		"input":    input,
		"findings": summary.Total,
		"pov":      report.POV.Status,
		"tense":    report.Tense.Status,
	}
	return req.Outputs.PutJSON(reportRef.Meta(), meta)
}

func loadOptional(ctx context.Context, store artifact.Store, ref artifact.Ref, out any) error {
	err := artifact.LoadJSON(ctx, store, ref, out)
	if errors.Is(err, services.ErrNotFound) {
		return nil
	}
	return err
}
