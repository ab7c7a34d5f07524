package stageexec_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"storycodex/internal/artifact"
	"storycodex/internal/logging"
	"storycodex/internal/registry"
	"storycodex/internal/services"
	"storycodex/internal/stage"
	"storycodex/internal/stageexec"
)

type fakeHandler struct {
	calls int
	err   error
	body  string
}

func (h *fakeHandler) Execute(_ context.Context, _ artifact.Store, req stage.Request) error {
	h.calls++
	req.Outputs.Put(artifact.Of(artifact.KindSpine), []byte(h.body))
	req.Outputs.Put(artifact.Of(artifact.KindSpine).Meta(), []byte(`{"run_id":"`+req.RunID+`"}`))
	return h.err
}

func (h *fakeHandler) HealthCheck(context.Context) stage.Health { return stage.Healthy("fake") }

type fakeRecorder struct {
	statuses  []string
	artifacts []registry.ArtifactRecord
}

func (r *fakeRecorder) BeginRun(context.Context, registry.RunStart) (int64, error) {
	return int64(len(r.statuses) + 1), nil
}

func (r *fakeRecorder) FinishRun(_ context.Context, _ int64, status, _ string) error {
	r.statuses = append(r.statuses, status)
	return nil
}

func (r *fakeRecorder) RecordArtifact(_ context.Context, rec registry.ArtifactRecord) error {
	r.artifacts = append(r.artifacts, rec)
	return nil
}

func seededStore(t *testing.T) *artifact.MemStore {
	t.Helper()
	store := artifact.NewMemStore()
	if err := store.Store(context.Background(), artifact.Of(artifact.KindInputStorySpec), []byte(`{"title":"T","premise":"P"}`)); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}

func options(store artifact.Store, h stage.Handler, rec stageexec.Recorder) stageexec.Options {
	return stageexec.Options{
		Logger:   logging.NewNop(),
		Store:    store,
		Recorder: rec,
		Handler:  h,
		Stage:    stage.Spine,
		RunID:    "run-1",
		Now:      func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
}

func TestRunCommitsOutputsAndRecords(t *testing.T) {
	store := seededStore(t)
	h := &fakeHandler{body: `{"acts":[]}`}
	rec := &fakeRecorder{}

	outcome, err := stageexec.Run(context.Background(), options(store, h, rec))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if outcome.Status != registry.StatusCompleted || len(outcome.Written) != 2 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	data, err := store.Load(context.Background(), artifact.Of(artifact.KindSpine))
	if err != nil || string(data) != `{"acts":[]}` {
		t.Fatalf("spine not committed: %q %v", data, err)
	}
	if len(rec.statuses) != 1 || rec.statuses[0] != registry.StatusCompleted {
		t.Fatalf("unexpected run statuses %v", rec.statuses)
	}
	if len(rec.artifacts) != 2 || rec.artifacts[0].Path != "artifacts/plot/spine.json" || rec.artifacts[0].SHA256 == "" {
		t.Fatalf("unexpected artifact records %+v", rec.artifacts)
	}
}

func TestRunSkipsExistingOutputUnlessForced(t *testing.T) {
	store := seededStore(t)
	if err := store.Store(context.Background(), artifact.Of(artifact.KindSpine), []byte("old")); err != nil {
		t.Fatalf("store: %v", err)
	}
	h := &fakeHandler{body: "new"}

	outcome, err := stageexec.Run(context.Background(), options(store, h, nil))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !outcome.Skipped() || h.calls != 0 {
		t.Fatalf("expected skip without handler call, got %+v calls=%d", outcome, h.calls)
	}

	opts := options(store, h, nil)
	opts.Force = true
	if _, err := stageexec.Run(context.Background(), opts); err != nil {
		t.Fatalf("forced Run returned error: %v", err)
	}
	data, _ := store.Load(context.Background(), artifact.Of(artifact.KindSpine))
	if string(data) != "new" {
		t.Fatalf("expected forced rerun to overwrite, got %q", data)
	}
}

func TestRunGatesOnDependencies(t *testing.T) {
	store := artifact.NewMemStore()
	h := &fakeHandler{body: "x"}
	rec := &fakeRecorder{}

	_, err := stageexec.Run(context.Background(), options(store, h, rec))
	var dep *services.MissingDependencyError
	if !errors.As(err, &dep) {
		t.Fatalf("expected MissingDependencyError, got %v", err)
	}
	if h.calls != 0 {
		t.Fatal("handler must not run when dependencies are missing")
	}
	if len(store.Paths()) != 0 {
		t.Fatalf("expected nothing written, got %v", store.Paths())
	}
	if len(rec.statuses) != 1 || rec.statuses[0] != registry.StatusFailed {
		t.Fatalf("unexpected run statuses %v", rec.statuses)
	}
}

func TestRunWritesNothingOnHandlerFailure(t *testing.T) {
	store := seededStore(t)
	boom := &services.GenerationError{Backend: "openai", Err: errors.New("boom")}
	h := &fakeHandler{body: "x", err: boom}

	_, err := stageexec.Run(context.Background(), options(store, h, nil))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected generation failure, got %v", err)
	}
	ok, _ := store.Exists(context.Background(), artifact.Of(artifact.KindSpine))
	if ok {
		t.Fatal("outputs of a failed stage must not be committed")
	}
}
