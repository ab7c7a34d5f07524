package services_test

import (
	"context"
	"testing"

	"storycodex/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSceneID(ctx, 4)
	ctx = services.WithStage(ctx, "context")
	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.SceneIDFromContext(ctx); !ok || id != 4 {
		t.Fatalf("unexpected scene id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "context" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RunIDFromContext(ctx); !ok || rid != "run-1" {
		t.Fatalf("unexpected run id: %v %v", rid, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	ctx = services.WithSceneID(ctx, 0)
	if _, ok := services.SceneIDFromContext(ctx); ok {
		t.Fatal("expected no scene value")
	}
}
