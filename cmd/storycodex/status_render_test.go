package main

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"storycodex/internal/registry"
	"storycodex/internal/stage"
	"storycodex/internal/story"
	"storycodex/internal/workflow"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Generation backend", statusError, "unreachable", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Generation backend:", "[ERROR] unreachable")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Spine", statusOK, "wrote 2 artifacts", true)
	if !strings.HasPrefix(got, "\x1b[32m") {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, "\x1b[0m") {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestRenderStageTable(t *testing.T) {
	finished := time.Date(2026, 3, 1, 10, 30, 0, 0, time.Local)
	rows := []workflow.StageStatus{
		{Stage: stage.Spine, Output: "artifacts/plot/spine.json", State: workflow.StateDone,
			LastRun: &registry.Run{Status: "completed", FinishedAt: finished}},
		{Stage: stage.Draft, Scene: 3, Output: "artifacts/prose/drafts/scene_003.md", State: workflow.StateBlocked,
			Reason: "artifacts/context/scene_003.json not found"},
	}
	got := renderStageTable(rows)
	for _, want := range []string{"Pipeline", "spine", "completed 2026-03-01 10:30", "blocked (artifacts/context/scene_003.json not found)", "3"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in table:\n%s", want, got)
		}
	}
}

func TestJoinOrNone(t *testing.T) {
	if got := joinOrNone(nil); got != "(none)" {
		t.Fatalf("joinOrNone(nil) = %q", got)
	}
	if got := joinOrNone([]string{"a", "b"}); got != "a, b" {
		t.Fatalf("joinOrNone = %q", got)
	}
}

func TestRenderFindingsSummarizesVoiceAndLocks(t *testing.T) {
	report := story.ContinuityReport{
		SceneID: 2,
		POV:     story.VoiceCheck{Expected: "third", Observed: "first", Status: story.CheckMismatch},
		Tense:   story.VoiceCheck{Expected: "past", Status: story.CheckUnclear},
		Locks: []story.LockStatus{
			{ID: "L1", Status: story.CheckPass},
			{ID: "L2", Status: story.CheckUnclear},
		},
	}
	got := renderFindings(report)
	want := "POV: mismatch (first), tense: unclear, locks: 1 pass, 0 violated, 1 unclear"
	if !strings.HasSuffix(got, want) {
		t.Fatalf("expected voice summary %q in:\n%s", want, got)
	}
	if !strings.HasPrefix(got, "Scene 2: no findings") {
		t.Fatalf("unexpected header:\n%s", got)
	}
}
