package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storycodex/internal/testsupport"
)

func TestConfigInitWritesSample(t *testing.T) {
	root := t.TempDir()
	out, _, err := runCLI(t, "--root", root, "config", "init")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	target := filepath.Join(root, "storycodex.toml")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, "--root", root, "config", "init"); err == nil {
		t.Fatal("expected error when config exists without --overwrite")
	}
	if _, _, err := runCLI(t, "--root", root, "config", "init", "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShowRedactsAPIKey(t *testing.T) {
	root := setupProject(t, "http://127.0.0.1:1/v1")
	t.Setenv("OPENAI_API_KEY", "sk-secret")
	out, _, err := runCLI(t, "--root", root, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "storycodex.toml")
	requireContains(t, out, "test-model")
	requireContains(t, out, "********")
	if json.Valid([]byte(out)) {
		t.Fatalf("expected TOML output, got JSON")
	}
	if strings.Contains(out, "sk-secret") {
		t.Fatalf("api key leaked in output:\n%s", out)
	}
}

func TestInitThenSeedApply(t *testing.T) {
	root := setupProject(t, "http://127.0.0.1:1/v1")

	out, _, err := runCLI(t, "--root", root, "init")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	requireContains(t, out, "artifacts/defaults/story_spec.json")

	testsupport.WriteFile(t, filepath.Join(root, "seeds", "story_overrides.json"), `{"title":"The Brass Key"}`)
	out, _, err = runCLI(t, "--root", root, "seed", "apply", "--json")
	if err != nil {
		t.Fatalf("seed apply: %v", err)
	}
	var report struct {
		ChangedKeys []string `json:"changed_keys"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode seed report: %v\n%s", err, out)
	}
	found := false
	for _, key := range report.ChangedKeys {
		if key == "title" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected title in changed keys, got %v", report.ChangedKeys)
	}
	if _, err := os.Stat(filepath.Join(root, "artifacts", "inputs", "story_spec.json")); err != nil {
		t.Fatalf("expected merged story spec: %v", err)
	}
}

func TestPlanSpineAgainstServer(t *testing.T) {
	srv, calls := chatServer(t, testsupport.SpineJSON)
	root := setupProject(t, srv.URL+"/v1")

	if _, _, err := runCLI(t, "--root", root, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, _, err := runCLI(t, "--root", root, "seed", "apply"); err != nil {
		t.Fatalf("seed apply: %v", err)
	}
	out, _, err := runCLI(t, "--root", root, "plan", "spine", "--run-id", "run-cli")
	if err != nil {
		t.Fatalf("plan spine: %v", err)
	}
	requireContains(t, out, "artifacts/plot/spine.json")
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 chat call, got %d", got)
	}

	meta, err := os.ReadFile(filepath.Join(root, "artifacts", "plot", "spine.meta.json"))
	if err != nil {
		t.Fatalf("read meta: %v", err)
	}
	requireContains(t, string(meta), `"run_id": "run-cli"`)

	out, _, err = runCLI(t, "--root", root, "plan", "spine", "--json")
	if err != nil {
		t.Fatalf("plan spine rerun: %v", err)
	}
	requireContains(t, out, `"status": "skipped"`)
	if got := calls.Load(); got != 1 {
		t.Fatalf("skipped rerun should not call the backend, got %d calls", got)
	}
}

func TestStageCommandsRequireScene(t *testing.T) {
	root := setupProject(t, "http://127.0.0.1:1/v1")
	for _, args := range [][]string{
		{"plan", "beats", "--scene", "0"},
		{"build-context", "--scene", "0"},
		{"write", "scene", "--scene=-1"},
		{"check", "continuity", "--scene", "0"},
	} {
		_, _, err := runCLI(t, append([]string{"--root", root}, args...)...)
		if !errors.Is(err, errSceneRequired) {
			t.Fatalf("%v: expected errSceneRequired, got %v", args, err)
		}
	}
}

func TestBuildContextRejectsSmallBudget(t *testing.T) {
	root := setupProject(t, "http://127.0.0.1:1/v1")
	_, _, err := runCLI(t, "--root", root, "build-context", "--scene", "1", "--budget", "10")
	if err == nil {
		t.Fatal("expected budget validation error")
	}
	requireContains(t, err.Error(), "--budget")
}

func TestCheckContinuityRejectsUnknownInput(t *testing.T) {
	root := setupProject(t, "http://127.0.0.1:1/v1")
	_, _, err := runCLI(t, "--root", root, "check", "continuity", "--scene", "1", "--input", "outline")
	if err == nil {
		t.Fatal("expected input validation error")
	}
	requireContains(t, err.Error(), "--input")
}

func TestDoctorReportsFailures(t *testing.T) {
	srv, _ := chatServer(t)
	root := setupProject(t, srv.URL+"/v1")

	out, _, err := runCLI(t, "--root", root, "doctor")
	if !errors.Is(err, errDoctorFailed) {
		t.Fatalf("expected doctor failure before init, got %v", err)
	}
	requireContains(t, out, "Default story spec")

	if _, _, err := runCLI(t, "--root", root, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	out, _, err = runCLI(t, "--root", root, "doctor")
	if err != nil {
		t.Fatalf("doctor after init: %v\n%s", err, out)
	}
	requireContains(t, out, "[OK]")
}

func TestStatusJSONAfterInit(t *testing.T) {
	root := setupProject(t, "http://127.0.0.1:1/v1")
	if _, _, err := runCLI(t, "--root", root, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	out, _, err := runCLI(t, "--root", root, "status", "--json")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var summary struct {
		Stages []struct {
			Stage string `json:"stage"`
			State string `json:"state"`
		} `json:"stages"`
	}
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	states := map[string]string{}
	for _, row := range summary.Stages {
		if _, ok := states[row.Stage]; !ok {
			states[row.Stage] = row.State
		}
	}
	if states["seed"] != "ready" {
		t.Fatalf("expected seed ready after init, got %q", states["seed"])
	}
	if states["draft"] != "blocked" {
		t.Fatalf("expected draft blocked, got %q", states["draft"])
	}
}
