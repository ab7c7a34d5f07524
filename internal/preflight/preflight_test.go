package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"storycodex/internal/services/llm"
	"storycodex/internal/testsupport"
)

func modelsServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "story_spec.json")
	if err := os.WriteFile(f, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckFile("spec", f); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	result := CheckFile("spec", filepath.Join(dir, "missing.json"))
	if result.Passed || !strings.Contains(result.Detail, "storycodex init") {
		t.Fatalf("expected init hint, got: %+v", result)
	}
	if result := CheckFile("spec", dir); result.Passed {
		t.Fatal("expected failure for directory")
	}
}

func TestCheckLLM_OK(t *testing.T) {
	srv := modelsServer(t, http.StatusOK)
	result := CheckLLM(context.Background(), "LLM", llm.Config{Backend: "openai", BaseURL: srv.URL + "/v1", Model: "m"})
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result.Detail != "openai reachable (model m)" {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckLLM_Unauthorized(t *testing.T) {
	srv := modelsServer(t, http.StatusUnauthorized)
	result := CheckLLM(context.Background(), "LLM", llm.Config{Backend: "openai", BaseURL: srv.URL + "/v1"})
	if result.Passed {
		t.Fatal("expected failure for 401")
	}
	if !strings.Contains(result.Detail, "401") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckLLM_HostedWithoutKey(t *testing.T) {
	result := CheckLLM(context.Background(), "LLM", llm.Config{Backend: "openai", BaseURL: "https://api.openai.com/v1"})
	if result.Passed {
		t.Fatal("expected failure without api key")
	}
	if !strings.Contains(result.Detail, "OPENAI_API_KEY") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	if result := CheckRedis(context.Background(), addr, "storycodex"); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	mr.Close()
	if result := CheckRedis(context.Background(), addr, "storycodex"); result.Passed {
		t.Fatal("expected failure after redis closed")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_InitializedWorkspace(t *testing.T) {
	srv := modelsServer(t, http.StatusOK)
	cfg := testsupport.NewConfig(t, testsupport.WithBaseURL(srv.URL+"/v1"))
	testsupport.WriteFile(t, filepath.Join(cfg.Root, "artifacts", "defaults", "story_spec.json"), "{}")

	results := RunAll(context.Background(), cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	wantNames := []string{"Project root", "Artifacts directory", "Default story spec", "Generation backend"}
	for i, r := range results {
		if r.Name != wantNames[i] {
			t.Fatalf("result %d: got %q want %q", i, r.Name, wantNames[i])
		}
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	if Failed(results) {
		t.Fatal("expected no failures")
	}
}

func TestRunAll_IncludesRedisWhenSelected(t *testing.T) {
	srv := modelsServer(t, http.StatusOK)
	mr := miniredis.RunT(t)
	cfg := testsupport.NewConfig(t, testsupport.WithBaseURL(srv.URL+"/v1"))
	cfg.Storage.Backend = "redis"
	cfg.Storage.RedisAddr = mr.Addr()

	results := RunAll(context.Background(), cfg)
	last := results[len(results)-1]
	if last.Name != "Redis store" || !last.Passed {
		t.Fatalf("unexpected redis result: %+v", last)
	}
	if !Failed(results) {
		t.Fatal("expected the missing artifacts directory to fail")
	}
}
