package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"storycodex/internal/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{
		"OPENAI_API_KEY",
		"STORYCODEX_BASE_URL",
		"STORYCODEX_BACKEND",
		"STORYCODEX_MODEL",
		"STORYCODEX_TIMEOUT_SECONDS",
	} {
		t.Setenv(key, "")
	}
	return t.TempDir()
}

func TestLoadDefaults(t *testing.T) {
	root := isolateEnv(t)

	cfg, resolved, exists, err := config.Load(root, "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent")
	}
	if resolved != filepath.Join(root, config.ProjectConfigName) {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Root != root {
		t.Fatalf("unexpected root: got %q want %q", cfg.Root, root)
	}
	if cfg.LLM.Backend != "auto" {
		t.Fatalf("unexpected backend: %q", cfg.LLM.Backend)
	}
	if cfg.LLM.BaseURL != "https://api.openai.com/v1" {
		t.Fatalf("unexpected base url: %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model: %q", cfg.LLM.Model)
	}
	if cfg.LLM.TimeoutSeconds != 60 {
		t.Fatalf("unexpected timeout: %d", cfg.LLM.TimeoutSeconds)
	}
	if cfg.Context.Budget != 6500 || cfg.Context.Resolution != "auto" || cfg.Context.Include != "all" {
		t.Fatalf("unexpected context defaults: %+v", cfg.Context)
	}
	if cfg.Draft.Length != "medium" {
		t.Fatalf("unexpected draft length: %q", cfg.Draft.Length)
	}
	if cfg.Storage.Backend != "fs" || !cfg.Storage.Registry {
		t.Fatalf("unexpected storage defaults: %+v", cfg.Storage)
	}
	if !cfg.RequiresAPIKey() {
		t.Fatal("expected hosted OpenAI endpoint to require an API key")
	}
}

func TestEnvironmentFillsUnsetValues(t *testing.T) {
	root := isolateEnv(t)
	t.Setenv("STORYCODEX_BASE_URL", "http://localhost:11434/")
	t.Setenv("STORYCODEX_BACKEND", "OLLAMA")
	t.Setenv("STORYCODEX_MODEL", "llama3")
	t.Setenv("STORYCODEX_TIMEOUT_SECONDS", "15")

	cfg, _, _, err := config.Load(root, "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.BaseURL != "http://localhost:11434" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.Backend != "ollama" {
		t.Fatalf("unexpected backend: %q", cfg.LLM.Backend)
	}
	if cfg.LLM.Model != "llama3" {
		t.Fatalf("unexpected model: %q", cfg.LLM.Model)
	}
	if cfg.LLM.TimeoutSeconds != 15 {
		t.Fatalf("unexpected timeout: %d", cfg.LLM.TimeoutSeconds)
	}
	if cfg.RequiresAPIKey() {
		t.Fatal("expected local endpoint not to require an API key")
	}
}

func TestConfigFileOverridesEnvironment(t *testing.T) {
	root := isolateEnv(t)
	t.Setenv("STORYCODEX_MODEL", "env-model")

	type payload struct {
		LLM struct {
			Model string `toml:"model"`
		} `toml:"llm"`
		Context struct {
			Budget int `toml:"budget"`
		} `toml:"context"`
	}
	custom := payload{}
	custom.LLM.Model = "file-model"
	custom.Context.Budget = 4000
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	configPath := filepath.Join(root, config.ProjectConfigName)
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(root, "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected project config to be found, got %q %v", resolved, exists)
	}
	if cfg.LLM.Model != "file-model" {
		t.Fatalf("expected file model, got %q", cfg.LLM.Model)
	}
	if cfg.Context.Budget != 4000 {
		t.Fatalf("expected budget 4000, got %d", cfg.Context.Budget)
	}
}

func TestDotEnvLoadedFromRoot(t *testing.T) {
	root := isolateEnv(t)
	// Unset so .env may supply the value; t.Setenv restores the original on cleanup.
	t.Setenv("STORYCODEX_MODEL", "")
	if err := os.Unsetenv("STORYCODEX_MODEL"); err != nil {
		t.Fatalf("unset: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("STORYCODEX_MODEL=dotenv-model\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, _, _, err := config.Load(root, "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.Model != "dotenv-model" {
		t.Fatalf("expected model from .env, got %q", cfg.LLM.Model)
	}
}

func TestLoadRejectsBadTimeoutEnv(t *testing.T) {
	root := isolateEnv(t)
	t.Setenv("STORYCODEX_TIMEOUT_SECONDS", "soon")
	if _, _, _, err := config.Load(root, ""); err == nil {
		t.Fatal("expected error for non-numeric timeout")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[context]") {
		t.Fatalf("sample config missing context section: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Context.Budget != 6500 {
		t.Fatalf("expected sample budget 6500, got %d", cfg.Context.Budget)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	root := isolateEnv(t)
	base, _, _, err := config.Load(root, "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"budget", func(c *config.Config) { c.Context.Budget = 999 }, "context.budget must be at least 1000"},
		{"resolution", func(c *config.Config) { c.Context.Resolution = "huge" }, "context.resolution"},
		{"include", func(c *config.Config) { c.Context.Include = "ringD" }, "context.include"},
		{"backend", func(c *config.Config) { c.LLM.Backend = "anthropic" }, "llm.backend"},
		{"base url", func(c *config.Config) { c.LLM.BaseURL = "localhost" }, "llm.base_url"},
		{"timeout", func(c *config.Config) { c.LLM.TimeoutSeconds = 0 }, "llm.timeout_seconds"},
		{"length", func(c *config.Config) { c.Draft.Length = "epic" }, "draft.length"},
		{"redis", func(c *config.Config) { c.Storage.Backend = "redis"; c.Storage.RedisAddr = "" }, "storage.redis_addr"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	root := isolateEnv(t)
	cfg, _, _, err := config.Load(root, "")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	cfg.Logging.File = true
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{"artifacts", "seeds", filepath.Join("out", "scenes"), filepath.Join("out", "logs")} {
		info, err := os.Stat(filepath.Join(root, dir))
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}
