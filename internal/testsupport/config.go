package testsupport

import (
	"testing"

	"storycodex/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config rooted in a unique temp directory per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfgVal := config.Default()
	cfgVal.Root = t.TempDir()
	cfgVal.LLM.Backend = "openai"
	cfgVal.LLM.BaseURL = "http://127.0.0.1:0/v1"
	cfgVal.LLM.Model = "test-model"
	cfgVal.LLM.TimeoutSeconds = 5
	cfgVal.Storage.Registry = false

	builder := &configBuilder{t: t, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithBaseURL points the generation backend at a test server.
func WithBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.BaseURL = url
	}
}

// WithRegistry enables the sqlite run registry under the test root.
func WithRegistry() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Storage.Registry = true
	}
}
