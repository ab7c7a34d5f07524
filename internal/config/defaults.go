package config

const (
	defaultBackend           = "auto"
	defaultBaseURL           = "https://api.openai.com/v1"
	defaultModel             = "gpt-4o-mini"
	defaultTimeoutSeconds    = 60
	defaultRequestsPerMinute = 60
	defaultRetryAttempts     = 5
	defaultContextBudget     = 6500
	defaultResolution        = "auto"
	defaultInclude           = "all"
	defaultDraftLength       = "medium"
	defaultStorageBackend    = "fs"
	defaultRedisAddr         = "127.0.0.1:6379"
	defaultRedisPrefix       = "storycodex"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"

	// MinContextBudget is the smallest accepted token budget.
	MinContextBudget = 1000
)

// Default returns a Config populated with repository defaults. Settings that
// may come from the environment are left blank here and resolved during
// normalization so environment values take precedence over built-in defaults.
func Default() Config {
	return Config{
		Root: ".",
		LLM: LLM{
			RequestsPerMinute: defaultRequestsPerMinute,
			RetryAttempts:     defaultRetryAttempts,
		},
		Context: Context{
			Budget:     defaultContextBudget,
			Resolution: defaultResolution,
			Include:    defaultInclude,
		},
		Draft: Draft{
			Length: defaultDraftLength,
		},
		Storage: Storage{
			Backend:     defaultStorageBackend,
			RedisAddr:   defaultRedisAddr,
			RedisPrefix: defaultRedisPrefix,
			Registry:    true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
