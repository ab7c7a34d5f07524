package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeLLM(); err != nil {
		return err
	}
	c.normalizeContext()
	c.normalizeDraft()
	c.normalizeStorage()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeLLM() error {
	c.LLM.Backend = strings.ToLower(strings.TrimSpace(c.LLM.Backend))
	if c.LLM.Backend == "" {
		c.LLM.Backend = strings.ToLower(envOr("STORYCODEX_BACKEND", defaultBackend))
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = envOr("STORYCODEX_BASE_URL", defaultBaseURL)
	}
	c.LLM.BaseURL = strings.TrimRight(c.LLM.BaseURL, "/")
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = envOr("STORYCODEX_MODEL", defaultModel)
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = envOr("OPENAI_API_KEY", "")
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = defaultTimeoutSeconds
		if value, ok := os.LookupEnv("STORYCODEX_TIMEOUT_SECONDS"); ok && strings.TrimSpace(value) != "" {
			seconds, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return fmt.Errorf("STORYCODEX_TIMEOUT_SECONDS: %w", err)
			}
			c.LLM.TimeoutSeconds = seconds
		}
	}
	return nil
}

func (c *Config) normalizeContext() {
	c.Context.Resolution = strings.ToLower(strings.TrimSpace(c.Context.Resolution))
	if c.Context.Resolution == "" {
		c.Context.Resolution = defaultResolution
	}
	c.Context.Include = strings.TrimSpace(c.Context.Include)
	if c.Context.Include == "" {
		c.Context.Include = defaultInclude
	}
}

func (c *Config) normalizeDraft() {
	c.Draft.Length = strings.ToLower(strings.TrimSpace(c.Draft.Length))
	if c.Draft.Length == "" {
		c.Draft.Length = defaultDraftLength
	}
}

func (c *Config) normalizeStorage() {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStorageBackend
	}
	c.Storage.RedisAddr = strings.TrimSpace(c.Storage.RedisAddr)
	c.Storage.RedisPrefix = strings.TrimSpace(c.Storage.RedisPrefix)
	if c.Storage.RedisPrefix == "" {
		c.Storage.RedisPrefix = defaultRedisPrefix
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}
