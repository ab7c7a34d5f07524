package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateContext(); err != nil {
		return err
	}
	if err := c.validateDraft(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateLLM() error {
	switch c.LLM.Backend {
	case "auto", "openai", "ollama":
	default:
		return fmt.Errorf("llm.backend must be one of auto, openai, ollama (got %q)", c.LLM.Backend)
	}
	parsed, err := url.Parse(c.LLM.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("llm.base_url must be an absolute URL (got %q)", c.LLM.BaseURL)
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model must be set")
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	if c.LLM.RequestsPerMinute < 0 {
		return errors.New("llm.requests_per_minute must not be negative")
	}
	if c.LLM.RetryAttempts < 1 {
		return errors.New("llm.retry_attempts must be at least 1")
	}
	return nil
}

// RequiresAPIKey reports whether the configured endpoint is the hosted OpenAI API.
func (c *Config) RequiresAPIKey() bool {
	parsed, err := url.Parse(c.LLM.BaseURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Hostname(), "api.openai.com")
}

func (c *Config) validateContext() error {
	if c.Context.Budget < MinContextBudget {
		return fmt.Errorf("context.budget must be at least %d", MinContextBudget)
	}
	switch c.Context.Resolution {
	case "auto", "tiny", "medium", "full":
	default:
		return fmt.Errorf("context.resolution must be one of auto, tiny, medium, full (got %q)", c.Context.Resolution)
	}
	switch c.Context.Include {
	case "all", "ringA", "ringB", "ringC":
	default:
		return fmt.Errorf("context.include must be one of all, ringA, ringB, ringC (got %q)", c.Context.Include)
	}
	return nil
}

func (c *Config) validateDraft() error {
	switch c.Draft.Length {
	case "short", "medium", "long":
	default:
		return fmt.Errorf("draft.length must be one of short, medium, long (got %q)", c.Draft.Length)
	}
	if c.Draft.TargetWords < 0 {
		return errors.New("draft.target_words must not be negative")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case "fs":
	case "redis":
		if c.Storage.RedisAddr == "" {
			return errors.New("storage.redis_addr must be set when storage.backend is redis")
		}
	default:
		return fmt.Errorf("storage.backend must be fs or redis (got %q)", c.Storage.Backend)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
	return nil
}
