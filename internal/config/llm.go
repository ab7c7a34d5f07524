package config

import "storycodex/internal/services/llm"

// ClientConfig maps the [llm] section onto the chat client settings.
func (c *Config) ClientConfig() llm.Config {
	return llm.Config{
		Backend:           c.LLM.Backend,
		BaseURL:           c.LLM.BaseURL,
		Model:             c.LLM.Model,
		APIKey:            c.LLM.APIKey,
		TimeoutSeconds:    c.LLM.TimeoutSeconds,
		RequestsPerMinute: c.LLM.RequestsPerMinute,
		RetryAttempts:     c.LLM.RetryAttempts,
	}
}
