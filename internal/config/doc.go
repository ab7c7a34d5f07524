// Package config loads, normalizes, and validates StoryCodex configuration.
//
// It supplies repository defaults, reads the project's storycodex.toml (or the
// user-level file, or an explicit --config path), loads <root>/.env without
// overriding the process environment, and honours environment fallbacks such
// as OPENAI_API_KEY and STORYCODEX_BASE_URL. Precedence is command-line flag,
// then config file, then environment, then defaults; flags are applied by the
// CLI after Load returns.
package config
