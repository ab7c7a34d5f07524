package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// ProjectConfigName is the file looked up in the project root.
const ProjectConfigName = "storycodex.toml"

// LLM contains generation backend settings.
type LLM struct {
	Backend           string `toml:"backend"`
	BaseURL           string `toml:"base_url"`
	Model             string `toml:"model"`
	APIKey            string `toml:"api_key"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
	RetryAttempts     int    `toml:"retry_attempts"`
}

// Context contains ring context compiler defaults.
type Context struct {
	Budget     int    `toml:"budget"`
	Resolution string `toml:"resolution"`
	Include    string `toml:"include"`
}

// Draft contains draft writer defaults.
type Draft struct {
	Length      string `toml:"length"`
	TargetWords int    `toml:"target_words"`
}

// Storage selects the artifact store backend.
type Storage struct {
	Backend     string `toml:"backend"`
	RedisAddr   string `toml:"redis_addr"`
	RedisPrefix string `toml:"redis_prefix"`
	Registry    bool   `toml:"registry"`
}

// Logging contains logging configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   bool   `toml:"file"`
}

// Config encapsulates all configuration values for StoryCodex.
type Config struct {
	Root    string  `toml:"-"`
	LLM     LLM     `toml:"llm"`
	Context Context `toml:"context"`
	Draft   Draft   `toml:"draft"`
	Storage Storage `toml:"storage"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the user-level configuration file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/storycodex/config.toml")
}

// Load locates, parses, and validates a configuration file for the project at
// root. Values from <root>/.env are loaded into the environment first without
// overriding variables that are already set.
func Load(root, path string) (*Config, string, bool, error) {
	cfg := Default()

	absRoot, err := expandPath(defaultString(root, "."))
	if err != nil {
		return nil, "", false, fmt.Errorf("resolve root: %w", err)
	}
	cfg.Root = absRoot

	if err := loadDotEnv(absRoot); err != nil {
		return nil, "", false, err
	}

	resolvedPath, exists, err := resolveConfigPath(absRoot, path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func loadDotEnv(root string) error {
	envPath := filepath.Join(root, ".env")
	if _, err := os.Stat(envPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat .env: %w", err)
	}
	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func resolveConfigPath(root, path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath := filepath.Join(root, ProjectConfigName)
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return projectPath, false, nil
}

// LogFilePath returns the log file location inside the project.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Root, "out", "logs", "storycodex.log")
}

// RegistryPath returns the run registry database location.
func (c *Config) RegistryPath() string {
	return filepath.Join(c.Root, "artifacts", "registry.db")
}

// EnsureDirectories creates the project directories written by the pipeline.
func (c *Config) EnsureDirectories() error {
	for _, rel := range []string{"artifacts", "seeds", filepath.Join("out", "scenes")} {
		dir := filepath.Join(c.Root, rel)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Logging.File {
		if err := os.MkdirAll(filepath.Dir(c.LogFilePath()), 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
