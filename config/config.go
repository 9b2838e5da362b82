// Package config holds the process configuration record.
//
// A Config is constructed once at startup (from a YAML file, environment
// variables, or defaults) and passed by reference into each component's
// constructor. There is no package-level settings singleton.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration for an agentos process.
type Config struct {
	LLM    LLMConfig    `yaml:"llm"`
	Memory MemoryConfig `yaml:"memory"`
	Safety SafetyConfig `yaml:"safety"`
}

// LLMConfig configures the language-model collaborator.
type LLMConfig struct {
	// APIKey for the Anthropic API. Falls back to ANTHROPIC_API_KEY.
	APIKey string `yaml:"api_key"`

	// Model identifier. Empty selects the client's default.
	Model string `yaml:"model"`

	// MaxTokens caps response length. Zero selects the client's default.
	MaxTokens int64 `yaml:"max_tokens"`
}

// MemoryConfig configures the three memory tiers.
type MemoryConfig struct {
	// DBPath is the SQLite file for the durable tier.
	DBPath string `yaml:"db_path"`

	// VectorPath is the directory holding the semantic index.
	VectorPath string `yaml:"vector_path"`

	// ShortTermCapacity bounds the session ring buffer.
	ShortTermCapacity int `yaml:"short_term_capacity"`

	// RetentionDays is the default age for CleanupOldData.
	RetentionDays int `yaml:"retention_days"`
}

// SafetyConfig configures command validation.
type SafetyConfig struct {
	// Enabled toggles safety checks. Default: true.
	Enabled bool `yaml:"enabled"`

	// ExtraDangerousCommands extends the built-in blocklist.
	ExtraDangerousCommands []string `yaml:"extra_dangerous_commands"`

	// RequireConfirmation gates destructive commands behind confirmation.
	RequireConfirmation bool `yaml:"require_confirmation"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			APIKey:    os.Getenv("ANTHROPIC_API_KEY"),
			MaxTokens: 4096,
		},
		Memory: MemoryConfig{
			DBPath:            filepath.Join("data", "memory", "agentos.db"),
			VectorPath:        filepath.Join("data", "memory", "embeddings"),
			ShortTermCapacity: 50,
			RetentionDays:     30,
		},
		Safety: SafetyConfig{
			Enabled:             true,
			RequireConfirmation: true,
		},
	}
}

// Load reads a YAML config file and applies environment overrides on top of
// the defaults. A missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv lets environment variables override file values, matching the
// deployment convention of one configured path per process.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("AGENTOS_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("AGENTOS_DB_PATH"); v != "" {
		cfg.Memory.DBPath = v
	}
	if v := os.Getenv("AGENTOS_VECTOR_PATH"); v != "" {
		cfg.Memory.VectorPath = v
	}
	if v := os.Getenv("AGENTOS_RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			cfg.Memory.RetentionDays = days
		}
	}
}
