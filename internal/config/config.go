// Package config holds all keepsake configuration.
// Priority: ENV > YAML file > defaults.
package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	LLM       LLMConfig       `yaml:"llm"`
	Undo      UndoConfig      `yaml:"undo"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Bind string `yaml:"bind" env:"KEEPSAKE_BIND" env-default:"127.0.0.1"`
	Port int    `yaml:"port" env:"KEEPSAKE_PORT" env-default:"8080"`
}

// DatabaseConfig holds SQLite settings. An empty path resolves to
// the default location under the user's home directory at startup.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"KEEPSAKE_DB_PATH"`
}

// LLMConfig selects and configures the generation provider.
type LLMConfig struct {
	Provider     string `yaml:"provider"      env:"KEEPSAKE_LLM_PROVIDER" env-default:"gemini"`
	Model        string `yaml:"model"         env:"KEEPSAKE_LLM_MODEL"`
	GeminiKey    string `yaml:"gemini_key"    env:"GEMINI_API_KEY"`
	AnthropicKey string `yaml:"anthropic_key" env:"ANTHROPIC_API_KEY"`
	OllamaURL    string `yaml:"ollama_url"    env:"KEEPSAKE_OLLAMA_URL"`
	OllamaModel  string `yaml:"ollama_model"  env:"KEEPSAKE_OLLAMA_MODEL"`
}

// UndoConfig controls the deletion undo window.
type UndoConfig struct {
	TTLSeconds int `yaml:"ttl_seconds" env:"KEEPSAKE_UNDO_TTL" env-default:"30"`
}

// RetrievalConfig controls how many memories ground a chat answer.
type RetrievalConfig struct {
	TopK int `yaml:"top_k" env:"KEEPSAKE_TOP_K" env-default:"5"`
}

// Load reads configuration from a YAML file and environment variables.
// The file path comes from CONFIG_PATH (fallback "./config.yaml"). A
// missing fallback file is fine; an explicitly set CONFIG_PATH that
// does not exist is an error.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

// Validate checks cross-field constraints cleanenv tags cannot express.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Undo.TTLSeconds < 1 {
		return fmt.Errorf("undo ttl must be at least 1 second, got %d", c.Undo.TTLSeconds)
	}
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("retrieval top_k must be at least 1, got %d", c.Retrieval.TopK)
	}
	return nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
