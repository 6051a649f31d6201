// Package config loads framework configuration from YAML: the model
// provider, storage backend, router limits, the analyzer's capability
// catalog and declarative agent definitions.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/routemesh/routemesh/router"
)

// Model providers accepted by Config.Model.Provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderMock      = "mock"
)

// Storage backends accepted by Config.Storage.Backend.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config is the root configuration document.
type Config struct {
	Model        ModelConfig         `yaml:"model"`
	Router       RouterConfig        `yaml:"router"`
	Storage      StorageConfig       `yaml:"storage"`
	Logging      LoggingConfig       `yaml:"logging"`
	Capabilities []router.Capability `yaml:"capabilities"`
	Agents       []AgentConfig       `yaml:"agents"`
}

// ModelConfig selects and tunes the LLM provider. APIKeyEnv names the
// environment variable holding the key; the key itself never lives in the
// file.
type ModelConfig struct {
	Provider    string  `yaml:"provider"`
	Name        string  `yaml:"name"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
	APIKeyEnv   string  `yaml:"api_key_env"`
}

// APIKey resolves the configured key from the environment.
func (m ModelConfig) APIKey() string {
	if m.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(m.APIKeyEnv)
}

// RouterConfig tunes orchestration limits.
type RouterConfig struct {
	// ExecutionTimeout bounds each agent invocation, e.g. "90s". Empty
	// keeps the executor default.
	ExecutionTimeout string `yaml:"execution_timeout"`
}

// Timeout parses ExecutionTimeout; zero when unset.
func (r RouterConfig) Timeout() (time.Duration, error) {
	if r.ExecutionTimeout == "" {
		return 0, nil
	}
	return time.ParseDuration(r.ExecutionTimeout)
}

// StorageConfig selects the persistence backend. Path is required for the
// file and sqlite backends.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// LoggingConfig tunes the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AgentConfig declares one LLM agent to register at startup.
type AgentConfig struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Capabilities []string `yaml:"capabilities"`
	SystemPrompt string   `yaml:"system_prompt"`
}

// Default returns the configuration used when no file is given: mock
// model, in-memory storage, default catalog, no declared agents.
func Default() *Config {
	return &Config{
		Model:   ModelConfig{Provider: ProviderMock, Temperature: 0.7, MaxTokens: 4096},
		Storage: StorageConfig{Backend: BackendMemory},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads and validates a YAML config file. Fields absent from the file
// keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates raw YAML.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case ProviderAnthropic, ProviderOpenAI, ProviderMock:
	default:
		return fmt.Errorf("config: unknown model provider %q", c.Model.Provider)
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendFile, BackendSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("config: storage backend %q requires a path", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}

	if _, err := c.Router.Timeout(); err != nil {
		return fmt.Errorf("config: invalid execution_timeout: %w", err)
	}

	seen := map[string]bool{}
	for i, a := range c.Agents {
		if a.ID == "" {
			return fmt.Errorf("config: agents[%d] is missing an id", i)
		}
		if seen[a.ID] {
			return fmt.Errorf("config: duplicate agent id %q", a.ID)
		}
		seen[a.ID] = true
		if len(a.Capabilities) == 0 {
			return fmt.Errorf("config: agent %q declares no capabilities", a.ID)
		}
	}

	for i, capability := range c.Capabilities {
		if capability.Tag == "" {
			return fmt.Errorf("config: capabilities[%d] is missing a tag", i)
		}
	}
	return nil
}

// Catalog returns the configured capability catalog, falling back to the
// analyzer default when the file declares none.
func (c *Config) Catalog() []router.Capability {
	if len(c.Capabilities) > 0 {
		return c.Capabilities
	}
	return router.DefaultCatalog
}
