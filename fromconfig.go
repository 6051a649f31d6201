package routemesh

import (
	"fmt"
	"log/slog"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/routemesh/routemesh/agent"
	"github.com/routemesh/routemesh/config"
	"github.com/routemesh/routemesh/logging"
	"github.com/routemesh/routemesh/model"
	"github.com/routemesh/routemesh/model/anthropic"
	"github.com/routemesh/routemesh/model/openai"
	"github.com/routemesh/routemesh/storage"
	"github.com/routemesh/routemesh/storage/sqlite"
)

// NewFromConfig builds a Mesh from a validated configuration: the declared
// model provider, storage backend, capability catalog and agents. Later
// optFns run after the config-derived options, so callers can still
// override individual services.
func NewFromConfig(cfg *config.Config, optFns ...func(o *Options)) (*Mesh, error) {
	m, err := modelFromConfig(cfg.Model)
	if err != nil {
		return nil, err
	}
	store, err := storeFromConfig(cfg.Storage)
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.Router.Timeout()
	if err != nil {
		return nil, err
	}

	mesh := New(append([]func(o *Options){func(o *Options) {
		o.Model = m
		o.Store = store
		o.Catalog = cfg.Catalog()
		o.ExecutionTimeout = timeout
		o.Logger = loggerFromConfig(cfg.Logging)
	}}, optFns...)...)

	for _, a := range cfg.Agents {
		prompt := a.SystemPrompt
		llm := agent.NewLLMAgent(agent.Config{
			ID:           a.ID,
			Name:         a.Name,
			Description:  a.Description,
			Capabilities: a.Capabilities,
		}, mesh.Model(), mesh.Store(), func(o *agent.LLMOptions) {
			o.SystemPrompt = prompt
		})
		if err := mesh.RegisterAgent(llm); err != nil {
			return nil, fmt.Errorf("register configured agent: %w", err)
		}
	}
	return mesh, nil
}

func modelFromConfig(cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Name)
			}
			if cfg.Temperature > 0 {
				o.Temperature = cfg.Temperature
			}
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
			o.APIKey = cfg.APIKey()
		}), nil
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			if cfg.Temperature > 0 {
				o.Temperature = cfg.Temperature
			}
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = cfg.MaxTokens
			}
			o.APIKey = cfg.APIKey()
		}), nil
	case config.ProviderMock:
		name := cfg.Name
		if name == "" {
			name = "mock"
		}
		return model.NewMockModel(name), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

func storeFromConfig(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return storage.NewInMemoryStore(), nil
	case config.BackendFile:
		return storage.NewFileStore(cfg.Path)
	case config.BackendSQLite:
		return sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func loggerFromConfig(cfg config.LoggingConfig) logging.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return logging.NewSlogAdapter(slog.New(handler))
}
