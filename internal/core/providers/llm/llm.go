package llm

import (
	"context"
	"fmt"

	"github.com/Blindtools/Api/internal/core/providers"
)

// Config holds settings shared by every chat backend.
type Config struct {
	Type        string
	ModelName   string
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
	TopP        float64
}

// Provider is a chat-completion backend.
type Provider interface {
	providers.Provider

	// Chat sends the conversation and returns the first choice's text.
	Chat(ctx context.Context, messages []providers.Message) (string, error)

	// ChatStream sends the conversation and yields text deltas. Errors after
	// the stream opens are reported as a final error string on the channel.
	ChatStream(ctx context.Context, messages []providers.Message) (<-chan string, error)

	Model() string
}

// Factory builds a provider from its config.
type Factory func(config *Config) (Provider, error)

var registry = make(map[string]Factory)

// Register makes a provider type available to Create. Called from the
// provider packages' init functions.
func Register(name string, factory Factory) {
	registry[name] = factory
}

// Create instantiates the provider registered under config.Type.
func Create(config *Config) (Provider, error) {
	factory, ok := registry[config.Type]
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider type: %s", config.Type)
	}
	return factory(config)
}

// BaseProvider carries the config for concrete implementations.
type BaseProvider struct {
	config *Config
}

func NewBaseProvider(config *Config) *BaseProvider {
	return &BaseProvider{config: config}
}

func (p *BaseProvider) Config() *Config {
	return p.config
}

func (p *BaseProvider) Model() string {
	return p.config.ModelName
}
