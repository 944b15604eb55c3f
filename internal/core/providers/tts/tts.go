package tts

import (
	"context"

	"github.com/Blindtools/Api/internal/core/providers"
	"github.com/Blindtools/Api/internal/platform/errors"
	"github.com/Blindtools/Api/internal/utils"
)

// Config holds speech synthesis provider settings.
type Config struct {
	Type      string `yaml:"type"`
	Voice     string `yaml:"voice"`
	Format    string `yaml:"format"`
	OutputDir string `yaml:"output_dir"`
}

// Provider converts text into spoken audio.
type Provider interface {
	providers.Provider

	// Synthesize renders text as audio and returns the encoded bytes
	// together with the audio MIME type.
	Synthesize(ctx context.Context, text string, voice string) ([]byte, string, error)

	Voice() string
}

// Factory builds a Provider from its configuration.
type Factory func(config *Config, logger *utils.Logger) (Provider, error)

var factories = make(map[string]Factory)

// Register makes a provider factory available by type name.
func Register(name string, factory Factory) {
	factories[name] = factory
}

// Create instantiates the provider named by config.Type.
func Create(config *Config, logger *utils.Logger) (Provider, error) {
	factory, ok := factories[config.Type]
	if !ok {
		return nil, errors.New(errors.KindConfig, "tts.Create",
			"unknown TTS provider type: "+config.Type)
	}
	return factory(config, logger)
}

// BaseProvider carries the configuration shared by implementations.
type BaseProvider struct {
	config *Config
}

func NewBaseProvider(config *Config) *BaseProvider {
	return &BaseProvider{config: config}
}

func (p *BaseProvider) Config() *Config {
	return p.config
}

func (p *BaseProvider) Voice() string {
	return p.config.Voice
}
