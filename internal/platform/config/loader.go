package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Blindtools/Api/internal/platform/errors"
)

// Loader reads configuration from an optional yaml file layered over the
// defaults, then applies environment overrides.
type Loader struct {
	path      string
	useDotEnv bool
}

// NewLoader creates a loader for the default config path.
func NewLoader() *Loader {
	return &Loader{
		path:      "config.yaml",
		useDotEnv: true,
	}
}

// WithPath overrides the yaml file location.
func (l *Loader) WithPath(path string) *Loader {
	if path != "" {
		l.path = path
	}
	return l
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load builds the effective configuration. A missing yaml file is not an
// error; the defaults plus environment variables still form a usable config.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		_ = godotenv.Load()
	}

	cfg := DefaultConfig()
	path := ""

	if data, err := os.ReadFile(l.path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(errors.KindConfig, "config.load", "parse yaml config", err)
		}
		path = l.path
	}

	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &Result{Config: cfg, Path: path}, nil
}

// applyEnvOverrides fills credentials and ports from the environment. API
// keys are only taken from the environment when the yaml left them empty so
// an explicit file entry always wins.
func applyEnvOverrides(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Server.Port = n
		}
	}
	if token := os.Getenv("API_TOKEN"); token != "" {
		cfg.Server.Token = token
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		for name, entry := range cfg.LLM {
			if entry.Type == "openai" && entry.APIKey == "" {
				entry.APIKey = key
				cfg.LLM[name] = entry
			}
		}
		for name, entry := range cfg.Vision {
			if entry.Type == "openai" && entry.APIKey == "" {
				entry.APIKey = key
				cfg.Vision[name] = entry
			}
		}
	}

	if url := os.Getenv("OLLAMA_BASE_URL"); url != "" {
		for name, entry := range cfg.LLM {
			if entry.Type == "ollama" {
				entry.BaseURL = url
				cfg.LLM[name] = entry
			}
		}
		for name, entry := range cfg.Vision {
			if entry.Type == "ollama" {
				entry.BaseURL = url
				cfg.Vision[name] = entry
			}
		}
	}

	if url := os.Getenv("MESSAGING_GATEWAY_URL"); url != "" {
		cfg.Messaging.GatewayURL = url
		cfg.Messaging.Enabled = true
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return errors.New(errors.KindConfig, "config.validate", "server port out of range")
	}
	if cfg.Upload.MaxFileSize <= 0 {
		return errors.New(errors.KindConfig, "config.validate", "upload max_file_size must be positive")
	}
	if cfg.Batch.MaxItems <= 0 {
		return errors.New(errors.KindConfig, "config.validate", "batch max_items must be positive")
	}
	if cfg.Selected.LLM != "" {
		if _, ok := cfg.LLM[cfg.Selected.LLM]; !ok {
			return errors.New(errors.KindConfig, "config.validate", "selected LLM entry not defined")
		}
	}
	if cfg.Selected.Vision != "" {
		if _, ok := cfg.Vision[cfg.Selected.Vision]; !ok {
			return errors.New(errors.KindConfig, "config.validate", "selected Vision entry not defined")
		}
	}
	return nil
}
