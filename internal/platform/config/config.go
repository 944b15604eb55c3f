package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration accepts yaml scalars in Go duration syntax ("500ms", "720h")
// or bare integers, read as seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	*d = Duration(time.Duration(n) * time.Second)
	return nil
}

// Std converts to the standard library representation.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	Server    ServerConfig            `yaml:"server"`
	Log       LogConfig               `yaml:"log"`
	Web       WebConfig               `yaml:"web"`
	System    SystemConfig            `yaml:"system"`
	Upload    UploadConfig            `yaml:"upload"`
	Batch     BatchConfig             `yaml:"batch"`
	Selected  SelectedConfig          `yaml:"selected_module"`
	LLM       map[string]LLMConfig    `yaml:"LLM"`
	Vision    map[string]VisionConfig `yaml:"Vision"`
	TTS       map[string]TTSConfig    `yaml:"TTS"`
	Messaging MessagingConfig         `yaml:"messaging"`
	Storage   StorageConfig           `yaml:"storage"`
}

type ServerConfig struct {
	IP    string `yaml:"ip"`
	Port  int    `yaml:"port"`
	Token string `yaml:"token"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

type WebConfig struct {
	Enabled   bool   `yaml:"enabled"`
	StaticDir string `yaml:"static_dir"`
}

// SystemConfig carries cross-capability defaults such as the fixed system
// instruction prefixed to chat conversations.
type SystemConfig struct {
	ChatPrompt string `yaml:"prompt"`
}

// UploadConfig bounds every inbound image payload.
type UploadConfig struct {
	MaxFileSize    int64    `yaml:"max_file_size"`
	MaxPixels      int64    `yaml:"max_pixels"`
	MaxWidth       int      `yaml:"max_width"`
	MaxHeight      int      `yaml:"max_height"`
	AllowedFormats []string `yaml:"allowed_formats"`
	TempDir        string   `yaml:"temp_dir"`
}

// BatchConfig bounds the batch endpoints. Delay is the pause inserted
// between consecutive downstream calls.
type BatchConfig struct {
	MaxItems int      `yaml:"max_items"`
	Delay    Duration `yaml:"delay"`
}

// SelectedConfig picks the provider entry used for each capability.
type SelectedConfig struct {
	LLM    string `yaml:"LLM"`
	Vision string `yaml:"Vision"`
	TTS    string `yaml:"TTS"`
}

type LLMConfig struct {
	Type        string  `yaml:"type"`
	ModelName   string  `yaml:"model_name"`
	BaseURL     string  `yaml:"url"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TopP        float64 `yaml:"top_p"`
}

type VisionConfig struct {
	Type        string  `yaml:"type"`
	ModelName   string  `yaml:"model_name"`
	BaseURL     string  `yaml:"url"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TopP        float64 `yaml:"top_p"`
}

type TTSConfig struct {
	Type      string `yaml:"type"`
	Voice     string `yaml:"voice"`
	Format    string `yaml:"format"`
	OutputDir string `yaml:"output_dir"`
}

// MessagingConfig wires the WhatsApp bridge connection and its credential
// persistence.
type MessagingConfig struct {
	Enabled        bool        `yaml:"enabled"`
	GatewayURL     string      `yaml:"gateway_url"`
	ReconnectDelay Duration    `yaml:"reconnect_delay"`
	Store          StoreConfig `yaml:"store"`
}

type StoreConfig struct {
	Driver string            `yaml:"driver"`
	TTL    Duration          `yaml:"ttl"`
	Redis  RedisStoreConfig  `yaml:"redis,omitempty"`
	SQLite SQLiteStoreConfig `yaml:"sqlite,omitempty"`
}

type RedisStoreConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type SQLiteStoreConfig struct {
	DSN string `yaml:"dsn,omitempty"`
}

// StorageConfig points at the sqlite usage log consumed by GET /stats.
type StorageConfig struct {
	DSN string `yaml:"dsn"`
}
