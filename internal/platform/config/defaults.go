package config

import "time"

// DefaultConfig returns the baseline configuration. Values here are the
// documented defaults; the yaml file and environment overrides refine them.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 3000,
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Web: WebConfig{
			Enabled:   true,
			StaticDir: "./web",
		},
		System: SystemConfig{
			ChatPrompt: "You are a helpful assistant for visually impaired users. Answer concisely and describe visual information in words.",
		},
		Upload: UploadConfig{
			MaxFileSize:    10 * 1024 * 1024,
			MaxPixels:      50_000_000,
			MaxWidth:       10000,
			MaxHeight:      10000,
			AllowedFormats: []string{"jpeg", "jpg", "png", "gif", "webp", "bmp"},
			TempDir:        "data/uploads",
		},
		Batch: BatchConfig{
			MaxItems: 10,
			Delay:    Duration(500 * time.Millisecond),
		},
		Selected: SelectedConfig{
			LLM:    "OpenAILLM",
			Vision: "OpenAIVision",
			TTS:    "EdgeTTS",
		},
		LLM: map[string]LLMConfig{
			"OpenAILLM": {
				Type:      "openai",
				ModelName: "gpt-4o-mini",
				MaxTokens: 500,
			},
			"OllamaLLM": {
				Type:      "ollama",
				ModelName: "llama3.2",
				BaseURL:   "http://localhost:11434",
			},
		},
		Vision: map[string]VisionConfig{
			"OpenAIVision": {
				Type:      "openai",
				ModelName: "gpt-4o-mini",
				MaxTokens: 1000,
			},
			"OllamaVision": {
				Type:      "ollama",
				ModelName: "llava",
				BaseURL:   "http://localhost:11434",
			},
		},
		TTS: map[string]TTSConfig{
			"EdgeTTS": {
				Type:      "edge",
				Voice:     "en-US-AriaNeural",
				Format:    "audio-24khz-48kbitrate-mono-mp3",
				OutputDir: "data/tts",
			},
		},
		Messaging: MessagingConfig{
			Enabled:        false,
			GatewayURL:     "ws://localhost:8090/gateway",
			ReconnectDelay: Duration(5 * time.Second),
			Store: StoreConfig{
				Driver: "memory",
				TTL:    Duration(30 * 24 * time.Hour),
			},
		},
		Storage: StorageConfig{
			DSN: "data/usage.db",
		},
	}
}
