package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoader_Load(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.yaml")

	configContent := `
server:
  ip: "127.0.0.1"
  port: 8080
log:
  log_level: "debug"
  log_dir: "/tmp/logs"
  log_file: "test.log"
upload:
  max_file_size: 5242880
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loader := NewLoader().WithPath(configFile).WithDotEnv(false)
	result, err := loader.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	cfg := result.Config

	if cfg.Server.IP != "127.0.0.1" {
		t.Errorf("expected server IP 127.0.0.1, got %s", cfg.Server.IP)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.Upload.MaxFileSize != 5242880 {
		t.Errorf("expected max file size override, got %d", cfg.Upload.MaxFileSize)
	}
	// Untouched sections keep their defaults.
	if cfg.Batch.MaxItems != 10 {
		t.Errorf("expected default batch max_items 10, got %d", cfg.Batch.MaxItems)
	}
}

func TestLoader_LoadMissingFile(t *testing.T) {
	loader := NewLoader().WithPath(filepath.Join(t.TempDir(), "absent.yaml")).WithDotEnv(false)
	result, err := loader.Load()
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if result.Path != "" {
		t.Errorf("expected empty origin path, got %q", result.Path)
	}
	if result.Config.Server.Port != 3000 {
		t.Errorf("expected default port 3000, got %d", result.Config.Server.Port)
	}
}

func TestLoader_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	loader := NewLoader().WithPath(filepath.Join(t.TempDir(), "absent.yaml")).WithDotEnv(false)
	result, err := loader.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	cfg := result.Config

	if cfg.Server.Port != 9100 {
		t.Errorf("expected PORT override 9100, got %d", cfg.Server.Port)
	}
	if cfg.LLM[cfg.Selected.LLM].APIKey != "sk-test" {
		t.Errorf("expected OPENAI_API_KEY to fill the selected LLM entry")
	}
	if cfg.Vision[cfg.Selected.Vision].APIKey != "sk-test" {
		t.Errorf("expected OPENAI_API_KEY to fill the selected Vision entry")
	}
}

func TestLoader_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "zero upload cap",
			mutate:  func(c *Config) { c.Upload.MaxFileSize = 0 },
			wantErr: true,
		},
		{
			name:    "selected LLM missing",
			mutate:  func(c *Config) { c.Selected.LLM = "nope" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
