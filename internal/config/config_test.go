package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Pipeline.DPI != 300 {
		t.Errorf("default dpi = %d", cfg.Pipeline.DPI)
	}
	if cfg.Pipeline.MaxConcurrentPages != 5 {
		t.Errorf("default concurrency = %d", cfg.Pipeline.MaxConcurrentPages)
	}
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
pipeline:
  dpi: 200
  batch_size: 4
  retry_delay_step: 2s
translation:
  target_languages: [hi, ta]
export:
  output_formats: [json, csv]
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("OPENROUTER_API_KEY", "sk-or-env")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Pipeline.DPI != 200 || cfg.Pipeline.BatchSize != 4 {
		t.Errorf("yaml values not applied: %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.RetryDelayStep != 2*time.Second {
		t.Errorf("retry_delay_step = %s", cfg.Pipeline.RetryDelayStep)
	}
	if len(cfg.Translation.TargetLanguages) != 2 {
		t.Errorf("target languages = %v", cfg.Translation.TargetLanguages)
	}
	if cfg.Gateway.APIKey != "sk-or-env" {
		t.Errorf("env override not applied: %q", cfg.Gateway.APIKey)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.Observability.LogLevel)
	}
	// untouched defaults survive
	if cfg.Server.Port != 8090 {
		t.Errorf("server port = %d", cfg.Server.Port)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "dpi too low", mutate: func(c *Config) { c.Pipeline.DPI = 50 }},
		{name: "dpi too high", mutate: func(c *Config) { c.Pipeline.DPI = 1200 }},
		{name: "zero batch size", mutate: func(c *Config) { c.Pipeline.BatchSize = 0 }},
		{name: "zero concurrency", mutate: func(c *Config) { c.Pipeline.MaxConcurrentPages = 0 }},
		{name: "confidence above one", mutate: func(c *Config) { c.Pipeline.MinConfidenceScore = 1.5 }},
		{name: "unknown style", mutate: func(c *Config) { c.Translation.RephrasingStyle = "poetic" }},
		{name: "unknown format", mutate: func(c *Config) { c.Export.OutputFormats = []string{"pdf"} }},
		{name: "unknown cache driver", mutate: func(c *Config) { c.Cache.Driver = "memcached" }},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
