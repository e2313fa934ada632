// Package config provides unified configuration loading for the question
// engine. Supports YAML files, environment variables, and programmatic
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the question engine.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Gateway       GatewayConfig       `yaml:"gateway"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	Translation   TranslationConfig   `yaml:"translation"`
	Export        ExportConfig        `yaml:"export"`
	Cache         CacheConfig         `yaml:"cache"`
	Store         StoreConfig         `yaml:"store"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// GatewayConfig holds vision-model backend settings.
type GatewayConfig struct {
	Provider       string        `yaml:"provider"` // openrouter
	APIKey         string        `yaml:"api_key"`
	Model          string        `yaml:"model"`
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// PipelineConfig holds extraction pipeline settings.
type PipelineConfig struct {
	DPI                int           `yaml:"dpi"`
	BatchSize          int           `yaml:"batch_size"`
	MaxPages           int           `yaml:"max_pages"`
	MaxConcurrentPages int           `yaml:"max_concurrent_pages"`
	MinConfidenceScore float64       `yaml:"min_confidence_score"`
	MaxPageRetries     int           `yaml:"max_page_retries"`
	RetryDelayStep     time.Duration `yaml:"retry_delay_step"`
	InterBatchPause    time.Duration `yaml:"inter_batch_pause"`
	CacheDirectory     string        `yaml:"cache_directory"`
}

// TranslationConfig holds translation and rephrasing settings.
type TranslationConfig struct {
	TargetLanguages   []string `yaml:"target_languages"`
	RephrasingEnabled bool     `yaml:"rephrasing_enabled"`
	RephrasingStyle   string   `yaml:"rephrasing_style"` // academic, simple, detailed
}

// ExportConfig holds export settings.
type ExportConfig struct {
	OutputFormats []string `yaml:"output_formats"` // json, csv, excel, markdown
	OutputDir     string   `yaml:"output_dir"`
}

// CacheConfig holds translation-memo cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// StoreConfig holds question store settings.
type StoreConfig struct {
	Path string `yaml:"path"` // sqlite database path
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8090,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     60 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Gateway: GatewayConfig{
			Provider:       "openrouter",
			Model:          "google/gemini-2.5-flash",
			BaseURL:        "https://openrouter.ai/api/v1/chat/completions",
			RequestTimeout: 120 * time.Second,
		},
		Pipeline: PipelineConfig{
			DPI:                300,
			BatchSize:          10,
			MaxConcurrentPages: 5,
			MinConfidenceScore: 0.5,
			MaxPageRetries:     3,
			RetryDelayStep:     5 * time.Second,
			InterBatchPause:    2 * time.Second,
			CacheDirectory:     "/tmp/question-engine",
		},
		Translation: TranslationConfig{
			TargetLanguages:   nil,
			RephrasingEnabled: false,
			RephrasingStyle:   "academic",
		},
		Export: ExportConfig{
			OutputFormats: []string{"json"},
			OutputDir:     "./output",
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        24 * time.Hour,
			MaxEntries: 10000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
			},
		},
		Store: StoreConfig{
			Path: "/tmp/question-engine/questions.db",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

var validStyles = map[string]bool{"academic": true, "simple": true, "detailed": true}

var validFormats = map[string]bool{"json": true, "csv": true, "excel": true, "markdown": true}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Pipeline.DPI < 72 || c.Pipeline.DPI > 600 {
		return fmt.Errorf("dpi must be between 72 and 600, got %d", c.Pipeline.DPI)
	}

	if c.Pipeline.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1")
	}

	if c.Pipeline.MaxConcurrentPages < 1 {
		return fmt.Errorf("max_concurrent_pages must be at least 1")
	}

	if c.Pipeline.MinConfidenceScore < 0 || c.Pipeline.MinConfidenceScore > 1 {
		return fmt.Errorf("min_confidence_score must be within [0,1], got %f", c.Pipeline.MinConfidenceScore)
	}

	if !validStyles[c.Translation.RephrasingStyle] {
		return fmt.Errorf("invalid rephrasing style: %s", c.Translation.RephrasingStyle)
	}

	for _, f := range c.Export.OutputFormats {
		if !validFormats[f] {
			return fmt.Errorf("invalid output format: %s", f)
		}
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.Gateway.APIKey = v
	}

	if v := os.Getenv("VLM_MODEL"); v != "" {
		cfg.Gateway.Model = v
	}

	if v := os.Getenv("VLM_BASE_URL"); v != "" {
		cfg.Gateway.BaseURL = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("CACHE_DIRECTORY"); v != "" {
		cfg.Pipeline.CacheDirectory = v
	}

	if v := os.Getenv("STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}

	if v := os.Getenv("TARGET_LANGUAGES"); v != "" {
		cfg.Translation.TargetLanguages = strings.Split(v, ",")
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
