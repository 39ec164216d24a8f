package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/andika/docchat/internal/logger"
)

// Config represents the main docchat configuration
type Config struct {
	// HTTP server
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Remote completion provider
	AI AIConfig `json:"ai" mapstructure:"ai"`

	// Session retention
	Session SessionConfig `json:"session" mapstructure:"session"`

	// Prompt assembly
	Prompt PromptConfig `json:"prompt" mapstructure:"prompt"`

	// Upload scratch directory
	Uploads UploadsConfig `json:"uploads" mapstructure:"uploads"`

	// Logging
	Logging logger.Config `json:"logging" mapstructure:"logging"`

	// Tracing
	Tracing TracingConfig `json:"tracing" mapstructure:"tracing"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port      int    `json:"port" mapstructure:"port"`
	PublicDir string `json:"public_dir" mapstructure:"public_dir"`
}

// AIConfig holds completion provider configuration
type AIConfig struct {
	Provider   string        `json:"provider" mapstructure:"provider"` // gemini, openai, anthropic
	Model      string        `json:"model" mapstructure:"model"`
	APIKey     string        `json:"api_key" mapstructure:"api_key"`
	MaxRetries int           `json:"max_retries" mapstructure:"max_retries"`
	Timeout    time.Duration `json:"timeout" mapstructure:"timeout"`
}

// SessionConfig holds session retention configuration
type SessionConfig struct {
	HistoryLimit  int           `json:"history_limit" mapstructure:"history_limit"`
	TTL           time.Duration `json:"ttl" mapstructure:"ttl"`
	SweepInterval time.Duration `json:"sweep_interval" mapstructure:"sweep_interval"`
}

// TracingConfig holds tracer configuration
type TracingConfig struct {
	// SampleRatio is the fraction of traces recorded, in (0, 1].
	SampleRatio float64 `json:"sample_ratio" mapstructure:"sample_ratio"`
}

// PromptConfig holds prompt assembly configuration
type PromptConfig struct {
	// PersonaFile optionally overrides the built-in system preamble.
	// Changes to the file are picked up without a restart.
	PersonaFile string `json:"persona_file" mapstructure:"persona_file"`
}

// UploadsConfig holds upload scratch directory configuration
type UploadsConfig struct {
	Dir           string        `json:"dir" mapstructure:"dir"`
	SweepSchedule string        `json:"sweep_schedule" mapstructure:"sweep_schedule"` // cron expression
	MaxAge        time.Duration `json:"max_age" mapstructure:"max_age"`
}

// DefaultConfig returns the default configuration. Port and model defaults
// match the service's historical env-driven defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      3000,
			PublicDir: "public",
		},
		AI: AIConfig{
			Provider:   "gemini",
			Model:      "gemini-1.5-flash",
			MaxRetries: 2,
			Timeout:    60 * time.Second,
		},
		Session: SessionConfig{
			HistoryLimit:  10,
			TTL:           30 * time.Minute,
			SweepInterval: 5 * time.Minute,
		},
		Uploads: UploadsConfig{
			SweepSchedule: "*/30 * * * *",
			MaxAge:        time.Hour,
		},
		Logging: logger.DefaultConfig(),
		Tracing: TracingConfig{
			SampleRatio: 1,
		},
	}
}

// String returns the configuration as JSON with the API key masked.
func (c *Config) String() string {
	masked := *c
	if masked.AI.APIKey != "" {
		masked.AI.APIKey = "***"
	}

	data, err := json.MarshalIndent(masked, "", "  ")
	if err != nil {
		return fmt.Sprintf("config marshal error: %v", err)
	}
	return string(data)
}
