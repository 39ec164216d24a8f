package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading
type Loader struct {
	configPath string
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Load loads the configuration from file
func (l *Loader) Load() (*Config, error) {
	// Determine config path
	configPath := l.configPath
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".docchat", "docchat.json")
	}

	// Environment variables apply even without a config file
	// (DOCCHAT_AI_API_KEY, DOCCHAT_SERVER_PORT, ...).
	v := viper.New()
	v.SetEnvPrefix("DOCCHAT")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	bindKeys(v)

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		v.SetConfigType("json")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := NewValidator().ValidateFile(configPath); err != nil {
			return nil, err
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Set data directory if not specified
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".docchat")
	}

	// Set logging file path if not specified
	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(cfg.DataDir, "docchat.log")
	}

	// Set upload scratch directory if not specified
	if cfg.Uploads.Dir == "" {
		cfg.Uploads.Dir = filepath.Join(cfg.DataDir, "uploads")
	}

	return cfg, nil
}

// Save saves the configuration to file
func (l *Loader) Save(cfg *Config) error {
	configPath := l.configPath
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".docchat", "docchat.json")
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

var envKeyReplacer = strings.NewReplacer(".", "_")

// bindKeys registers every config key with viper so AutomaticEnv resolves
// them even when the key is absent from the config file.
func bindKeys(v *viper.Viper) {
	for _, key := range []string{
		"server.port",
		"server.public_dir",
		"ai.provider",
		"ai.model",
		"ai.api_key",
		"ai.max_retries",
		"ai.timeout",
		"session.history_limit",
		"session.ttl",
		"session.sweep_interval",
		"prompt.persona_file",
		"uploads.dir",
		"uploads.sweep_schedule",
		"uploads.max_age",
		"logging.level",
		"logging.file",
		"logging.console",
		"logging.pretty",
		"logging.redaction",
		"tracing.sample_ratio",
		"data_dir",
	} {
		// BindEnv only fails when called without a key
		_ = v.BindEnv(key)
	}
}
