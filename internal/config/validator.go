package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// configSchema validates the shape of the JSON config file. Unknown keys
// are rejected early instead of being silently ignored by unmarshalling.
const configSchema = `{
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"server": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"port": {"type": "integer", "minimum": 1, "maximum": 65535},
				"public_dir": {"type": "string"}
			}
		},
		"ai": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"provider": {"type": "string", "enum": ["gemini", "openai", "anthropic"]},
				"model": {"type": "string"},
				"api_key": {"type": "string"},
				"max_retries": {"type": "integer", "minimum": 0},
				"timeout": {"type": ["string", "integer"]}
			}
		},
		"session": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"history_limit": {"type": "integer", "minimum": 1},
				"ttl": {"type": ["string", "integer"]},
				"sweep_interval": {"type": ["string", "integer"]}
			}
		},
		"prompt": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"persona_file": {"type": "string"}
			}
		},
		"uploads": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"dir": {"type": "string"},
				"sweep_schedule": {"type": "string"},
				"max_age": {"type": ["string", "integer"]}
			}
		},
		"logging": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"level": {"type": "string", "enum": ["debug", "info", "warn", "error"]},
				"file": {"type": "string"},
				"console": {"type": "boolean"},
				"pretty": {"type": "boolean"},
				"redaction": {"type": "boolean"}
			}
		},
		"tracing": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"sample_ratio": {"type": "number", "exclusiveMinimum": 0, "maximum": 1}
			}
		},
		"data_dir": {"type": "string"}
	}
}`

// Validator validates configuration values
type Validator struct {
	schemaLoader gojsonschema.JSONLoader
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		schemaLoader: gojsonschema.NewStringLoader(configSchema),
	}
}

// ValidateFile validates a JSON config file against the config schema
func (v *Validator) ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	result, err := gojsonschema.Validate(v.schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("failed to validate config file: %w", err)
	}

	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("invalid config file %s: %s", path, strings.Join(problems, "; "))
	}

	return nil
}

// ValidateAPIKey validates an API key format for the given provider
func (v *Validator) ValidateAPIKey(key string, provider string) error {
	if key == "" {
		return fmt.Errorf("%s API key cannot be empty", provider)
	}

	switch provider {
	case "gemini":
		if !strings.HasPrefix(key, "AIza") {
			return fmt.Errorf("invalid Gemini API key format (should start with AIza)")
		}
	case "anthropic":
		if !strings.HasPrefix(key, "sk-ant-") {
			return fmt.Errorf("invalid Anthropic API key format (should start with sk-ant-)")
		}
	case "openai":
		if !strings.HasPrefix(key, "sk-") {
			return fmt.Errorf("invalid OpenAI API key format (should start with sk-)")
		}
	}

	return nil
}

// ValidateProvider validates a provider name
func (v *Validator) ValidateProvider(provider string) error {
	switch provider {
	case "gemini", "openai", "anthropic":
		return nil
	default:
		return fmt.Errorf("unsupported provider: %s", provider)
	}
}

// Validate checks a loaded configuration for values the service cannot run with
func (v *Validator) Validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}

	if err := v.ValidateProvider(cfg.AI.Provider); err != nil {
		return err
	}

	if cfg.AI.Model == "" {
		return fmt.Errorf("model name cannot be empty")
	}

	if err := v.ValidateAPIKey(cfg.AI.APIKey, cfg.AI.Provider); err != nil {
		return err
	}

	if cfg.Session.HistoryLimit <= 0 {
		return fmt.Errorf("session history limit must be positive")
	}

	return nil
}
