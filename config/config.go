// Package config provides layered YAML configuration for the vault
// SDK: a file per environment, ${VAR}/${VAR:default} substitution, and
// environment-variable overrides taking highest priority. Argon2id's
// parameters are not here: they must match across implementations for
// derived keys to interoperate, so only operational knobs (device
// defaults, group thresholds, logging, metrics) are configurable.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Environment string         `yaml:"environment" json:"environment"`
	Device      DeviceConfig   `yaml:"device" json:"device"`
	Group       GroupConfig    `yaml:"group" json:"group"`
	Logging     LoggingConfig  `yaml:"logging" json:"logging"`
	Metrics     MetricsConfig  `yaml:"metrics" json:"metrics"`
}

// DeviceConfig holds device-registration defaults. DefaultKDFTag is
// informational only — the credential engine always uses Argon2id —
// and is validated against it so a stale config file fails loudly
// instead of silently being ignored.
type DeviceConfig struct {
	DefaultKDFTag       string `yaml:"default_kdf_tag" json:"default_kdf_tag"`
	IdentifierMinLength int    `yaml:"identifier_min_length" json:"identifier_min_length"`
}

// GroupConfig holds group key engine thresholds.
type GroupConfig struct {
	BatchThreshold int           `yaml:"batch_threshold" json:"batch_threshold"`
	KeySessionTTL  time.Duration `yaml:"key_session_ttl" json:"key_session_ttl"`
}

// LoggingConfig configures the zap logger built by internal/logging.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // json, console
	Output string `yaml:"output" json:"output"` // stdout, stderr, file path
}

// MetricsConfig holds the metrics settings of a config file. Package
// internal/metrics does not read them: its registry is always built and
// its namespace is fixed at "vaultsdk".
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

// LoadFromFile reads and parses a single config file, trying YAML
// first and falling back to JSON, then applies defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	setDefaults(cfg)
	return cfg, nil
}

// SaveToFile writes cfg back out, choosing format by extension.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Device.DefaultKDFTag == "" {
		cfg.Device.DefaultKDFTag = "argon2id"
	}
	if cfg.Device.IdentifierMinLength == 0 {
		cfg.Device.IdentifierMinLength = 3
	}
	if cfg.Group.BatchThreshold == 0 {
		cfg.Group.BatchThreshold = 50
	}
	if cfg.Group.KeySessionTTL == 0 {
		cfg.Group.KeySessionTTL = 10 * time.Minute
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "veilsdk"
	}
}

// ValidationIssue is one configuration problem found by Validate.
type ValidationIssue struct {
	Field   string
	Message string
	Level   string // "error" or "warning"
}

// Validate checks cfg for values that would break the credential or
// group engines if left as-is.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Device.DefaultKDFTag != "argon2id" {
		issues = append(issues, ValidationIssue{
			Field:   "device.default_kdf_tag",
			Message: "only argon2id is implemented; the field is informational and must match it",
			Level:   "error",
		})
	}
	if cfg.Group.BatchThreshold <= 0 {
		issues = append(issues, ValidationIssue{
			Field:   "group.batch_threshold",
			Message: "must be positive",
			Level:   "error",
		})
	}
	if cfg.Group.KeySessionTTL <= 0 {
		issues = append(issues, ValidationIssue{
			Field:   "group.key_session_ttl",
			Message: "must be positive",
			Level:   "error",
		})
	}
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		issues = append(issues, ValidationIssue{
			Field:   "logging.level",
			Message: "must be one of debug, info, warn, error",
			Level:   "warning",
		})
	}

	return issues
}
