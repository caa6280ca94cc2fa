package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"
)

// envVarPattern matches ${VAR} or ${VAR:default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// SubstituteEnvVars replaces ${VAR} or ${VAR:default} with the named
// environment variable's value, or the default if it is unset.
func SubstituteEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// SubstituteEnvVarsInConfig recursively substitutes environment
// variables across every string field in cfg.
func SubstituteEnvVarsInConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.Environment = SubstituteEnvVars(cfg.Environment)
	cfg.Device.DefaultKDFTag = SubstituteEnvVars(cfg.Device.DefaultKDFTag)
	cfg.Logging.Level = SubstituteEnvVars(cfg.Logging.Level)
	cfg.Logging.Format = SubstituteEnvVars(cfg.Logging.Format)
	cfg.Logging.Output = SubstituteEnvVars(cfg.Logging.Output)
	cfg.Metrics.Namespace = SubstituteEnvVars(cfg.Metrics.Namespace)
}

// GetEnvironment returns the active environment from VAULT_ENV,
// falling back to ENVIRONMENT, defaulting to "development".
func GetEnvironment() string {
	env := os.Getenv("VAULT_ENV")
	if env == "" {
		env = os.Getenv("ENVIRONMENT")
	}
	if env == "" {
		env = "development"
	}
	return strings.ToLower(env)
}

// IsProduction reports whether GetEnvironment is "production".
func IsProduction() bool {
	return GetEnvironment() == "production"
}

// IsDevelopment reports whether GetEnvironment is "development" or "local".
func IsDevelopment() bool {
	env := GetEnvironment()
	return env == "development" || env == "local"
}

// applyEnvironmentOverrides applies the highest-priority layer: direct
// environment variables, regardless of what the config file said.
func applyEnvironmentOverrides(cfg *Config) {
	if v := os.Getenv("VAULT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("VAULT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("VAULT_METRICS_ENABLED"); v == "true" {
		cfg.Metrics.Enabled = true
	} else if v == "false" {
		cfg.Metrics.Enabled = false
	}
	if v := os.Getenv("VAULT_GROUP_BATCH_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Group.BatchThreshold = n
		}
	}
}
