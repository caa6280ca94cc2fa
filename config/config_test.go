package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "argon2id", cfg.Device.DefaultKDFTag)
	assert.Equal(t, 3, cfg.Device.IdentifierMinLength)
	assert.Equal(t, 50, cfg.Group.BatchThreshold)
	assert.Equal(t, 10*time.Minute, cfg.Group.KeySessionTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "veilsdk", cfg.Metrics.Namespace)
}

func TestLoadFromFile(t *testing.T) {
	t.Run("round trip YAML", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		err := os.WriteFile(path, []byte(`
environment: staging
group:
  batch_threshold: 25
logging:
  level: debug
`), 0o644)
		require.NoError(t, err)

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, "staging", cfg.Environment)
		assert.Equal(t, 25, cfg.Group.BatchThreshold)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "argon2id", cfg.Device.DefaultKDFTag, "defaults still fill unset fields")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile("/non/existent/file.yaml")
		assert.ErrorContains(t, err, "failed to open config file")
	})

	t.Run("invalid YAML", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "invalid.yaml")
		require.NoError(t, os.WriteFile(path, []byte("group: [unclosed"), 0o644))

		_, err := LoadFromFile(path)
		assert.ErrorContains(t, err, "failed to parse config file")
	})
}

func TestSaveToFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{}
	setDefaults(cfg)
	cfg.Environment = "production"

	yamlPath := filepath.Join(dir, "out.yaml")
	require.NoError(t, SaveToFile(cfg, yamlPath))
	loaded, err := LoadFromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "production", loaded.Environment)

	jsonPath := filepath.Join(dir, "out.json")
	require.NoError(t, SaveToFile(cfg, jsonPath))
	loadedJSON, err := LoadFromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "production", loadedJSON.Environment)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	assert.Empty(t, Validate(cfg))

	cfg.Group.BatchThreshold = 0
	cfg.Device.DefaultKDFTag = "bcrypt"
	issues := Validate(cfg)
	require.Len(t, issues, 2)

	fields := map[string]bool{}
	for _, iss := range issues {
		fields[iss.Field] = true
		assert.Equal(t, "error", iss.Level)
	}
	assert.True(t, fields["group.batch_threshold"])
	assert.True(t, fields["device.default_kdf_tag"])
}

func TestLoad(t *testing.T) {
	t.Run("falls back to defaults with no files present", func(t *testing.T) {
		cfg, err := Load(LoaderOptions{ConfigDir: t.TempDir()})
		require.NoError(t, err)
		assert.Equal(t, 50, cfg.Group.BatchThreshold)
	})

	t.Run("environment-specific file wins over default.yaml", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "default.yaml"), []byte("group:\n  batch_threshold: 10\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "staging.yaml"), []byte("group:\n  batch_threshold: 20\n"), 0o644))

		cfg, err := Load(LoaderOptions{ConfigDir: dir, Environment: "staging"})
		require.NoError(t, err)
		assert.Equal(t, 20, cfg.Group.BatchThreshold)
	})

	t.Run("environment variable overrides beat file values", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("logging:\n  level: info\n"), 0o644))

		t.Setenv("VAULT_LOG_LEVEL", "debug")
		cfg, err := Load(LoaderOptions{ConfigDir: dir})
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("invalid config fails validation", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("device:\n  default_kdf_tag: bcrypt\n"), 0o644))

		_, err := Load(LoaderOptions{ConfigDir: dir})
		assert.ErrorContains(t, err, "configuration validation failed")
	})
}

func TestMustLoad(t *testing.T) {
	assert.NotPanics(t, func() {
		MustLoad(LoaderOptions{ConfigDir: t.TempDir()})
	})
}
