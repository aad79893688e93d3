package yunit_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/junioryono/yunit"
	"github.com/junioryono/yunit/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// clearEnv unsets the YUNIT_* variables for the test. godotenv never
// overrides a variable that exists, even when it is empty.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{yunit.EnvMaxDepth, yunit.EnvLifetime, yunit.EnvEnvironment, yunit.EnvLogLevel, yunit.EnvConfig} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := yunit.DefaultConfig()

	assert.Equal(t, yunit.DefaultMaxDepth, cfg.MaxDepth)
	assert.Equal(t, "Scoped", cfg.Lifetime)
	assert.Equal(t, yunit.DefaultEnvironment, cfg.Environment)
	assert.Equal(t, zerolog.Disabled, cfg.Level())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	t.Run("toml", func(t *testing.T) {
		path := writeFile(t, "yunit.toml", `
max_depth = 5
lifetime = "singleton"
log_level = "debug"
`)
		cfg, err := yunit.LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, 5, cfg.MaxDepth)
		assert.Equal(t, "singleton", cfg.Lifetime)
		assert.Equal(t, yunit.DefaultEnvironment, cfg.Environment, "undefined keys keep defaults")
		assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	})

	t.Run("yaml", func(t *testing.T) {
		path := writeFile(t, "yunit.yaml", "max_depth: 7\nenvironment: Staging\n")
		cfg, err := yunit.LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, 7, cfg.MaxDepth)
		assert.Equal(t, "Staging", cfg.Environment)
		assert.Equal(t, "Scoped", cfg.Lifetime)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := writeFile(t, "yunit.yml", "lifetime: forever\n")
		_, err := yunit.LoadConfig(path)
		cerr := testutil.AssertErrorType[yunit.ConfigError](t, err)
		assert.Equal(t, "lifetime", cerr.Key)

		path = writeFile(t, "yunit.toml", "max_depth = 0\n")
		_, err = yunit.LoadConfig(path)
		assert.ErrorIs(t, err, yunit.ErrInvalidMaxDepth)
	})

	t.Run("malformed files", func(t *testing.T) {
		_, err := yunit.LoadConfig(writeFile(t, "bad.toml", "max_depth = "))
		testutil.AssertErrorType[yunit.ConfigError](t, err)

		_, err = yunit.LoadConfig(writeFile(t, "bad.yaml", "max_depth: [1"))
		testutil.AssertErrorType[yunit.ConfigError](t, err)

		_, err = yunit.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		testutil.AssertErrorType[yunit.ConfigError](t, err)

		_, err = yunit.LoadConfig(writeFile(t, "config.json", "{}"))
		assert.ErrorContains(t, err, "unsupported config format")
	})
}

func TestLoadEnv(t *testing.T) {
	t.Run("variables override", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(yunit.EnvMaxDepth, "4")
		t.Setenv(yunit.EnvLifetime, "Transient")
		t.Setenv(yunit.EnvEnvironment, "CI")

		cfg, err := yunit.LoadEnv(yunit.DefaultConfig(), filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)

		assert.Equal(t, 4, cfg.MaxDepth)
		assert.Equal(t, "Transient", cfg.Lifetime)
		assert.Equal(t, "CI", cfg.Environment)
	})

	t.Run("dotenv file", func(t *testing.T) {
		clearEnv(t)
		path := writeFile(t, ".env", "YUNIT_LOG_LEVEL=warn\n")

		cfg, err := yunit.LoadEnv(yunit.DefaultConfig(), path)
		require.NoError(t, err)
		assert.Equal(t, zerolog.WarnLevel, cfg.Level())
	})

	t.Run("config file then variables", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(yunit.EnvConfig, writeFile(t, "yunit.toml", "max_depth = 3\nenvironment = \"File\"\n"))
		t.Setenv(yunit.EnvEnvironment, "Env")

		cfg, err := yunit.LoadEnv(yunit.DefaultConfig(), filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.MaxDepth)
		assert.Equal(t, "Env", cfg.Environment)
	})

	t.Run("invalid variables", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(yunit.EnvMaxDepth, "deep")

		_, err := yunit.LoadEnv(yunit.DefaultConfig(), filepath.Join(t.TempDir(), "missing.env"))
		cerr := testutil.AssertErrorType[yunit.ConfigError](t, err)
		assert.Equal(t, yunit.EnvMaxDepth, cerr.Key)
	})
}

func TestConfig_Options(t *testing.T) {
	cfg := yunit.DefaultConfig()
	cfg.MaxDepth = 6
	cfg.Lifetime = "transient"
	cfg.LogLevel = "info"

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Len(t, opts, 3)

	c := yunit.NewComposer(opts...)
	assert.Equal(t, 6, c.MaxDepth())
	assert.Equal(t, yunit.Transient, c.Lifetime())
	assert.Equal(t, zerolog.InfoLevel, c.Logger().GetLevel())

	opts, err = yunit.DefaultConfig().Options()
	require.NoError(t, err)
	assert.Len(t, opts, 2, "disabled logging keeps the no-op logger")

	cfg.LogLevel = "loud"
	_, err = cfg.Options()
	testutil.AssertErrorType[yunit.ConfigError](t, err)
}
