package yunit

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Environment variables read by LoadEnv.
const (
	EnvMaxDepth    = "YUNIT_MAX_DEPTH"
	EnvLifetime    = "YUNIT_LIFETIME"
	EnvEnvironment = "YUNIT_ENVIRONMENT"
	EnvLogLevel    = "YUNIT_LOG_LEVEL"
	EnvConfig      = "YUNIT_CONFIG"
)

// DefaultEnvironment is the host environment when none is configured.
const DefaultEnvironment = "Test"

// Config is the file and environment configuration of composition and hosting.
type Config struct {
	MaxDepth    int
	Lifetime    string
	Environment string
	LogLevel    string
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		MaxDepth:    DefaultMaxDepth,
		Lifetime:    Scoped.String(),
		Environment: DefaultEnvironment,
		LogLevel:    zerolog.Disabled.String(),
	}
}

type tomlConfig struct {
	MaxDepth    int    `toml:"max_depth"`
	Lifetime    string `toml:"lifetime"`
	Environment string `toml:"environment"`
	LogLevel    string `toml:"log_level"`
}

type yamlConfig struct {
	MaxDepth    *int    `yaml:"max_depth"`
	Lifetime    *string `yaml:"lifetime"`
	Environment *string `yaml:"environment"`
	LogLevel    *string `yaml:"log_level"`
}

// LoadConfig reads a .toml, .yaml or .yml file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := cfg.applyFile(path); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		var raw tomlConfig
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return ConfigError{Source: path, Cause: err}
		}

		if meta.IsDefined("max_depth") {
			c.MaxDepth = raw.MaxDepth
		}
		if meta.IsDefined("lifetime") {
			c.Lifetime = strings.TrimSpace(raw.Lifetime)
		}
		if meta.IsDefined("environment") {
			c.Environment = strings.TrimSpace(raw.Environment)
		}
		if meta.IsDefined("log_level") {
			c.LogLevel = strings.TrimSpace(raw.LogLevel)
		}

	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return ConfigError{Source: path, Cause: err}
		}

		var raw yamlConfig
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return ConfigError{Source: path, Cause: err}
		}

		if raw.MaxDepth != nil {
			c.MaxDepth = *raw.MaxDepth
		}
		if raw.Lifetime != nil {
			c.Lifetime = strings.TrimSpace(*raw.Lifetime)
		}
		if raw.Environment != nil {
			c.Environment = strings.TrimSpace(*raw.Environment)
		}
		if raw.LogLevel != nil {
			c.LogLevel = strings.TrimSpace(*raw.LogLevel)
		}

	default:
		return ConfigError{Source: path, Cause: fmt.Errorf("unsupported config format %q", ext)}
	}

	return c.Validate()
}

// LoadEnv loads .env files (missing files are ignored) and overlays the
// YUNIT_* environment variables on cfg. A file named by YUNIT_CONFIG is
// applied before the other variables.
func LoadEnv(cfg Config, files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env is optional
	_ = godotenv.Load(files...)

	if path := strings.TrimSpace(os.Getenv(EnvConfig)); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	if v, ok := lookupEnv(EnvMaxDepth); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, ConfigError{Source: "env", Key: EnvMaxDepth, Cause: err}
		}
		cfg.MaxDepth = n
	}
	if v, ok := lookupEnv(EnvLifetime); ok {
		cfg.Lifetime = v
	}
	if v, ok := lookupEnv(EnvEnvironment); ok {
		cfg.Environment = v
	}
	if v, ok := lookupEnv(EnvLogLevel); ok {
		cfg.LogLevel = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// Validate checks every value can be turned into options.
func (c Config) Validate() error {
	if c.MaxDepth <= 0 {
		return ConfigError{Source: "config", Key: "max_depth", Cause: fmt.Errorf("%w, got %d", ErrInvalidMaxDepth, c.MaxDepth)}
	}
	if _, err := ParseLifetime(c.Lifetime); err != nil {
		return ConfigError{Source: "config", Key: "lifetime", Cause: err}
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return ConfigError{Source: "config", Key: "log_level", Cause: err}
	}
	return nil
}

// Level returns the parsed log level.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.Disabled
	}
	return level
}

// Options converts the configuration into composer options.
func (c Config) Options() ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	lifetime, _ := ParseLifetime(c.Lifetime)
	opts := []Option{
		WithMaxDepth(c.MaxDepth),
		WithLifetime(lifetime),
	}
	if level := c.Level(); level != zerolog.Disabled {
		opts = append(opts, WithLogger(NewLogger(nil, level)))
	}
	return opts, nil
}
