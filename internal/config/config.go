// Package config loads gamebook.yaml into a validated Config.
//
// The file is decoded into a generic map first and then into Config with
// mapstructure, so durations may be written as "5s" and numbers as strings.
// Defaults are applied before decoding; keys absent from the file keep them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "gamebook.yaml"

// Store drivers.
const (
	DriverFile   = "file"
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
)

// Config is the full application configuration.
type Config struct {
	// Dir is the project data directory; file, sqlite and badger stores live under it.
	Dir string `mapstructure:"dir" validate:"required"`

	// Session is the session used by CLI commands when --session is not given.
	Session string `mapstructure:"session" validate:"required"`

	Log    LogConfig    `mapstructure:"log"`
	Store  StoreConfig  `mapstructure:"store"`
	Parser ParserConfig `mapstructure:"parser"`
	Search SearchConfig `mapstructure:"search"`
	HTTP   HTTPConfig   `mapstructure:"http"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=file memory redis sqlite badger"`

	// Path overrides the driver's default location under Dir.
	Path string `mapstructure:"path"`

	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"min=0"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" validate:"min=0"`

	// Lock enables the distributed session lock; it works with any driver.
	Lock    bool          `mapstructure:"lock"`
	LockTTL time.Duration `mapstructure:"lock_ttl" validate:"min=0"`

	// Enabled is set by Load when the driver or the lock needs Redis.
	Enabled bool `mapstructure:"-"`
}

type ParserConfig struct {
	TagInference bool `mapstructure:"tag_inference"`
}

type SearchConfig struct {
	MaxSteps int           `mapstructure:"max_steps" validate:"min=1"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"min=0"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	RateLimit       float64       `mapstructure:"rate_limit" validate:"min=0"`
	Burst           int           `mapstructure:"burst" validate:"min=1"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Dir:     ".gamebook",
		Session: "default",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Store: StoreConfig{
			Driver: DriverFile,
			Redis: RedisConfig{
				Addr:    "localhost:6379",
				Prefix:  "gamebook:",
				LockTTL: 30 * time.Second,
			},
		},
		Search: SearchConfig{
			MaxSteps: 1_000_000,
			Timeout:  10 * time.Second,
		},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			RateLimit:       20,
			Burst:           40,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// Load reads path (or DefaultFile when path is empty) over the defaults.
// A missing DefaultFile is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := Decode(data, cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode applies YAML data on top of cfg.
func Decode(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse yaml: %w", err)
	}
	if raw == nil {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	c.Store.Redis.Enabled = c.Store.Driver == DriverRedis || c.Store.Redis.Lock
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// StorePath returns where the configured driver keeps its data.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	switch c.Store.Driver {
	case DriverSQLite:
		return filepath.Join(c.Dir, "gamebook.db")
	case DriverBadger:
		return filepath.Join(c.Dir, "badger")
	default:
		return filepath.Join(c.Dir, "sessions")
	}
}
