// Package config loads jobclock settings from ~/.jobclock/config.yaml and
// JOBCLOCK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alexanderramin/jobclock/internal/logging"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBPath          string         `yaml:"db_path"`
	Log             logging.Config `yaml:"log"`
	TickInterval    time.Duration  `yaml:"tick_interval"`
	Listen          string         `yaml:"listen"`
	FeedPath        string         `yaml:"feed"`
	EffectQueueSize int            `yaml:"effect_queue_size"`
	EffectTimeout   time.Duration  `yaml:"effect_timeout"`
}

// Dir returns ~/.jobclock, or the working directory when there is no home.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".jobclock"
	}
	return filepath.Join(home, ".jobclock")
}

// DefaultPath is the config file location, overridable with JOBCLOCK_CONFIG.
func DefaultPath() string {
	if v := os.Getenv("JOBCLOCK_CONFIG"); v != "" {
		return v
	}
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns the settings used when nothing is configured.
// The live-status hub is off unless Listen is set.
func DefaultConfig() Config {
	return Config{
		DBPath:          filepath.Join(Dir(), "jobclock.db"),
		Log:             logging.Config{Level: "info", Format: "text"},
		TickInterval:    time.Second,
		EffectQueueSize: 64,
		EffectTimeout:   10 * time.Second,
	}
}

// Load reads path over the defaults and then applies environment
// overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("JOBCLOCK_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("JOBCLOCK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("JOBCLOCK_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("JOBCLOCK_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("JOBCLOCK_TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.TickInterval = d
		}
	}
	if v := os.Getenv("JOBCLOCK_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("JOBCLOCK_FEED"); v != "" {
		cfg.FeedPath = v
	}
	if v := os.Getenv("JOBCLOCK_EFFECT_QUEUE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EffectQueueSize = n
		}
	}
}

func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("config: db_path is empty")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("config: tick_interval must be positive, got %s", c.TickInterval)
	}
	if c.EffectQueueSize <= 0 {
		return fmt.Errorf("config: effect_queue_size must be positive, got %d", c.EffectQueueSize)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	return nil
}

// Save writes cfg to path, creating the directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
