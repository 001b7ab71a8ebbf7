// Package config loads the sandbox settings from defaults, an optional
// tradesim.yaml file, a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Sandbox  SandboxConfig  `mapstructure:"sandbox"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type SandboxConfig struct {
	InitialCash  float64       `mapstructure:"initial_cash"`
	Currency     string        `mapstructure:"currency"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	HistorySize  int           `mapstructure:"history_size"`
	Seed         uint64        `mapstructure:"seed"` // 0 means a random seed
	MaxSessions  int64         `mapstructure:"max_sessions"` // sessions served at once
}

type AuthConfig struct {
	Secret         string        `mapstructure:"secret"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	GoogleClientID string        `mapstructure:"google_client_id"`
}

type AnalysisConfig struct {
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EnvPrefix prefixes the environment variables overriding a key, e.g.
// TRADESIM_SERVER_ADDR for server.addr.
const EnvPrefix = "TRADESIM"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("sandbox.initial_cash", 100000)
	v.SetDefault("sandbox.currency", "INR")
	v.SetDefault("sandbox.tick_interval", 2*time.Second)
	v.SetDefault("sandbox.history_size", 100)
	v.SetDefault("sandbox.seed", 0)
	v.SetDefault("sandbox.max_sessions", 1000)
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.session_ttl", 12*time.Hour)
	v.SetDefault("auth.google_client_id", "")
	v.SetDefault("analysis.model", "gemini-2.5-flash")
	v.SetDefault("analysis.api_key", "")
	v.SetDefault("analysis.cache_ttl", 10*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration. The directory path is searched for a
// tradesim.yaml file and a .env file, both optional; an empty path means
// the current directory.
//
// Environment variables win over the file, and variables from .env never
// override the ones already set.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "."
	}
	if err := godotenv.Load(path + "/.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("cannot read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(path)
	v.SetConfigName("tradesim")
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("cannot read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Analysis.APIKey == "" {
		cfg.Analysis.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that have no sensible fallback.
func (c *Config) Validate() error {
	switch {
	case c.Sandbox.InitialCash < 0:
		return fmt.Errorf("sandbox.initial_cash must not be negative, got %v", c.Sandbox.InitialCash)
	case c.Sandbox.TickInterval < 0:
		return fmt.Errorf("sandbox.tick_interval must not be negative, got %v", c.Sandbox.TickInterval)
	case c.Sandbox.HistorySize < 0:
		return fmt.Errorf("sandbox.history_size must not be negative, got %d", c.Sandbox.HistorySize)
	case c.Sandbox.MaxSessions <= 0:
		return fmt.Errorf("sandbox.max_sessions must be positive, got %d", c.Sandbox.MaxSessions)
	}
	return nil
}
