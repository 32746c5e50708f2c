// Package config handles application configuration using Viper.
// Viper supports YAML files, environment variables, and defaults —
// merged in priority order. Go convention: configuration is loaded into
// structs, not accessed as raw key-value pairs.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration struct. Nested structs organize
// related settings. `mapstructure` tags tell Viper how to map YAML/env
// keys to struct fields.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Image     ImageConfig     `mapstructure:"image"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type StorageConfig struct {
	// DatabasePath locates the SQLite file. There is no default — a
	// cellar without a durable home is a startup error.
	DatabasePath string `mapstructure:"database_path"`
}

type UploadConfig struct {
	// MaxBytes bounds the total upload payload. Enforced twice: on the
	// declared Content-Length before the body is read, and on the bytes
	// actually read.
	MaxBytes int64 `mapstructure:"max_bytes"`
}

type ImageConfig struct {
	// MaxDimension bounds the longest edge of the stored image.
	MaxDimension int `mapstructure:"max_dimension"`
	// ThumbnailDimension bounds the longest edge of the derived
	// thumbnail.
	ThumbnailDimension int `mapstructure:"thumbnail_dimension"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from a YAML file and environment variables.
// In Go, functions return errors as the last return value — callers
// must check them. This pattern replaces try/catch: if err != nil.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Defaults — these apply when neither file nor env provides a value
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 20000)
	v.SetDefault("upload.max_bytes", 10*1024*1024)
	v.SetDefault("image.max_dimension", 512)
	v.SetDefault("image.thumbnail_dimension", 128)
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("log.level", "info")

	// Read from YAML config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Read config file (ignore "not found" — defaults + env are enough)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Environment variables override everything.
	// WINE_ prefix + nested keys: WINE_SERVER_PORT=9090 → server.port
	v.SetEnvPrefix("WINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// database_path has no default, and AutomaticEnv only resolves keys
	// viper already knows about — bind it explicitly so
	// WINE_STORAGE_DATABASE_PATH reaches Unmarshal.
	if err := v.BindEnv("storage.database_path"); err != nil {
		return nil, fmt.Errorf("binding database path env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Storage.DatabasePath == "" {
		return nil, fmt.Errorf("storage.database_path is required (set WINE_STORAGE_DATABASE_PATH)")
	}

	return &cfg, nil
}

// Address returns the listen address string like "0.0.0.0:20000".
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
