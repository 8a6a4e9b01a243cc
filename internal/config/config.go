// Package config loads configuration for the anchor binaries from a config
// file or environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the settings shared by the client and the emulator server.
type Config struct {
	// BaseURL is the backend the client talks to.
	BaseURL string `mapstructure:"ANCHOR_BASE_URL"`
	// UserID identifies the client's user. The hosted platform derives this
	// from its auth token; locally it is configured directly.
	UserID string `mapstructure:"ANCHOR_USER_ID"`
	// CachePath is where the client keeps its offline snapshot cache.
	CachePath string `mapstructure:"ANCHOR_CACHE_PATH"`
	// ListenAddr is the emulator server's bind address.
	ListenAddr string `mapstructure:"ANCHOR_LISTEN_ADDR"`
	// DatabaseDSN is the emulator server's Postgres connection string.
	DatabaseDSN string `mapstructure:"ANCHOR_DATABASE_DSN"`
	// LogLevel selects the zap level: debug, info, warn, error.
	LogLevel string `mapstructure:"ANCHOR_LOG_LEVEL"`
}

// Load reads configuration from ./configs/config.yaml (if present) and the
// environment. Environment variables win.
func Load(path string) (Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		// No file; environment variables may still cover everything.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.CachePath == "" {
		cfg.CachePath = "./anchor_cache"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "localhost:8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}
