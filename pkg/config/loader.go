// Package config provides configuration loading and validation utilities.
package config

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from the environment-specific YAML file and
// environment variables, validates it, and returns the resulting Config
// together with the viper instance for watching.
func Load() (*Config, *viper.Viper, error) {
	// Missing env files are fine outside local development.
	_ = godotenv.Load(".env.local", ".env")

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()
	v.SetConfigFile(fmt.Sprintf("./configs/%s.yaml", env))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AppEnv = env

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.mode", "polling")
	v.SetDefault("bot.timeout", "10s")
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("loyalty.welcome_bonus", 100)
	v.SetDefault("limits.enabled", true)
	v.SetDefault("limits.per_chat", 20)
	v.SetDefault("limits.per_chat_window", "1m")
}

// WatchLoyalty keeps a live view of the loyalty section, re-reading the
// config file on change so operators can tune the welcome bonus without a
// restart. The returned getter is safe for concurrent use.
func WatchLoyalty(v *viper.Viper, initial LoyaltyConfig) func() LoyaltyConfig {
	var current atomic.Value
	current.Store(initial)

	v.OnConfigChange(func(_ fsnotify.Event) {
		var next LoyaltyConfig
		if err := v.UnmarshalKey("loyalty", &next); err != nil {
			return
		}
		if next.WelcomeBonus < 0 {
			return
		}
		current.Store(next)
	})
	v.WatchConfig()

	return func() LoyaltyConfig {
		return current.Load().(LoyaltyConfig)
	}
}
