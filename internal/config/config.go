// Package config loads maestro's configuration from an optional YAML file
// and MAESTRO_* environment variables. Everything has a sensible default;
// a missing config file is not an error.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full configuration tree.
type Config struct {
	DB      DBConfig      `mapstructure:"db"`
	Session SessionConfig `mapstructure:"session"`
	Review  ReviewConfig  `mapstructure:"review"`
	Streak  StreakConfig  `mapstructure:"streak"`
}

type DBConfig struct {
	// Path to the SQLite file. Empty means the XDG default.
	Path string `mapstructure:"path"`
}

type SessionConfig struct {
	MinMinutes int `mapstructure:"min_minutes"`
	MaxMinutes int `mapstructure:"max_minutes"`
	BatchSize  int `mapstructure:"batch_size"`
}

type ReviewConfig struct {
	// PassThreshold is the quality rating (0-5) at or above which a review
	// marks an exercise completed.
	PassThreshold int `mapstructure:"pass_threshold"`
}

type StreakConfig struct {
	// Timezone names the zone whose midnight separates practice days.
	// "Local" uses the system zone.
	Timezone string `mapstructure:"timezone"`
}

// Load reads configuration from path. If path is empty the default search
// locations are used ($XDG_CONFIG_HOME/maestro, ~/.config/maestro).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("db.path", "")
	v.SetDefault("session.min_minutes", 15)
	v.SetDefault("session.max_minutes", 30)
	v.SetDefault("session.batch_size", 5)
	v.SetDefault("review.pass_threshold", 3)
	v.SetDefault("streak.timezone", "Local")

	v.SetEnvPrefix("MAESTRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$XDG_CONFIG_HOME/maestro")
		v.AddConfigPath("$HOME/.config/maestro")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configured values for internal consistency.
func (c *Config) Validate() error {
	if c.Session.MinMinutes < 1 || c.Session.MaxMinutes < c.Session.MinMinutes {
		return fmt.Errorf("invalid session duration bounds %d-%d",
			c.Session.MinMinutes, c.Session.MaxMinutes)
	}
	if c.Session.BatchSize < 1 {
		return fmt.Errorf("invalid session batch size %d", c.Session.BatchSize)
	}
	if c.Review.PassThreshold < 0 || c.Review.PassThreshold > 5 {
		return fmt.Errorf("invalid pass threshold %d", c.Review.PassThreshold)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured streak time zone.
func (c *Config) Location() (*time.Location, error) {
	name := c.Streak.Timezone
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid streak timezone %q: %w", name, err)
	}
	return loc, nil
}
