// Package config loads tool configuration from files and environment.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	// Global settings
	Format  string `mapstructure:"format"`
	Quiet   bool   `mapstructure:"quiet"`
	Verbose bool   `mapstructure:"verbose"`

	// Default values for commands
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

// DefaultsConfig holds default values for the run/filter commands. A zero
// timeout disables that policy.
type DefaultsConfig struct {
	OverallTimeout     string `mapstructure:"overall_timeout"`
	IdleTimeout        string `mapstructure:"idle_timeout"`
	FirstOutputTimeout string `mapstructure:"first_output_timeout"`

	BeforeLines  int    `mapstructure:"before_lines"`
	AfterLines   int    `mapstructure:"after_lines"`
	AfterSeconds string `mapstructure:"after_seconds"`

	MaxRepeat int    `mapstructure:"max_repeat"`
	KillGrace string `mapstructure:"kill_grace"`

	ExcludePattern string `mapstructure:"exclude_pattern"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Format: "text",
		Defaults: DefaultsConfig{
			AfterLines:   5,
			AfterSeconds: "2s",
			MaxRepeat:    3,
			KillGrace:    "5s",
		},
	}
}

// Load loads configuration from files and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("earlyexit")
	v.SetConfigType("yaml")

	// Config paths, lowest precedence first.
	v.AddConfigPath("/etc/earlyexit/")
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "earlyexit"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(".earlyexit")
	}
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("EARLYEXIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.BindEnv("format", "EARLYEXIT_FORMAT")
	v.BindEnv("quiet", "EARLYEXIT_QUIET")
	v.BindEnv("verbose", "EARLYEXIT_VERBOSE")

	cfg := Default()
	v.SetDefault("format", cfg.Format)
	v.SetDefault("quiet", cfg.Quiet)
	v.SetDefault("verbose", cfg.Verbose)
	v.SetDefault("defaults.after_lines", cfg.Defaults.AfterLines)
	v.SetDefault("defaults.after_seconds", cfg.Defaults.AfterSeconds)
	v.SetDefault("defaults.max_repeat", cfg.Defaults.MaxRepeat)
	v.SetDefault("defaults.kill_grace", cfg.Defaults.KillGrace)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found; use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
