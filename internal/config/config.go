package config

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config represents the bottle CLI configuration.
type Config struct {
	CacheRoot         string   `mapstructure:"cache_root"`
	TimeoutMultiplier float64  `mapstructure:"timeout_multiplier"`
	Managers          []string `mapstructure:"managers"`       // explicit list; empty means auto-detect
	SkipDetection     bool     `mapstructure:"skip_detection"` // mount nothing automatically
	ExtraPaths        []string `mapstructure:"extra_paths"`    // prepended to PATH in clean mode
	EnvMode           string   `mapstructure:"env_mode"`       // "clean" or "standard"
	PoolSize          int      `mapstructure:"pool_size"`
}

// Load loads the configuration from ~/.bottle/config.yaml or returns defaults.
func Load() (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	configDir := filepath.Join(home, ".bottle")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)

	setDefaults(home)

	// Try to read config file, but don't fail if it doesn't exist
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Expand ~ in configured paths
	if expanded, err := homedir.Expand(cfg.CacheRoot); err == nil {
		cfg.CacheRoot = expanded
	}
	for i, p := range cfg.ExtraPaths {
		if expanded, err := homedir.Expand(p); err == nil {
			cfg.ExtraPaths[i] = expanded
		}
	}

	return &cfg, nil
}

func setDefaults(home string) {
	viper.SetDefault("cache_root", filepath.Join(home, ".bottle", "cache"))
	viper.SetDefault("timeout_multiplier", 1.0)
	viper.SetDefault("managers", []string{})
	viper.SetDefault("skip_detection", false)
	viper.SetDefault("extra_paths", []string{})
	viper.SetDefault("env_mode", "standard")
	viper.SetDefault("pool_size", 8)
}

// ConfigDir returns the bottle configuration directory path.
func ConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".bottle"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	configDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(configDir, 0o755)
}
