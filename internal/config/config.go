package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all vmctl settings.
type Config struct {
	// Home is the directory holding one subdirectory per VM.
	Home string `mapstructure:"home"`

	// StopTimeout is how long a guest gets to shut down after a stop
	// request before the supervisor forces it off.
	StopTimeout time.Duration `mapstructure:"stop_timeout"`

	// StopPollAttempts and StopPollInterval bound how long `vmctl stop`
	// waits for the supervisor to exit.
	StopPollAttempts int           `mapstructure:"stop_poll_attempts"`
	StopPollInterval time.Duration `mapstructure:"stop_poll_interval"`

	// LogLevel is a logrus level name.
	LogLevel string `mapstructure:"log_level"`

	// DefaultDiskSizeGB is the disk size `vmctl create` uses without --disk-size.
	DefaultDiskSizeGB uint64 `mapstructure:"default_disk_size_gb"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	paths, err := GetPaths()
	if err != nil {
		// Fallback if we can't determine home directory
		paths = &Paths{DataDir: "/tmp/vmctl"}
	}

	return &Config{
		Home:              paths.DataDir,
		StopTimeout:       15 * time.Second,
		StopPollAttempts:  20,
		StopPollInterval:  time.Second,
		LogLevel:          "info",
		DefaultDiskSizeGB: 50,
	}
}

// Global holds the loaded configuration.
var Global *Config

// Load reads configuration from file, environment, and defaults into Global.
func Load() error {
	paths, err := GetPaths()
	if err != nil {
		return fmt.Errorf("failed to determine paths: %w", err)
	}

	cfg, err := load(viper.GetViper(), paths.DataDir, paths.ConfigDir)
	if err != nil {
		return err
	}
	Global = cfg
	return nil
}

func load(v *viper.Viper, configDirs ...string) (*Config, error) {
	defaults := DefaultConfig()
	v.SetDefault("home", defaults.Home)
	v.SetDefault("stop_timeout", defaults.StopTimeout)
	v.SetDefault("stop_poll_attempts", defaults.StopPollAttempts)
	v.SetDefault("stop_poll_interval", defaults.StopPollInterval)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("default_disk_size_gb", defaults.DefaultDiskSizeGB)

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range configDirs {
		v.AddConfigPath(dir)
	}

	// Environment variable support: VMCTL_HOME, VMCTL_STOP_TIMEOUT, etc.
	v.SetEnvPrefix("VMCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - not an error if missing)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errors.New(FormatValidationErrors(errs))
	}
	return cfg, nil
}

// ConfigFileUsed returns the path of the config file being used, if any.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
