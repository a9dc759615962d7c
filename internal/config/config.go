// Package config loads harness settings from an optional todoracle.yaml,
// TODORACLE_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	fileName  = "todoracle"
	fileType  = "yaml"
	envPrefix = "TODORACLE"
)

// Config keys.
const (
	KeyDriver        = "driver"
	KeyURL           = "url"
	KeyHeadless      = "headless"
	KeyStorageKey    = "storage_key"
	KeyProfile       = "profile"
	KeyTimeout       = "timeout"
	KeySettleTimeout = "settle_timeout"
	KeyPollInterval  = "poll_interval"
	KeyDB            = "db"
	KeyLogLevel      = "log_level"
	KeyLogFile       = "log_file"
	KeyParallel      = "parallel"
)

// Drivers.
const (
	DriverMemory   = "memory"
	DriverChromedp = "chromedp"
	DriverRod      = "rod"
)

// Drivers lists the accepted values of the driver key.
var Drivers = []string{DriverMemory, DriverChromedp, DriverRod}

// Config is the resolved harness configuration.
type Config struct {
	Driver        string        `mapstructure:"driver"`
	URL           string        `mapstructure:"url"`
	Headless      bool          `mapstructure:"headless"`
	StorageKey    string        `mapstructure:"storage_key"`
	Profile       string        `mapstructure:"profile"`
	Timeout       time.Duration `mapstructure:"timeout"`
	SettleTimeout time.Duration `mapstructure:"settle_timeout"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	DB            string        `mapstructure:"db"`
	LogLevel      string        `mapstructure:"log_level"`
	LogFile       string        `mapstructure:"log_file"`
	Parallel      int           `mapstructure:"parallel"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyDriver, DriverMemory)
	v.SetDefault(KeyURL, "https://demo.playwright.dev/todomvc")
	v.SetDefault(KeyHeadless, true)
	v.SetDefault(KeyStorageKey, "react-todos")
	v.SetDefault(KeyProfile, "")
	v.SetDefault(KeyTimeout, 30*time.Second)
	v.SetDefault(KeySettleTimeout, 5*time.Second)
	v.SetDefault(KeyPollInterval, 50*time.Millisecond)
	v.SetDefault(KeyDB, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyParallel, 1)
}

// Load resolves the configuration. An explicit path must exist; without one,
// todoracle.yaml is looked up in the working directory and a missing file is
// not an error. Flags that were set on the command line override the file and
// the environment; flag names use dashes for the underscored keys.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(fileName)
		v.SetConfigType(fileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for _, key := range []string{
			KeyDriver, KeyURL, KeyHeadless, KeyStorageKey, KeyProfile,
			KeyTimeout, KeySettleTimeout, KeyPollInterval, KeyDB,
			KeyLogLevel, KeyLogFile, KeyParallel,
		} {
			if f := flags.Lookup(strings.ReplaceAll(key, "_", "-")); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	known := false
	for _, d := range Drivers {
		known = known || c.Driver == d
	}
	if !known {
		return fmt.Errorf("invalid driver %q: must be one of %v", c.Driver, Drivers)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.SettleTimeout < 0 {
		return fmt.Errorf("settle_timeout must not be negative, got %s", c.SettleTimeout)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.Parallel < 1 {
		return fmt.Errorf("parallel must be at least 1, got %d", c.Parallel)
	}
	if c.Driver != DriverMemory && c.URL == "" {
		return fmt.Errorf("url is required for the %s driver", c.Driver)
	}
	return nil
}
