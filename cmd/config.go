package cmd

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds settings that can override CLI flag defaults, loaded via
// Viper. An RTARC_-prefixed environment variable takes precedence over
// the config file, which takes precedence over the built-in defaults.
type Config struct {
	Verbose bool `mapstructure:"verbose"`
}

// loadConfig reads rtarc-config.{yaml,...} from the working directory, the
// user's home config dir, or /etc/rtarc, falling back to defaults when no
// file is present.
func loadConfig() (*Config, error) {
	viper.SetConfigName("rtarc-config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.rtarc")
	viper.AddConfigPath("/etc/rtarc")

	viper.SetDefault("verbose", false)

	viper.SetEnvPrefix("RTARC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("cmd: read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cmd: unmarshal config: %w", err)
	}
	return &cfg, nil
}
