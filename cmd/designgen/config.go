package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/ButterFlowQ/DesignGen/internal/config"
)

// loadConfig reads and validates the config file. A missing file is fine;
// defaults cover everything but the provider API key.
func loadConfig() (config.Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return config.Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		settings := viper.AllSettings()
		// The bound --config flag is not part of the file schema.
		delete(settings, "config")
		if err := config.ValidateSettings(settings); err != nil {
			return config.Config{}, err
		}
	}

	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return config.Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
