package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/hugo-lorenzo-mato/jira-refiner/internal/config"
	"github.com/hugo-lorenzo-mato/jira-refiner/internal/logging"
)

// loadConfig loads and validates configuration using the global viper
// instance, which carries the CLI flag bindings.
func loadConfig() (*config.Config, []string, error) {
	loader := config.NewLoaderWithViper(viper.GetViper())
	if cfgFile != "" {
		loader.WithConfigFile(cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	v := config.NewValidator()
	if err := v.Validate(cfg); err != nil {
		return nil, nil, err
	}
	return cfg, v.Warnings(), nil
}

// newLogger builds the process logger. Configured credentials are redacted
// verbatim on top of the default patterns.
func newLogger(cfg *config.Config) *logging.Logger {
	return logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
		Secrets: []string{
			cfg.Auth.APIToken,
			cfg.OpenAI.Token,
			cfg.Jira.Token,
		},
	})
}
