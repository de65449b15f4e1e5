package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// DefaultEnvPrefix prefixes environment overrides for every key (REFINER_JIRA_URL, ...).
const DefaultEnvPrefix = "REFINER"

// legacyEnv maps config keys to the bare variable names deployments already use.
var legacyEnv = map[string]string{
	"auth.api_token": "API_TOKEN",
	"openai.token":   "OPEN_AI_TOKEN",
	"jira.url":       "JIRA_URL",
	"jira.email":     "JIRA_EMAIL",
	"jira.token":     "JIRA_TOKEN",
}

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
	dotEnv     string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v:         viper.New(),
		envPrefix: DefaultEnvPrefix,
		dotEnv:    ".env",
	}
}

// NewLoaderWithViper creates a loader using an existing viper instance.
// This allows integration with CLI flag bindings.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	l := NewLoader()
	l.v = v
	return l
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithDotEnv sets the dotenv file to read; an empty path disables it.
func (l *Loader) WithDotEnv(path string) *Loader {
	l.dotEnv = path
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (set via viper.BindPFlag)
// 2. Environment variables (REFINER_* and the legacy bare names)
// 3. .env file in the working directory (never overrides the real environment)
// 4. Project config (.refiner.yaml in current directory)
// 5. User config (~/.config/refiner/config.yaml)
// 6. Defaults
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	if l.dotEnv != "" {
		if err := loadDotEnv(l.dotEnv); err != nil {
			return nil, err
		}
	}

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
	for key, name := range legacyEnv {
		prefixed := l.envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := l.v.BindEnv(key, prefixed, name); err != nil {
			return nil, fmt.Errorf("binding %s: %w", name, err)
		}
	}

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName(".refiner")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		if dir, err := UserConfigDir(); err == nil {
			l.v.AddConfigPath(dir)
		}
	}

	// Read config file (ignore not found)
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("server.host", "0.0.0.0")
	l.v.SetDefault("server.port", 8000)
	l.v.SetDefault("server.read_header_timeout", "10s")
	l.v.SetDefault("server.shutdown_timeout", "10s")
	l.v.SetDefault("server.max_body_bytes", 1<<20)
	l.v.SetDefault("server.cors_origins", []string{})

	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")

	l.v.SetDefault("auth.api_token", "")

	l.v.SetDefault("openai.token", "")
	l.v.SetDefault("openai.base_url", "")
	l.v.SetDefault("openai.model", "gpt-3.5-turbo")
	l.v.SetDefault("openai.temperature", 0.5)
	l.v.SetDefault("openai.timeout", "2m")
	l.v.SetDefault("openai.max_retries", 0)

	l.v.SetDefault("jira.url", "")
	l.v.SetDefault("jira.email", "")
	l.v.SetDefault("jira.token", "")
	l.v.SetDefault("jira.timeout", "30s")

	l.v.SetDefault("tasks.timeout", "5m")
	l.v.SetDefault("tasks.shutdown_timeout", "30s")
	l.v.SetDefault("tasks.event_buffer", 100)
}

// ConfigFile returns the config file path if one was used.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// loadDotEnv exports variables from a dotenv file that are not already set.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("checking %s: %w", path, err)
	}

	dv := viper.New()
	dv.SetConfigFile(path)
	dv.SetConfigType("env")
	if err := dv.ReadInConfig(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	for _, key := range dv.AllKeys() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, dv.GetString(key)); err != nil {
			return fmt.Errorf("exporting %s: %w", name, err)
		}
	}
	return nil
}
