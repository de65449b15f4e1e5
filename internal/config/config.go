package config

import "time"

// Config holds all application configuration.
// It is built once at startup and treated as read-only afterwards.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Auth   AuthConfig   `mapstructure:"auth"`
	OpenAI OpenAIConfig `mapstructure:"openai"`
	Jira   JiraConfig   `mapstructure:"jira"`
	Tasks  TasksConfig  `mapstructure:"tasks"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes"`
	CORSOrigins       []string      `mapstructure:"cors_origins"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuthConfig holds the shared secret webhook callers must present.
type AuthConfig struct {
	APIToken string `mapstructure:"api_token"`
}

// OpenAIConfig configures the chat completion provider.
type OpenAIConfig struct {
	Token       string        `mapstructure:"token"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
}

// JiraConfig configures the Jira REST client.
type JiraConfig struct {
	URL     string        `mapstructure:"url"`
	Email   string        `mapstructure:"email"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// TasksConfig configures background task execution.
type TasksConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	EventBuffer     int           `mapstructure:"event_buffer"`
}

// Redacted returns a copy with credentials masked, safe to print or log.
func (c Config) Redacted() Config {
	c.Auth.APIToken = mask(c.Auth.APIToken)
	c.OpenAI.Token = mask(c.OpenAI.Token)
	c.Jira.Token = mask(c.Jira.Token)
	c.Server.CORSOrigins = append([]string(nil), c.Server.CORSOrigins...)
	return c
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
