package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
//
// Malformed values are errors. Missing credentials are only warnings: the
// relay starts without them and the affected call fails when it is attempted.
type Validator struct {
	errors   ValidationErrors
	warnings []string
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{errors: make(ValidationErrors, 0)}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateServer(&cfg.Server)
	v.validateLog(&cfg.Log)
	v.validateAuth(&cfg.Auth)
	v.validateOpenAI(&cfg.OpenAI)
	v.validateJira(&cfg.Jira)
	v.validateTasks(&cfg.Tasks)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

// Warnings returns the non-fatal findings of the last Validate call.
func (v *Validator) Warnings() []string {
	return v.warnings
}

func (v *Validator) addError(field string, value interface{}, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Value: value, Message: message})
}

func (v *Validator) addWarning(format string, args ...interface{}) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *Validator) validateServer(cfg *ServerConfig) {
	if cfg.Port < 1 || cfg.Port > 65535 {
		v.addError("server.port", cfg.Port, "must be between 1 and 65535")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		v.addError("server.read_header_timeout", cfg.ReadHeaderTimeout, "must be positive")
	}
	if cfg.ShutdownTimeout <= 0 {
		v.addError("server.shutdown_timeout", cfg.ShutdownTimeout, "must be positive")
	}
	if cfg.MaxBodyBytes <= 0 {
		v.addError("server.max_body_bytes", cfg.MaxBodyBytes, "must be positive")
	}
}

func (v *Validator) validateLog(cfg *LogConfig) {
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}
	switch cfg.Format {
	case "auto", "text", "json":
	default:
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json")
	}
}

func (v *Validator) validateAuth(cfg *AuthConfig) {
	if cfg.APIToken == "" {
		v.addWarning("auth.api_token (API_TOKEN) is not set; every intake request will be rejected")
	}
}

func (v *Validator) validateOpenAI(cfg *OpenAIConfig) {
	if cfg.Token == "" {
		v.addWarning("openai.token (OPEN_AI_TOKEN) is not set; refinement calls will fail")
	}
	if cfg.Model == "" {
		v.addError("openai.model", cfg.Model, "required")
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		v.addError("openai.temperature", cfg.Temperature, "must be between 0 and 2")
	}
	if cfg.Timeout <= 0 {
		v.addError("openai.timeout", cfg.Timeout, "must be positive")
	}
	if cfg.MaxRetries < 0 {
		v.addError("openai.max_retries", cfg.MaxRetries, "must be >= 0")
	}
	if cfg.BaseURL != "" {
		v.validateURL("openai.base_url", cfg.BaseURL)
	}
}

func (v *Validator) validateJira(cfg *JiraConfig) {
	if cfg.URL == "" {
		v.addWarning("jira.url (JIRA_URL) is not set; issue updates will fail")
	} else {
		v.validateURL("jira.url", cfg.URL)
	}
	if cfg.Email == "" || cfg.Token == "" {
		v.addWarning("jira.email/jira.token (JIRA_EMAIL/JIRA_TOKEN) are not set; issue updates will fail")
	}
	if cfg.Timeout <= 0 {
		v.addError("jira.timeout", cfg.Timeout, "must be positive")
	}
}

func (v *Validator) validateTasks(cfg *TasksConfig) {
	if cfg.Timeout <= 0 {
		v.addError("tasks.timeout", cfg.Timeout, "must be positive")
	}
	if cfg.ShutdownTimeout <= 0 {
		v.addError("tasks.shutdown_timeout", cfg.ShutdownTimeout, "must be positive")
	}
	if cfg.EventBuffer <= 0 {
		v.addError("tasks.event_buffer", cfg.EventBuffer, "must be positive")
	}
}

func (v *Validator) validateURL(field, raw string) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		v.addError(field, raw, "must be an absolute http(s) URL")
	}
}

// Validate validates a configuration.
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}
