package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// AtomicWrite writes data to a file atomically, keeping the permissions of an
// existing file and defaulting to 0600 for new ones.
func AtomicWrite(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	perm := os.FileMode(0o600)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	return renameio.WriteFile(path, data, perm)
}

// WriteDefault writes DefaultConfigYAML to path. It refuses to replace an
// existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration already exists at %s, use --force to overwrite", path)
	}
	if err := AtomicWrite(path, []byte(DefaultConfigYAML)); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// MarshalYAML renders cfg with credentials masked. Durations are written in
// their string form so the output can be fed back to the loader.
func MarshalYAML(cfg *Config) ([]byte, error) {
	r := cfg.Redacted()
	settings := map[string]interface{}{
		"server": map[string]interface{}{
			"host":                r.Server.Host,
			"port":                r.Server.Port,
			"read_header_timeout": r.Server.ReadHeaderTimeout.String(),
			"shutdown_timeout":    r.Server.ShutdownTimeout.String(),
			"max_body_bytes":      r.Server.MaxBodyBytes,
			"cors_origins":        r.Server.CORSOrigins,
		},
		"log": map[string]interface{}{
			"level":  r.Log.Level,
			"format": r.Log.Format,
		},
		"auth": map[string]interface{}{
			"api_token": r.Auth.APIToken,
		},
		"openai": map[string]interface{}{
			"token":       r.OpenAI.Token,
			"base_url":    r.OpenAI.BaseURL,
			"model":       r.OpenAI.Model,
			"temperature": r.OpenAI.Temperature,
			"timeout":     r.OpenAI.Timeout.String(),
			"max_retries": r.OpenAI.MaxRetries,
		},
		"jira": map[string]interface{}{
			"url":     r.Jira.URL,
			"email":   r.Jira.Email,
			"token":   r.Jira.Token,
			"timeout": r.Jira.Timeout.String(),
		},
		"tasks": map[string]interface{}{
			"timeout":          r.Tasks.Timeout.String(),
			"shutdown_timeout": r.Tasks.ShutdownTimeout.String(),
			"event_buffer":     r.Tasks.EventBuffer,
		},
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}
