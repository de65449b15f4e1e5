package logging

import (
	"regexp"
)

// Sanitizer redacts credentials from log output. Webhook payloads, Jira errors
// and SDK errors can all echo back the secrets the relay holds.
type Sanitizer struct {
	patterns []*regexp.Regexp
	redacted string
}

// NewSanitizer creates a sanitizer with default patterns.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		patterns: defaultPatterns(),
		redacted: "[REDACTED]",
	}
}

func defaultPatterns() []*regexp.Regexp {
	patterns := []string{
		// OpenAI keys, including project and service-account keys
		`sk-[A-Za-z0-9_-]{20,}`,
		// Atlassian API tokens
		`ATATT[A-Za-z0-9_=+/-]{20,}`,
		// Authorization header values
		`(?i)authorization["'\s:=]+(bearer|basic)\s+[A-Za-z0-9._~+/=-]+`,
		// Bare credentials must look encoded (a digit or symbol inside, or
		// base64 padding) so prose like "Basic authentication" survives.
		`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]{3,}[0-9~+/=][A-Za-z0-9._~+/=-]{3,}`,
		`(?i)\bbasic\s+[A-Za-z0-9+/]{3,}[0-9+/][A-Za-z0-9+/]{3,}={0,2}`,
		`(?i)\bbasic\s+[A-Za-z0-9+/]{8,}={1,2}`,
		// key=value style assignments
		`(?i)api[_-]?(key|token)["'\s:=]+[A-Za-z0-9._-]{8,}`,
		`(?i)open[_-]?ai[_-]?token["'\s:=]+[A-Za-z0-9._-]{8,}`,
		`(?i)jira[_-]?token["'\s:=]+[A-Za-z0-9._=-]{8,}`,
		`(?i)password["'\s:=]+[^\s"']{8,}`,
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}

// Sanitize redacts sensitive information from a string.
func (s *Sanitizer) Sanitize(input string) string {
	result := input
	for _, pattern := range s.patterns {
		result = pattern.ReplaceAllString(result, s.redacted)
	}
	return result
}

// SanitizeMap redacts string values in a decoded JSON document.
func (s *Sanitizer) SanitizeMap(m map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(m))
	for k, v := range m {
		result[k] = s.sanitizeValue(v)
	}
	return result
}

func (s *Sanitizer) sanitizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		return s.Sanitize(val)
	case map[string]interface{}:
		return s.SanitizeMap(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = s.sanitizeValue(item)
		}
		return out
	default:
		return v
	}
}

// AddPattern adds a custom pattern.
func (s *Sanitizer) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	s.patterns = append(s.patterns, re)
	return nil
}

// AddSecret redacts an exact value, such as a configured token.
func (s *Sanitizer) AddSecret(secret string) {
	if len(secret) < 4 {
		return
	}
	s.patterns = append(s.patterns, regexp.MustCompile(regexp.QuoteMeta(secret)))
}
