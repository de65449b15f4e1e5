// Package jira implements core.IssueTracker against the Jira REST API v2.
package jira

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	jiralib "github.com/andygrunwald/go-jira"

	"github.com/hugo-lorenzo-mato/jira-refiner/internal/core"
	"github.com/hugo-lorenzo-mato/jira-refiner/internal/logging"
)

// maxErrorBody caps how much of an error response is kept in messages.
const maxErrorBody = 2048

// issueFields limits the fetch to what the relay reads.
const issueFields = "summary,description"

// Config configures the client.
type Config struct {
	URL     string
	Email   string
	Token   string
	Timeout time.Duration
	// HTTPClient overrides the transport, mainly for tests. Basic auth is
	// layered on top of its Transport.
	HTTPClient *http.Client
}

// Client talks to a single Jira site with basic auth.
type Client struct {
	jira    *jiralib.Client
	initErr error
	logger  *logging.Logger
}

// New creates a client. Configuration problems surface on the first call.
func New(cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Client{logger: logger}

	if strings.TrimSpace(cfg.URL) == "" {
		c.initErr = core.ErrValidation(core.CodeNotConfigured, "jira url is not configured")
		return c
	}

	tp := jiralib.BasicAuthTransport{
		Username: cfg.Email,
		Password: cfg.Token,
	}
	httpClient := tp.Client()
	if cfg.HTTPClient != nil {
		tp.Transport = cfg.HTTPClient.Transport
		httpClient.Timeout = cfg.HTTPClient.Timeout
	} else {
		httpClient.Timeout = cfg.Timeout
		if httpClient.Timeout <= 0 {
			httpClient.Timeout = 30 * time.Second
		}
	}

	jc, err := jiralib.NewClient(httpClient, cfg.URL)
	if err != nil {
		c.initErr = core.ErrValidation(core.CodeNotConfigured, "invalid jira url").WithCause(err)
		return c
	}
	c.jira = jc
	return c
}

// GetIssue fetches an issue by id or key.
func (c *Client) GetIssue(ctx context.Context, idOrKey string) (*core.TrackedIssue, error) {
	if c.initErr != nil {
		return nil, c.initErr
	}

	start := time.Now()
	issue, resp, err := c.jira.Issue.GetWithContext(ctx, idOrKey, &jiralib.GetQueryOptions{Fields: issueFields})
	c.logRequest(http.MethodGet, idOrKey, resp, start)
	if err != nil {
		return nil, classify(http.MethodGet, idOrKey, resp, err)
	}

	tracked := &core.TrackedIssue{ID: issue.ID, Key: issue.Key}
	if issue.Fields != nil {
		tracked.Summary = issue.Fields.Summary
		tracked.Description = issue.Fields.Description
	}
	return tracked, nil
}

// UpdateDescription overwrites the description field of an issue.
func (c *Client) UpdateDescription(ctx context.Context, idOrKey, description string) error {
	if c.initErr != nil {
		return c.initErr
	}

	data := map[string]interface{}{
		"fields": map[string]interface{}{
			"description": description,
		},
	}

	start := time.Now()
	resp, err := c.jira.Issue.UpdateIssueWithContext(ctx, idOrKey, data)
	c.logRequest(http.MethodPut, idOrKey, resp, start)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return classify(http.MethodPut, idOrKey, resp, err)
	}
	return nil
}

func (c *Client) logRequest(method, idOrKey string, resp *jiralib.Response, start time.Time) {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.logger.Debug("jira request",
		"method", method,
		"issue_id", idOrKey,
		"status", status,
		"duration", time.Since(start),
	)
}

// classify turns a go-jira failure into a DomainError. A nil response means
// the request never completed.
func classify(method, idOrKey string, resp *jiralib.Response, err error) error {
	if resp == nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return core.ErrTimeout(fmt.Sprintf("jira %s timed out", method)).WithCause(err)
		}
		return core.ErrNetwork(fmt.Sprintf("jira %s failed: %v", method, err)).WithCause(err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return core.ErrExternal(core.CodeDecodeFailed, "decoding jira response").WithCause(err)
	}
	return statusError(resp.StatusCode, idOrKey, errorDetail(resp, err))
}

// errorDetail prefers the response body; go-jira has already drained it for
// some calls, in which case its own error text carries the messages.
func errorDetail(resp *jiralib.Response, err error) string {
	if resp.Body != nil {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr == nil && len(strings.TrimSpace(string(body))) > 0 {
			return strings.TrimSpace(string(body))
		}
	}
	detail := err.Error()
	if len(detail) > maxErrorBody {
		detail = detail[:maxErrorBody]
	}
	return detail
}

func statusError(status int, idOrKey, detail string) error {
	switch status {
	case http.StatusNotFound:
		return core.ErrNotFound("jira issue", idOrKey).WithDetail("body", detail)
	case http.StatusUnauthorized, http.StatusForbidden:
		return core.ErrAuth(core.CodeUpstreamAuth,
			fmt.Sprintf("jira rejected credentials (status %d)", status)).WithDetail("body", detail)
	case http.StatusTooManyRequests:
		return core.ErrRateLimit("jira rate limited the request").WithDetail("body", detail)
	default:
		e := core.ErrExternal(core.CodeUpstreamStatus,
			fmt.Sprintf("jira API error (status %d): %s", status, detail))
		e.Retryable = status >= 500
		return e.WithDetail("status", status)
	}
}
