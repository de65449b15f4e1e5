// Package openai implements core.Refiner on top of the OpenAI chat
// completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"github.com/hugo-lorenzo-mato/jira-refiner/internal/core"
	"github.com/hugo-lorenzo-mato/jira-refiner/internal/logging"
)

// Config configures the client.
type Config struct {
	Token       string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
	// SystemPrompt is sent as the only system message of every request.
	SystemPrompt string
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client asks the model to refine an issue.
type Client struct {
	cli    openai.Client
	cfg    Config
	logger *logging.Logger
}

// New creates a client. A missing token is not an error here; the API
// rejects the call and the failure is reported per request.
func New(cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.Token),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Client{
		cli:    openai.NewClient(opts...),
		cfg:    cfg,
		logger: logger,
	}
}

// Question renders the user message for an issue.
func Question(summary, description string) string {
	return fmt.Sprintf("issue: %s, %s", summary, description)
}

// Refine implements core.Refiner.
func (c *Client) Refine(ctx context.Context, summary, description string) (core.Refinement, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.cfg.SystemPrompt),
			openai.UserMessage(Question(summary, description)),
		},
		Temperature: openai.Float(c.cfg.Temperature),
	}

	start := time.Now()
	resp, err := c.cli.Chat.Completions.New(ctx, params)
	if err != nil {
		classified := classify(err)
		c.logger.Warn("chat completion failed",
			"model", c.cfg.Model,
			"category", core.GetCategory(classified),
			"error", err,
		)
		return core.Refinement{}, classified
	}
	if len(resp.Choices) == 0 {
		return core.Refinement{}, core.ErrExternal(core.CodeEmptyCompletion, "model returned no choices")
	}

	choice := resp.Choices[0]
	c.logger.Debug("chat completion finished",
		"model", resp.Model,
		"finish_reason", choice.FinishReason,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"duration", time.Since(start),
	)

	return core.Refinement{
		Text:         choice.Message.Content,
		Model:        resp.Model,
		FinishReason: choice.FinishReason,
	}, nil
}

func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := fmt.Sprintf("chat completion returned HTTP %d", apiErr.StatusCode)
		if apiErr.Message != "" {
			msg += ": " + apiErr.Message
		}
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			return core.ErrAuth(core.CodeUpstreamAuth, msg).WithCause(err)
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return core.ErrRateLimit(msg).WithCause(err)
		case apiErr.StatusCode == http.StatusRequestTimeout || apiErr.StatusCode == http.StatusGatewayTimeout:
			return core.ErrTimeout(msg).WithCause(err)
		default:
			e := core.ErrExternal(core.CodeUpstreamStatus, msg).WithCause(err)
			e.Retryable = apiErr.StatusCode >= 500
			return e.WithDetail("status", apiErr.StatusCode)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return core.ErrTimeout("chat completion timed out").WithCause(err)
	}
	return core.ErrNetwork(fmt.Sprintf("chat completion request failed: %v", err)).WithCause(err)
}
