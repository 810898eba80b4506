// Package openrouter implements the chat-completion provider client against
// the OpenRouter OpenAI-compatible API.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/BaSui01/aiplatform/config"
	"github.com/BaSui01/aiplatform/types"
	"go.uber.org/zap"
)

// Client calls the chat-completion endpoint of an OpenAI-compatible provider.
type Client struct {
	cfg    config.ChatProviderConfig
	client *http.Client
	logger *zap.Logger
}

// NewClient creates a new chat provider client.
func NewClient(cfg config.ChatProviderConfig, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("provider", "openrouter")),
	}
}

func (c *Client) Name() string { return "openrouter" }

// OpenAI-compatible wire types
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature,omitempty"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	FinishReason string      `json:"finish_reason"`
	Message      chatMessage `json:"message"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// Completion sends one user prompt and returns the assistant reply text.
// model must already be resolved against the catalog; empty falls back to the
// configured default model.
func (c *Client) Completion(ctx context.Context, prompt, model string) (string, error) {
	if model == "" {
		model = c.cfg.DefaultModel
	}

	body := chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}
	payload, _ := json.Marshal(body)

	endpoint := fmt.Sprintf("%s/chat/completions", strings.TrimRight(c.cfg.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", types.NewError(types.ErrProvider, "failed to build chat request").
			WithCause(err).WithProvider(c.Name())
	}
	c.buildHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if isTimeout(ctx, err) {
			return "", types.NewError(types.ErrTimeout, "chat provider timed out").
				WithCause(err).WithHTTPStatus(http.StatusGatewayTimeout).WithProvider(c.Name())
		}
		return "", types.NewError(types.ErrProvider, "chat request failed").
			WithCause(err).WithHTTPStatus(http.StatusBadGateway).WithRetryable(true).WithProvider(c.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := readErrMsg(resp.Body)
		return "", mapError(resp.StatusCode, msg, c.Name())
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", types.NewError(types.ErrProtocol, "failed to decode chat response").
			WithCause(err).WithProvider(c.Name())
	}
	if len(cr.Choices) == 0 {
		return "", types.NewError(types.ErrProtocol, "chat response contains no choices").
			WithProvider(c.Name())
	}

	c.logger.Debug("chat completion",
		zap.String("model", model),
		zap.String("finish_reason", cr.Choices[0].FinishReason),
	)
	return cr.Choices[0].Message.Content, nil
}

// HealthCheck issues a minimal completion to verify the upstream answers.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.Completion(ctx, "Hello", "")
	return err
}

func (c *Client) buildHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func mapError(status int, msg string, provider string) *types.Error {
	switch status {
	case http.StatusUnauthorized:
		return types.NewError(types.ErrUnauthorized, msg).WithHTTPStatus(status).WithProvider(provider)
	case http.StatusForbidden:
		return types.NewError(types.ErrForbidden, msg).WithHTTPStatus(status).WithProvider(provider)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return types.NewError(types.ErrProvider, msg).WithHTTPStatus(status).WithRetryable(true).WithProvider(provider)
	default:
		return types.NewError(types.ErrProvider, msg).WithHTTPStatus(status).WithRetryable(status >= 500).WithProvider(provider)
	}
}

func readErrMsg(body io.Reader) string {
	data, _ := io.ReadAll(body)
	var er errorResponse
	if err := json.Unmarshal(data, &er); err == nil && er.Error.Message != "" {
		return er.Error.Message
	}
	return string(data)
}
