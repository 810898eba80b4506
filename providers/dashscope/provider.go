// Package dashscope implements the image-generation provider client against
// the DashScope image synthesis API (wanx).
package dashscope

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

// DefaultModel is the image synthesis model used for every request.
const DefaultModel = "wanx-v1"

// SupportedSizes lists the image sizes the provider accepts.
var SupportedSizes = []string{"1024*1024", "720*1280", "768*1152", "1280*720"}

// SupportedStyles lists the style presets the provider accepts.
var SupportedStyles = []string{
	"<auto>", "<photography>", "<portrait>", "<3d cartoon>",
	"<anime>", "<oil painting>", "<watercolor>", "<sketch>",
	"<chinese painting>", "<flat illustration>",
}

// Client calls the DashScope image synthesis endpoint.
type Client struct {
	cfg    config.ImageProviderConfig
	client *http.Client
	logger *zap.Logger
}

// NewClient creates a new image provider client.
func NewClient(cfg config.ImageProviderConfig, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://dashscope.aliyuncs.com/api/v1"
	}
	if cfg.DefaultSize == "" {
		cfg.DefaultSize = "1024*1024"
	}
	if cfg.DefaultStyle == "" {
		cfg.DefaultStyle = "<auto>"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("provider", "dashscope")),
	}
}

func (c *Client) Name() string { return "dashscope" }

// ImageResult describes one generated image.
type ImageResult struct {
	URL       string    `json:"url"`
	Size      string    `json:"size"`
	Style     string    `json:"style"`
	CreatedAt time.Time `json:"createdAt"`
}

// DashScope wire types
type synthesisRequest struct {
	Model      string              `json:"model"`
	Input      synthesisInput      `json:"input"`
	Parameters synthesisParameters `json:"parameters"`
}

type synthesisInput struct {
	Prompt string `json:"prompt"`
}

type synthesisParameters struct {
	Style string `json:"style,omitempty"`
	Size  string `json:"size,omitempty"`
	N     int    `json:"n"`
}

type synthesisResponse struct {
	RequestID string          `json:"request_id"`
	Output    synthesisOutput `json:"output"`
	Code      string          `json:"code,omitempty"`
	Message   string          `json:"message,omitempty"`
}

type synthesisOutput struct {
	TaskStatus string `json:"task_status"`
	Results    []struct {
		URL string `json:"url"`
	} `json:"results"`
}

// Generate synthesizes one image for prompt. Empty size/style fall back to
// the configured defaults. The underlying call is synchronous end-to-end.
func (c *Client) Generate(ctx context.Context, prompt, size, style string) (*ImageResult, error) {
	if strings.TrimSpace(size) == "" {
		size = c.cfg.DefaultSize
	}
	if strings.TrimSpace(style) == "" {
		style = c.cfg.DefaultStyle
	}

	body := synthesisRequest{
		Model:      DefaultModel,
		Input:      synthesisInput{Prompt: prompt},
		Parameters: synthesisParameters{Style: style, Size: size, N: 1},
	}
	payload, _ := json.Marshal(body)

	endpoint := fmt.Sprintf("%s/services/aigc/text2image/image-synthesis", strings.TrimRight(c.cfg.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewError(types.ErrProvider, "failed to build image request").
			WithCause(err).WithProvider(c.Name())
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, types.NewError(types.ErrTimeout, "image provider timed out").
				WithCause(err).WithHTTPStatus(http.StatusGatewayTimeout).WithProvider(c.Name())
		}
		return nil, types.NewError(types.ErrProvider, "image request failed").
			WithCause(err).WithHTTPStatus(http.StatusBadGateway).WithRetryable(true).WithProvider(c.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		var sr synthesisResponse
		msg := fmt.Sprintf("image synthesis failed: status=%d", resp.StatusCode)
		if err := json.Unmarshal(data, &sr); err == nil && sr.Message != "" {
			msg = sr.Message
		}
		return nil, types.NewError(types.ErrProvider, msg).
			WithHTTPStatus(resp.StatusCode).WithRetryable(resp.StatusCode >= 500).WithProvider(c.Name())
	}

	var sr synthesisResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, types.NewError(types.ErrProtocol, "failed to decode image synthesis response").
			WithCause(err).WithProvider(c.Name())
	}

	if sr.Output.TaskStatus != "SUCCEEDED" {
		return nil, types.NewError(types.ErrProvider,
			fmt.Sprintf("image synthesis not successful: task_status=%s", sr.Output.TaskStatus)).
			WithProvider(c.Name())
	}
	if len(sr.Output.Results) == 0 || sr.Output.Results[0].URL == "" {
		return nil, types.NewError(types.ErrProtocol, "image synthesis response contains no image url").
			WithProvider(c.Name())
	}

	c.logger.Info("image generated",
		zap.String("size", size),
		zap.String("style", style),
		zap.String("request_id", sr.RequestID),
	)

	return &ImageResult{
		URL:       sr.Output.Results[0].URL,
		Size:      size,
		Style:     style,
		CreatedAt: time.Now(),
	}, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
