// Package meshy implements the asynchronous text-to-3D provider client
// against the Meshy API.
//
// Task creation and refinement share one endpoint and one response envelope:
// a POST to /text-to-3d answers {"result": "<task-id>"}. The "result" field is
// the only authoritative task identifier; an envelope without it is a protocol
// failure even when the HTTP call itself succeeded. Status is a plain GET on
// /text-to-3d/{id} with no local caching — the provider is the source of truth.
package meshy

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

// Task modes accepted by the creation endpoint.
const (
	ModePreview = "preview"
	ModeRefine  = "refine"
)

// Client calls the Meshy text-to-3D API.
type Client struct {
	cfg    config.Mesh3DProviderConfig
	client *http.Client
	logger *zap.Logger
}

// NewClient creates a new 3D provider client.
func NewClient(cfg config.Mesh3DProviderConfig, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.meshy.ai/openapi/v2"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("provider", "meshy")),
	}
}

func (c *Client) Name() string { return "meshy" }

// CreateRequest carries the parameters of a text-to-3D creation call.
type CreateRequest struct {
	Prompt       string
	Mode         string
	ArtStyle     string
	ShouldRemesh bool
	Seed         int
}

// TaskStatus is the provider's view of one task, as last observed.
type TaskStatus struct {
	TaskID       string            `json:"taskId"`
	Status       string            `json:"status"`
	Progress     int               `json:"progress"`
	ModelURLs    map[string]string `json:"modelUrls,omitempty"`
	ThumbnailURL string            `json:"thumbnailUrl,omitempty"`
}

// Meshy wire types
type createTaskRequest struct {
	Prompt       string `json:"prompt"`
	Mode         string `json:"mode"`
	ArtStyle     string `json:"art_style,omitempty"`
	ShouldRemesh bool   `json:"should_remesh"`
	Seed         int    `json:"seed"`
}

type refineTaskRequest struct {
	Mode          string `json:"mode"`
	PreviewTaskID string `json:"preview_task_id"`
	Prompt        string `json:"prompt,omitempty"`
}

type createTaskResponse struct {
	Result string `json:"result"`
}

type taskStatusResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	ModelURLs struct {
		GLB  string `json:"glb"`
		FBX  string `json:"fbx"`
		OBJ  string `json:"obj"`
		USDZ string `json:"usdz"`
	} `json:"model_urls"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// CreateTextTo3D submits a creation task and returns the provider-issued
// task id extracted from the response envelope.
func (c *Client) CreateTextTo3D(ctx context.Context, req CreateRequest) (string, error) {
	body := createTaskRequest{
		Prompt:       req.Prompt,
		Mode:         req.Mode,
		ArtStyle:     req.ArtStyle,
		ShouldRemesh: req.ShouldRemesh,
		Seed:         req.Seed,
	}
	taskID, err := c.submitTask(ctx, body)
	if err != nil {
		return "", err
	}
	c.logger.Info("text-to-3d task created",
		zap.String("task_id", taskID),
		zap.String("mode", req.Mode),
		zap.String("art_style", req.ArtStyle),
	)
	return taskID, nil
}

// Refine submits a refine task chained to previewTaskID and returns the new
// task id. The response envelope is parsed exactly like creation.
func (c *Client) Refine(ctx context.Context, previewTaskID, prompt string) (string, error) {
	body := refineTaskRequest{
		Mode:          ModeRefine,
		PreviewTaskID: previewTaskID,
		Prompt:        prompt,
	}
	taskID, err := c.submitTask(ctx, body)
	if err != nil {
		return "", err
	}
	c.logger.Info("text-to-3d task refined",
		zap.String("parent_task_id", previewTaskID),
		zap.String("task_id", taskID),
	)
	return taskID, nil
}

// submitTask posts a task payload to /text-to-3d and extracts the task id.
func (c *Client) submitTask(ctx context.Context, body any) (string, error) {
	payload, _ := json.Marshal(body)
	endpoint := fmt.Sprintf("%s/text-to-3d", strings.TrimRight(c.cfg.BaseURL, "/"))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", types.NewError(types.ErrProvider, "failed to build task request").
			WithCause(err).WithProvider(c.Name())
	}
	c.buildHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if isTimeout(ctx, err) {
			return "", types.NewError(types.ErrTimeout, "3d provider timed out").
				WithCause(err).WithHTTPStatus(http.StatusGatewayTimeout).WithProvider(c.Name())
		}
		return "", types.NewError(types.ErrProvider, "task request failed").
			WithCause(err).WithHTTPStatus(http.StatusBadGateway).WithRetryable(true).WithProvider(c.Name())
	}
	defer resp.Body.Close()

	// Meshy 任务创建返回 200 或 202
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		errBody, _ := io.ReadAll(resp.Body)
		return "", types.NewError(types.ErrProvider,
			fmt.Sprintf("task creation failed: status=%d", resp.StatusCode)).
			WithCause(errors.New(truncate(string(errBody), 256))).
			WithHTTPStatus(resp.StatusCode).WithRetryable(resp.StatusCode >= 500).WithProvider(c.Name())
	}

	return parseTaskID(resp.Body, c.Name())
}

// parseTaskID extracts the authoritative "result" field. A 2xx response whose
// body cannot be parsed, or that carries no result, is a hard protocol failure.
func parseTaskID(body io.Reader, provider string) (string, error) {
	var cr createTaskResponse
	if err := json.NewDecoder(body).Decode(&cr); err != nil {
		return "", types.NewError(types.ErrProtocol, "failed to decode task creation response").
			WithCause(err).WithProvider(provider)
	}
	if strings.TrimSpace(cr.Result) == "" {
		return "", types.NewError(types.ErrProtocol, "task creation response contains no result field").
			WithProvider(provider)
	}
	return cr.Result, nil
}

// GetStatus queries the current status of taskID. Every call re-queries the
// provider; nothing is cached locally.
func (c *Client) GetStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	endpoint := fmt.Sprintf("%s/text-to-3d/%s", strings.TrimRight(c.cfg.BaseURL, "/"), taskID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, types.NewError(types.ErrProvider, "failed to build status request").
			WithCause(err).WithProvider(c.Name())
	}
	c.buildHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, types.NewError(types.ErrTimeout, "3d provider timed out").
				WithCause(err).WithHTTPStatus(http.StatusGatewayTimeout).WithProvider(c.Name())
		}
		return nil, types.NewError(types.ErrProvider, "status request failed").
			WithCause(err).WithHTTPStatus(http.StatusBadGateway).WithRetryable(true).WithProvider(c.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, types.NewError(types.ErrNotFound,
			fmt.Sprintf("task not found: %s", taskID)).
			WithHTTPStatus(http.StatusNotFound).WithProvider(c.Name())
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, types.NewError(types.ErrProvider,
			fmt.Sprintf("status query failed: status=%d", resp.StatusCode)).
			WithHTTPStatus(resp.StatusCode).WithRetryable(resp.StatusCode >= 500).WithProvider(c.Name())
	}

	var sr taskStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, types.NewError(types.ErrProtocol, "failed to decode task status response").
			WithCause(err).WithProvider(c.Name())
	}

	status := &TaskStatus{
		TaskID:       taskID,
		Status:       sr.Status,
		Progress:     sr.Progress,
		ThumbnailURL: sr.ThumbnailURL,
	}
	urls := map[string]string{}
	if sr.ModelURLs.GLB != "" {
		urls["glb"] = sr.ModelURLs.GLB
	}
	if sr.ModelURLs.FBX != "" {
		urls["fbx"] = sr.ModelURLs.FBX
	}
	if sr.ModelURLs.OBJ != "" {
		urls["obj"] = sr.ModelURLs.OBJ
	}
	if sr.ModelURLs.USDZ != "" {
		urls["usdz"] = sr.ModelURLs.USDZ
	}
	if len(urls) > 0 {
		status.ModelURLs = urls
	}
	return status, nil
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

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
