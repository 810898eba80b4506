// Package orchestrator coordinates generation requests: it resolves models
// against the catalog, checks provider availability, translates requests to
// the provider clients, bridges results into chat history and drives the
// asynchronous 3D task lifecycle.
package orchestrator

import (
	"context"
	"time"

	"github.com/BaSui01/aiplatform/catalog"
	"github.com/BaSui01/aiplatform/history"
	"github.com/BaSui01/aiplatform/internal/metrics"
	"github.com/BaSui01/aiplatform/providers"
	"github.com/BaSui01/aiplatform/providers/dashscope"
	"github.com/BaSui01/aiplatform/providers/meshy"
	"github.com/BaSui01/aiplatform/types"
	"go.uber.org/zap"
)

// Message content prefixes marking 3D exchanges in chat history.
const (
	prefix3DPreview = "[3d:preview] "
	prefix3DRefine  = "[3d:refine] "
)

// ChatProvider answers chat prompts over the network.
type ChatProvider interface {
	Name() string
	Completion(ctx context.Context, prompt, model string) (string, error)
}

// ImageProvider synthesizes images.
type ImageProvider interface {
	Name() string
	Generate(ctx context.Context, prompt, size, style string) (*dashscope.ImageResult, error)
}

// MeshProvider drives asynchronous text-to-3D tasks.
type MeshProvider interface {
	Name() string
	CreateTextTo3D(ctx context.Context, req meshy.CreateRequest) (string, error)
	Refine(ctx context.Context, previewTaskID, prompt string) (string, error)
	GetStatus(ctx context.Context, taskID string) (*meshy.TaskStatus, error)
}

// FallbackResponder answers chat prompts locally when the provider cannot.
type FallbackResponder interface {
	Respond(prompt string) string
}

// Orchestrator is the central coordination point for all generation kinds.
type Orchestrator struct {
	catalog  *catalog.Catalog
	registry *providers.Registry
	chat     ChatProvider
	image    ImageProvider
	mesh     MeshProvider
	fallback FallbackResponder
	bridge   *history.Bridge
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// New assembles an orchestrator. bridge and collector may be nil; history
// bridging and metrics are then skipped.
func New(
	cat *catalog.Catalog,
	reg *providers.Registry,
	chat ChatProvider,
	image ImageProvider,
	mesh MeshProvider,
	fallback FallbackResponder,
	bridge *history.Bridge,
	collector *metrics.Collector,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		catalog:  cat,
		registry: reg,
		chat:     chat,
		image:    image,
		mesh:     mesh,
		fallback: fallback,
		bridge:   bridge,
		metrics:  collector,
		logger:   logger.With(zap.String("component", "orchestrator")),
	}
}

// Catalog exposes the model catalog for read-only queries.
func (o *Orchestrator) Catalog() *catalog.Catalog { return o.catalog }

// ChatAvailable reports whether the chat provider is configured and enabled.
func (o *Orchestrator) ChatAvailable() bool {
	return o.registry.Enabled(providers.KindChat)
}

// =============================================================================
// 💬 聊天
// =============================================================================

// SubmitChat resolves modelID, calls the chat provider and falls back to the
// local responder when the provider is disabled, times out or errors. The
// fallback path never fails; only validation rejects the call.
func (o *Orchestrator) SubmitChat(ctx context.Context, userID, prompt, modelID string) (*ChatResult, error) {
	prompt = sanitizePrompt(prompt)
	if prompt == "" {
		return nil, types.NewError(types.ErrValidation, "prompt must not be blank")
	}

	model := o.catalog.Resolve(modelID)
	result := &ChatResult{Model: model.ModelID}

	if !o.registry.Enabled(providers.KindChat) {
		result.Reply = o.fallback.Respond(prompt)
		result.Available = false
	} else {
		start := time.Now()
		reply, err := o.chat.Completion(ctx, prompt, model.ModelID)
		o.observe(o.chat.Name(), "completion", start, err)
		if err != nil {
			o.logger.Warn("chat provider failed, using fallback",
				zap.String("model", model.ModelID),
				zap.String("code", string(types.GetErrorCode(err))),
				zap.Error(err),
			)
			result.Reply = o.fallback.Respond(prompt)
			result.Available = false
		} else {
			result.Reply = reply
			result.Available = true
		}
	}

	o.recordExchange(ctx, result, userID, history.KindChat, prompt, result.Reply)
	return result, nil
}

// recordExchange bridges one prompt/reply pair into history. A storage
// failure here is a partial success: the generation already happened, so the
// failure is logged and the result stands.
func (o *Orchestrator) recordExchange(ctx context.Context, result *ChatResult, userID, kind, prompt, reply string) {
	if o.bridge == nil {
		return
	}
	chat, msg, err := o.bridge.RecordExchange(ctx, userID, kind, prompt, reply)
	if err != nil {
		o.logger.Warn("history write failed after generation",
			zap.String("kind", kind),
			zap.Error(err),
		)
	}
	if chat != nil && result != nil {
		result.ChatID = chat.ID
	}
	if msg != nil && result != nil {
		result.MessageID = msg.ID
	}
}

// =============================================================================
// 🎨 图像生成
// =============================================================================

// SubmitImage synthesizes one image. Unlike chat there is no fallback;
// provider failures propagate to the caller. The user prompt is written to
// history before dispatch so it survives a failed provider call.
func (o *Orchestrator) SubmitImage(ctx context.Context, userID, prompt, size, style string) (*ImageOutcome, error) {
	prompt = sanitizePrompt(prompt)
	if prompt == "" {
		return nil, types.NewError(types.ErrValidation, "prompt must not be blank")
	}
	if !o.registry.Enabled(providers.KindImage) {
		return nil, types.NewError(types.ErrProviderUnavailable, "image provider is disabled")
	}

	var chat *history.Chat
	if o.bridge != nil {
		var err error
		chat, err = o.bridge.OpenOrReuseChat(ctx, userID, prompt, history.KindImage)
		if err != nil {
			o.logger.Warn("image chat open failed", zap.Error(err))
			chat = nil
		} else if _, err := o.bridge.AppendMessage(ctx, chat.ID, history.RoleUser, prompt); err != nil {
			o.logger.Warn("image user message write failed", zap.Error(err))
		}
	}

	start := time.Now()
	img, err := o.image.Generate(ctx, prompt, size, style)
	o.observe(o.image.Name(), "generate", start, err)
	if err != nil {
		return nil, err
	}

	outcome := &ImageOutcome{
		URL:       img.URL,
		Size:      img.Size,
		Style:     img.Style,
		CreatedAt: img.CreatedAt,
	}
	if chat != nil {
		outcome.ChatID = chat.ID
		if _, err := o.bridge.AppendMessage(ctx, chat.ID, history.RoleAssistant, img.URL); err != nil {
			o.logger.Warn("history write failed after generation",
				zap.String("kind", history.KindImage), zap.Error(err))
		}
	}
	return outcome, nil
}

// =============================================================================
// 🧊 3D 任务
// =============================================================================

// Create3DRequest carries a text-to-3D submission.
type Create3DRequest struct {
	Prompt       string `json:"prompt"`
	Mode         string `json:"mode"`
	ArtStyle     string `json:"artStyle,omitempty"`
	ShouldRemesh bool   `json:"shouldRemesh,omitempty"`
	Seed         int    `json:"seed,omitempty"`
}

// Submit3D validates and dispatches a creation task, records it, and returns
// the submission-time task view. Validation and availability are checked
// before any network call.
func (o *Orchestrator) Submit3D(ctx context.Context, userID string, req Create3DRequest) (*GenerationTask, error) {
	req.Prompt = sanitizePrompt(req.Prompt)
	req.Mode = sanitizePrompt(req.Mode)
	if req.Prompt == "" {
		return nil, types.NewError(types.ErrValidation, "prompt must not be blank")
	}
	if req.Mode == "" {
		return nil, types.NewError(types.ErrValidation, "mode must not be blank")
	}
	if !o.registry.Enabled(providers.KindMesh3D) {
		return nil, types.NewError(types.ErrProviderUnavailable, "3d provider is disabled")
	}

	var chat *history.Chat
	if o.bridge != nil {
		var err error
		chat, err = o.bridge.OpenOrReuseChat(ctx, userID, req.Prompt, history.Kind3D)
		if err != nil {
			o.logger.Warn("3d chat open failed", zap.Error(err))
		} else {
			if _, err := o.bridge.AppendMessage(ctx, chat.ID, history.RoleUser, prefix3DPreview+req.Prompt); err != nil {
				o.logger.Warn("3d user message write failed", zap.Error(err))
			}
		}
	}

	start := time.Now()
	taskID, err := o.mesh.CreateTextTo3D(ctx, meshy.CreateRequest{
		Prompt:       req.Prompt,
		Mode:         req.Mode,
		ArtStyle:     req.ArtStyle,
		ShouldRemesh: req.ShouldRemesh,
		Seed:         req.Seed,
	})
	o.observe(o.mesh.Name(), "create", start, err)
	if err != nil {
		return nil, err
	}

	task := &GenerationTask{
		TaskID:    taskID,
		Provider:  o.mesh.Name(),
		Mode:      req.Mode,
		ArtStyle:  req.ArtStyle,
		Prompt:    req.Prompt,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
	o.persistTask(ctx, task, userID, chat)
	if o.metrics != nil {
		o.metrics.RecordTaskSubmitted(task.Mode)
	}
	return task, nil
}

// Refine3D chains a refine task to parentTaskID and returns the new task.
// The provider is authoritative for the parent's existence; the local record
// only enriches the result when present.
func (o *Orchestrator) Refine3D(ctx context.Context, userID, parentTaskID, prompt string) (*GenerationTask, error) {
	parentTaskID = sanitizePrompt(parentTaskID)
	prompt = sanitizePrompt(prompt)
	if parentTaskID == "" {
		return nil, types.NewError(types.ErrValidation, "parentTaskId must not be blank")
	}
	if !o.registry.Enabled(providers.KindMesh3D) {
		return nil, types.NewError(types.ErrProviderUnavailable, "3d provider is disabled")
	}

	var parent *history.TaskRecord
	if o.bridge != nil {
		var err error
		parent, err = o.bridge.Store().GetTask(ctx, parentTaskID)
		if err != nil {
			// 提交可能是部分成功（记录写入失败），本地记录缺失不阻断细化。
			o.logger.Warn("parent task record unavailable",
				zap.String("task_id", parentTaskID), zap.Error(err))
			parent = nil
		}
	}

	var chat *history.Chat
	if o.bridge != nil {
		var err error
		chat, err = o.bridge.OpenOrReuseChat(ctx, userID, prompt, history.Kind3D)
		if err != nil {
			o.logger.Warn("3d chat open failed", zap.Error(err))
		} else {
			content := prefix3DRefine + parentTaskID
			if prompt != "" {
				content = prefix3DRefine + prompt
			}
			if _, err := o.bridge.AppendMessage(ctx, chat.ID, history.RoleUser, content); err != nil {
				o.logger.Warn("3d user message write failed", zap.Error(err))
			}
		}
	}

	start := time.Now()
	taskID, err := o.mesh.Refine(ctx, parentTaskID, prompt)
	o.observe(o.mesh.Name(), "refine", start, err)
	if err != nil {
		return nil, err
	}

	task := &GenerationTask{
		TaskID:       taskID,
		Provider:     o.mesh.Name(),
		Mode:         meshy.ModeRefine,
		Prompt:       prompt,
		Status:       StatusPending,
		ParentTaskID: parentTaskID,
		CreatedAt:    time.Now(),
	}
	if parent != nil && task.Prompt == "" {
		task.Prompt = parent.Prompt
	}
	o.persistTask(ctx, task, userID, chat)
	if o.metrics != nil {
		o.metrics.RecordTaskSubmitted(task.Mode)
	}
	return task, nil
}

// persistTask records the task and its assistant-side message. Failures here
// are partial successes: the provider already accepted the task.
func (o *Orchestrator) persistTask(ctx context.Context, task *GenerationTask, userID string, chat *history.Chat) {
	if o.bridge == nil {
		return
	}
	rec := &history.TaskRecord{
		ID:           task.TaskID,
		UserID:       userID,
		Prompt:       task.Prompt,
		Mode:         task.Mode,
		ArtStyle:     task.ArtStyle,
		Status:       task.Status,
		ParentTaskID: task.ParentTaskID,
	}
	if chat != nil {
		task.ChatID = chat.ID
		rec.ChatID = chat.ID
		msg, err := o.bridge.AppendMessage(ctx, chat.ID, history.RoleAssistant, "3D task accepted: "+task.TaskID)
		if err != nil {
			o.logger.Warn("3d assistant message write failed", zap.Error(err))
		} else {
			task.MessageID = msg.ID
			rec.MessageID = msg.ID
		}
	}
	if err := o.bridge.Store().RecordTask(ctx, rec); err != nil {
		o.logger.Warn("task record write failed after submission",
			zap.String("task_id", task.TaskID), zap.Error(err))
	}
}

// PollStatus asks the provider for the current state of taskID and passes it
// through unchanged. Nothing is cached; the stored record's status is
// refreshed best-effort as a side note for history search.
func (o *Orchestrator) PollStatus(ctx context.Context, taskID string) (*meshy.TaskStatus, error) {
	taskID = sanitizePrompt(taskID)
	if taskID == "" {
		return nil, types.NewError(types.ErrValidation, "taskId must not be blank")
	}
	if !o.registry.Enabled(providers.KindMesh3D) {
		return nil, types.NewError(types.ErrProviderUnavailable, "3d provider is disabled")
	}

	start := time.Now()
	status, err := o.mesh.GetStatus(ctx, taskID)
	o.observe(o.mesh.Name(), "status", start, err)
	if err != nil {
		return nil, err
	}

	if o.bridge != nil && status.Status != "" {
		if err := o.bridge.Store().UpdateTaskStatus(ctx, taskID, status.Status); err != nil &&
			!types.IsCode(err, types.ErrNotFound) {
			o.logger.Warn("task status refresh failed", zap.String("task_id", taskID), zap.Error(err))
		}
	}
	return status, nil
}

// SearchHistory lists the user's 3D task records, newest first.
func (o *Orchestrator) SearchHistory(ctx context.Context, userID string) ([]history.TaskRecord, error) {
	if o.bridge == nil {
		return nil, types.NewError(types.ErrConfiguration, "history store is not configured")
	}
	return o.bridge.Store().SearchTasks(ctx, userID)
}

func (o *Orchestrator) observe(provider, op string, start time.Time, err error) {
	if o.metrics == nil {
		return
	}
	o.metrics.ObserveProviderCall(provider, op, time.Since(start), err)
}
