package handlers

import (
	"context"
	"net/http"

	"github.com/BaSui01/aiplatform/catalog"
	"github.com/BaSui01/aiplatform/history"
	"github.com/BaSui01/aiplatform/orchestrator"
	"github.com/BaSui01/aiplatform/providers/meshy"
	"github.com/BaSui01/aiplatform/types"
	"go.uber.org/zap"
)

// GenerationService is the orchestrator surface the HTTP layer depends on.
type GenerationService interface {
	SubmitChat(ctx context.Context, userID, prompt, modelID string) (*orchestrator.ChatResult, error)
	SubmitImage(ctx context.Context, userID, prompt, size, style string) (*orchestrator.ImageOutcome, error)
	Submit3D(ctx context.Context, userID string, req orchestrator.Create3DRequest) (*orchestrator.GenerationTask, error)
	Refine3D(ctx context.Context, userID, parentTaskID, prompt string) (*orchestrator.GenerationTask, error)
	PollStatus(ctx context.Context, taskID string) (*meshy.TaskStatus, error)
	SearchHistory(ctx context.Context, userID string) ([]history.TaskRecord, error)
	Catalog() *catalog.Catalog
	ChatAvailable() bool
}

// =============================================================================
// 💬 AI Handler
// =============================================================================

// AIHandler 处理聊天、图像与服务状态端点
type AIHandler struct {
	svc    GenerationService
	logger *zap.Logger
}

// NewAIHandler 创建 AI 处理器
func NewAIHandler(svc GenerationService, logger *zap.Logger) *AIHandler {
	return &AIHandler{
		svc:    svc,
		logger: logger.With(zap.String("handler", "ai")),
	}
}

// chatRequest 聊天请求体
type chatRequest struct {
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
}

// imageRequest 图像生成请求体
type imageRequest struct {
	Prompt string `json:"prompt"`
	Size   string `json:"size,omitempty"`
	Style  string `json:"style,omitempty"`
}

// testDefaultMessage 连通性测试缺省提示词
const testDefaultMessage = "Hello"

// testRequest 连通性测试请求体，message 可省略
type testRequest struct {
	Message string `json:"message,omitempty"`
}

// HandleStatus 处理 GET /api/ai/status
func (h *AIHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	available := h.svc.ChatAvailable()
	message := "AI服务正常"
	if !available {
		message = "使用本地回复"
	}
	WriteSuccess(w, map[string]interface{}{
		"aiAvailable":  available,
		"defaultModel": catalog.DefaultModelID,
		"message":      message,
	})
}

// HandleTest 处理 POST /api/ai/test：验证链路连通性，请求体可携带自定义提示词
func (h *AIHandler) HandleTest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	message := testDefaultMessage
	if r.ContentLength != 0 {
		var req testRequest
		if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
			return
		}
		if req.Message != "" {
			message = req.Message
		}
	}

	res, err := h.svc.SubmitChat(r.Context(), userID, message, "")
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, res)
}

// HandleChat 处理 POST /api/ai/chat
func (h *AIHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	var req chatRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	res, err := h.svc.SubmitChat(r.Context(), userID, req.Message, req.Model)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, res)
}

// HandleImage 处理 POST /api/ai/image
func (h *AIHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	var req imageRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	out, err := h.svc.SubmitImage(r.Context(), userID, req.Prompt, req.Size, req.Style)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, out)
}

// requireUser 从请求上下文取出认证用户，缺失时返回 401
func requireUser(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (string, bool) {
	userID, ok := types.UserID(r.Context())
	if !ok {
		WriteErrorMessage(w, http.StatusUnauthorized, types.ErrUnauthorized, "authentication required", logger)
		return "", false
	}
	return userID, true
}
