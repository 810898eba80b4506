package handlers

import (
	"net/http"

	"github.com/BaSui01/aiplatform/orchestrator"
	"github.com/BaSui01/aiplatform/types"
	"go.uber.org/zap"
)

// =============================================================================
// 🧊 3D 生成 Handler
// =============================================================================

// ThreeDHandler 处理文本生成 3D 模型的全部端点。创建与细化仅限管理员，
// 状态查询与历史检索只要求有效身份。
type ThreeDHandler struct {
	svc    GenerationService
	logger *zap.Logger
}

// NewThreeDHandler 创建 3D 处理器
func NewThreeDHandler(svc GenerationService, logger *zap.Logger) *ThreeDHandler {
	return &ThreeDHandler{
		svc:    svc,
		logger: logger.With(zap.String("handler", "threed")),
	}
}

// refineRequest 细化请求体
type refineRequest struct {
	ParentTaskID string `json:"parentTaskId"`
	Prompt       string `json:"prompt,omitempty"`
}

// HandleCreate 处理 POST /api/ai/3d/text-to-3d
func (h *ThreeDHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	var req orchestrator.Create3DRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	task, err := h.svc.Submit3D(r.Context(), userID, req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, task)
}

// HandleStatus 处理 GET /api/ai/3d/get-text-to-3d-status/{taskId}
func (h *ThreeDHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r, h.logger); !ok {
		return
	}

	status, err := h.svc.PollStatus(r.Context(), r.PathValue("taskId"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, status)
}

// HandleRefine 处理 POST /api/ai/3d/text-to-3d-refine
func (h *ThreeDHandler) HandleRefine(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	var req refineRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	task, err := h.svc.Refine3D(r.Context(), userID, req.ParentTaskID, req.Prompt)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, task)
}

// HandleSearchHistory 处理 GET /api/ai/3d/search-history
func (h *ThreeDHandler) HandleSearchHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	recs, err := h.svc.SearchHistory(r.Context(), userID)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, recs)
}

// requireAdmin 校验已认证且为管理员，仅用于创建与细化
func (h *ThreeDHandler) requireAdmin(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := types.UserID(r.Context())
	if !ok {
		WriteErrorMessage(w, http.StatusUnauthorized, types.ErrUnauthorized, "authentication required", h.logger)
		return "", false
	}
	if !types.IsAdmin(r.Context()) {
		WriteErrorMessage(w, http.StatusForbidden, types.ErrForbidden, "admin role required", h.logger)
		return "", false
	}
	return userID, true
}
