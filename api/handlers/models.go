package handlers

import (
	"net/http"

	"github.com/BaSui01/aiplatform/types"
	"go.uber.org/zap"
)

// =============================================================================
// 📚 模型目录 Handler
// =============================================================================

// ModelsHandler 暴露模型目录查询端点
type ModelsHandler struct {
	svc    GenerationService
	logger *zap.Logger
}

// NewModelsHandler 创建模型目录处理器
func NewModelsHandler(svc GenerationService, logger *zap.Logger) *ModelsHandler {
	return &ModelsHandler{
		svc:    svc,
		logger: logger.With(zap.String("handler", "models")),
	}
}

// HandleList 处理 GET /api/ai/models
func (h *ModelsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, h.svc.Catalog().List())
}

// HandleImageSupport 处理 GET /api/ai/models/image-support
func (h *ModelsHandler) HandleImageSupport(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, h.svc.Catalog().FilterImageCapable())
}

// HandleGet 处理 GET /api/ai/models/{modelId...}
// 解析为默认模型是目录内部的契约；HTTP 层对未知模型返回 404。
func (h *ModelsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	modelID := r.PathValue("modelId")
	if !h.svc.Catalog().Contains(modelID) {
		WriteErrorMessage(w, http.StatusNotFound, types.ErrNotFound, "model not found: "+modelID, h.logger)
		return
	}
	WriteSuccess(w, h.svc.Catalog().Resolve(modelID))
}

// HandleAvailable 处理 GET /api/ai/models/available/{modelId...}
func (h *ModelsHandler) HandleAvailable(w http.ResponseWriter, r *http.Request) {
	modelID := r.PathValue("modelId")
	WriteSuccess(w, map[string]interface{}{
		"model":     modelID,
		"available": h.svc.Catalog().IsAvailable(modelID),
	})
}
