// Package api assembles the HTTP routing table for the platform.
package api

import (
	"net/http"

	"github.com/BaSui01/aiplatform/api/handlers"
)

// NewRouter builds the ServeMux with all platform routes.
func NewRouter(
	ai *handlers.AIHandler,
	models *handlers.ModelsHandler,
	threed *handlers.ThreeDHandler,
	health *handlers.HealthHandler,
) *http.ServeMux {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", health.HandleHealth)
	mux.HandleFunc("GET /ready", health.HandleReady)

	// AI 服务
	mux.HandleFunc("GET /api/ai/status", ai.HandleStatus)
	mux.HandleFunc("POST /api/ai/test", ai.HandleTest)
	mux.HandleFunc("POST /api/ai/chat", ai.HandleChat)
	mux.HandleFunc("POST /api/ai/image", ai.HandleImage)

	// 模型目录。模型标识含 "/"，使用剩余通配符捕获。
	mux.HandleFunc("GET /api/ai/models", models.HandleList)
	mux.HandleFunc("GET /api/ai/models/image-support", models.HandleImageSupport)
	mux.HandleFunc("GET /api/ai/models/available/{modelId...}", models.HandleAvailable)
	mux.HandleFunc("GET /api/ai/models/{modelId...}", models.HandleGet)

	// 3D 生成（仅管理员）
	mux.HandleFunc("POST /api/ai/3d/text-to-3d", threed.HandleCreate)
	mux.HandleFunc("GET /api/ai/3d/get-text-to-3d-status/{taskId}", threed.HandleStatus)
	mux.HandleFunc("POST /api/ai/3d/text-to-3d-refine", threed.HandleRefine)
	mux.HandleFunc("GET /api/ai/3d/search-history", threed.HandleSearchHistory)

	return mux
}
