package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/BaSui01/aiplatform/api"
	"github.com/BaSui01/aiplatform/api/handlers"
	"github.com/BaSui01/aiplatform/catalog"
	"github.com/BaSui01/aiplatform/config"
	"github.com/BaSui01/aiplatform/history"
	"github.com/BaSui01/aiplatform/internal/metrics"
	"github.com/BaSui01/aiplatform/internal/server"
	"github.com/BaSui01/aiplatform/internal/telemetry"
	"github.com/BaSui01/aiplatform/orchestrator"
	"github.com/BaSui01/aiplatform/providers"
	"github.com/BaSui01/aiplatform/providers/dashscope"
	"github.com/BaSui01/aiplatform/providers/local"
	"github.com/BaSui01/aiplatform/providers/meshy"
	"github.com/BaSui01/aiplatform/providers/openrouter"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// =============================================================================
// 🚀 应用服务器
// =============================================================================

// Server 聚合平台的全部运行期组件
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	httpManager    *server.Manager
	metricsManager *server.Manager
	telemetry      *telemetry.Providers
	collector      *metrics.Collector

	store *history.GormStore
	redis *redis.Client
	orch  *orchestrator.Orchestrator
}

// NewServer 创建应用服务器
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, logger: logger}
}

// Start 组装依赖并启动 HTTP 服务与指标服务
func (s *Server) Start(ctx context.Context) error {
	tel, err := telemetry.Init(s.cfg.Telemetry, s.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	s.telemetry = tel

	s.collector = metrics.NewCollector("aiplatform", s.logger)

	// 历史存储：数据库打开失败不阻止启动，生成服务降级为无历史模式。
	var bridge *history.Bridge
	store, err := history.Open(s.cfg.Database, s.logger)
	if err != nil {
		s.logger.Warn("history store unavailable, running without history",
			zap.String("driver", s.cfg.Database.Driver), zap.Error(err))
	} else {
		s.store = store
		var cache *history.ChatCache
		if s.cfg.Redis.Enabled {
			s.redis = redis.NewClient(&redis.Options{
				Addr:     s.cfg.Redis.Addr,
				Password: s.cfg.Redis.Password,
				DB:       s.cfg.Redis.DB,
			})
			cache = history.NewChatCache(s.redis, 0, s.logger)
		}
		bridge = history.NewBridge(store, cache, s.logger)
	}

	// 提供者与编排器
	registry := providers.NewRegistry(s.cfg.Providers)
	cat := catalog.New(s.cfg.Providers.Chat.Enabled)

	chatClient := openrouter.NewClient(s.cfg.Providers.Chat, s.logger)
	imageClient := dashscope.NewClient(s.cfg.Providers.Image, s.logger)
	meshClient := meshy.NewClient(s.cfg.Providers.Mesh3D, s.logger)
	fallback := local.NewResponder(s.logger)

	s.orch = orchestrator.New(cat, registry, chatClient, imageClient, meshClient,
		fallback, bridge, s.collector, s.logger)

	// HTTP 处理器与路由
	aiHandler := handlers.NewAIHandler(s.orch, s.logger)
	modelsHandler := handlers.NewModelsHandler(s.orch, s.logger)
	threedHandler := handlers.NewThreeDHandler(s.orch, s.logger)
	healthHandler := handlers.NewHealthHandler(s.logger)
	s.registerHealthChecks(healthHandler)

	mux := api.NewRouter(aiHandler, modelsHandler, threedHandler, healthHandler)

	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.collector),
		OTelTracing(),
		// 探针之外的全部端点都要求有效身份
		JWTAuth(s.cfg.JWT, []string{
			"/health",
			"/ready",
		}, s.logger),
	)

	s.httpManager = server.NewManager(handler, server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}, s.logger)
	if err := s.httpManager.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", promhttp.Handler())
	s.metricsManager = server.NewManager(metricsMux, server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}, s.logger)
	if err := s.metricsManager.Start(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("server started",
		zap.String("addr", s.httpManager.Addr()),
		zap.String("metrics_addr", s.metricsManager.Addr()),
		zap.Bool("chat_enabled", s.cfg.Providers.Chat.Enabled),
		zap.Bool("image_enabled", s.cfg.Providers.Image.Enabled),
		zap.Bool("mesh3d_enabled", s.cfg.Providers.Mesh3D.Enabled),
	)
	return nil
}

// registerHealthChecks 注册就绪探针依赖检查
func (s *Server) registerHealthChecks(h *handlers.HealthHandler) {
	if s.store != nil {
		h.RegisterCheck(handlers.CheckFunc{
			CheckName: "database",
			Fn: func(ctx context.Context) error {
				sqlDB, err := s.store.DB().DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
		})
	}
	if s.redis != nil {
		h.RegisterCheck(handlers.CheckFunc{
			CheckName: "redis",
			Fn: func(ctx context.Context) error {
				return s.redis.Ping(ctx).Err()
			},
		})
	}
}

// WaitForShutdown 阻塞直至收到退出信号，然后关闭全部组件
func (s *Server) WaitForShutdown() {
	s.httpManager.WaitForShutdown()
	s.shutdownRest()
}

// Shutdown 立即触发优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	var firstErr error
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.shutdownRest()
	return firstErr
}

func (s *Server) shutdownRest() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("metrics server shutdown failed", zap.Error(err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if s.store != nil {
		if sqlDB, err := s.store.DB().DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				s.logger.Warn("database close failed", zap.Error(err))
			}
		}
	}
	if err := s.telemetry.Shutdown(ctx); err != nil {
		s.logger.Warn("telemetry shutdown failed", zap.Error(err))
	}
	s.logger.Info("server stopped")
}
