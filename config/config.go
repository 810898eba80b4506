// =============================================================================
// 📦 AI Platform 配置
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.Load("config.yaml")
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量（前缀 AIPLATFORM_）
// 配置在进程启动时解析一次，之后只读。
// =============================================================================
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是平台的完整配置结构
type Config struct {
	// Server 服务器配置
	Server ServerConfig `yaml:"server"`

	// Providers 外部 AI 提供者配置
	Providers ProvidersConfig `yaml:"providers"`

	// Database 历史存储数据库配置
	Database DatabaseConfig `yaml:"database"`

	// Redis 历史存储 Redis 配置（backend=redis 时使用）
	Redis RedisConfig `yaml:"redis"`

	// JWT 认证配置
	JWT JWTConfig `yaml:"jwt"`

	// Log 日志配置
	Log LogConfig `yaml:"log"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// HTTP 端口
	HTTPPort int `yaml:"http_port"`
	// Metrics 端口
	MetricsPort int `yaml:"metrics_port"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// 写入超时
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ProvidersConfig 三类提供者的配置集合
type ProvidersConfig struct {
	Chat   ChatProviderConfig   `yaml:"chat"`
	Image  ImageProviderConfig  `yaml:"image"`
	Mesh3D Mesh3DProviderConfig `yaml:"mesh3d"`
}

// ChatProviderConfig 聊天补全提供者配置（OpenAI 兼容协议）
type ChatProviderConfig struct {
	Enabled      bool          `yaml:"enabled"`
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	Timeout      time.Duration `yaml:"timeout"`
	DefaultModel string        `yaml:"default_model"`
	MaxTokens    int           `yaml:"max_tokens"`
	Temperature  float32       `yaml:"temperature"`
}

// ImageProviderConfig 图像生成提供者配置
type ImageProviderConfig struct {
	Enabled      bool          `yaml:"enabled"`
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	Timeout      time.Duration `yaml:"timeout"`
	DefaultSize  string        `yaml:"default_size"`
	DefaultStyle string        `yaml:"default_style"`
}

// Mesh3DProviderConfig 3D 网格生成提供者配置
type Mesh3DProviderConfig struct {
	Enabled bool          `yaml:"enabled"`
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Driver: postgres 或 sqlite
	Driver string `yaml:"driver"`
	// DSN 连接串（sqlite 时为文件路径）
	DSN string `yaml:"dsn"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// Backend 为 redis 时历史记录写入 Redis 而非数据库
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JWTConfig JWT 认证配置
type JWTConfig struct {
	Secret   string `yaml:"secret"`
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level: debug / info / warn / error
	Level string `yaml:"level"`
	// Format: json / console
	Format string `yaml:"format"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	ServiceName  string  `yaml:"service_name"`
	SampleRate   float64 `yaml:"sample_rate"`
}

// envPrefix 环境变量前缀
const envPrefix = "AIPLATFORM"

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			MetricsPort:     9090,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Providers: ProvidersConfig{
			Chat: ChatProviderConfig{
				BaseURL:      "https://openrouter.ai/api/v1",
				Timeout:      30 * time.Second,
				DefaultModel: "openai/gpt-4.1-nano",
				MaxTokens:    1000,
				Temperature:  0.7,
			},
			Image: ImageProviderConfig{
				BaseURL:      "https://dashscope.aliyuncs.com/api/v1",
				Timeout:      60 * time.Second,
				DefaultSize:  "1024*1024",
				DefaultStyle: "<auto>",
			},
			Mesh3D: Mesh3DProviderConfig{
				BaseURL: "https://api.meshy.ai/openapi/v2",
				Timeout: 60 * time.Second,
			},
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "aiplatform.db",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "aiplatform",
			SampleRate:  1.0,
		},
	}
}

// Load 加载配置: 默认值 → YAML 文件（可选）→ 环境变量覆盖。
// path 为空时跳过文件加载。
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv 应用环境变量覆盖
func (c *Config) applyEnv() {
	envInt(&c.Server.HTTPPort, "SERVER_HTTP_PORT")
	envInt(&c.Server.MetricsPort, "SERVER_METRICS_PORT")

	envBool(&c.Providers.Chat.Enabled, "CHAT_ENABLED")
	envString(&c.Providers.Chat.BaseURL, "CHAT_BASE_URL")
	envString(&c.Providers.Chat.APIKey, "CHAT_API_KEY")
	envString(&c.Providers.Chat.DefaultModel, "CHAT_DEFAULT_MODEL")
	envDuration(&c.Providers.Chat.Timeout, "CHAT_TIMEOUT")

	envBool(&c.Providers.Image.Enabled, "IMAGE_ENABLED")
	envString(&c.Providers.Image.BaseURL, "IMAGE_BASE_URL")
	envString(&c.Providers.Image.APIKey, "IMAGE_API_KEY")
	envDuration(&c.Providers.Image.Timeout, "IMAGE_TIMEOUT")

	envBool(&c.Providers.Mesh3D.Enabled, "MESH3D_ENABLED")
	envString(&c.Providers.Mesh3D.BaseURL, "MESH3D_BASE_URL")
	envString(&c.Providers.Mesh3D.APIKey, "MESH3D_API_KEY")
	envDuration(&c.Providers.Mesh3D.Timeout, "MESH3D_TIMEOUT")

	envString(&c.Database.Driver, "DATABASE_DRIVER")
	envString(&c.Database.DSN, "DATABASE_DSN")

	envBool(&c.Redis.Enabled, "REDIS_ENABLED")
	envString(&c.Redis.Addr, "REDIS_ADDR")
	envString(&c.Redis.Password, "REDIS_PASSWORD")

	envString(&c.JWT.Secret, "JWT_SECRET")
	envString(&c.JWT.Issuer, "JWT_ISSUER")

	envString(&c.Log.Level, "LOG_LEVEL")
	envString(&c.Log.Format, "LOG_FORMAT")

	envBool(&c.Telemetry.Enabled, "TELEMETRY_ENABLED")
	envString(&c.Telemetry.OTLPEndpoint, "TELEMETRY_OTLP_ENDPOINT")
}

// Validate 校验配置一致性
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics_port: %d", c.Server.MetricsPort)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	return nil
}

// --- 环境变量覆盖辅助函数 ---

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(envPrefix + "_" + key); ok {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v, ok := os.LookupEnv(envPrefix + "_" + key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func envBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(envPrefix + "_" + key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			*dst = b
		}
	}
}

func envDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(envPrefix + "_" + key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			*dst = d
		}
	}
}
