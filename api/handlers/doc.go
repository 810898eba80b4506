/*
包 handlers 实现平台的 HTTP 端点处理器。

# 概述

所有处理器围绕 GenerationService 接口工作，输出统一的 Response
信封（success/data/error/timestamp）。错误通过 types.Error 映射为
HTTP 状态码，未知错误归类为 500。

# 端点分组

  - AIHandler：聊天、图像生成、服务状态与连通性测试。
  - ModelsHandler：模型目录查询（列表、图像能力过滤、单模型
    解析与可用性）。
  - ThreeDHandler：文本生成 3D 任务的创建、细化、状态查询与
    历史检索。创建与细化要求管理员角色，其余要求有效身份。
  - HealthHandler：存活与就绪探针，就绪探针运行注册的依赖检查。

# 辅助能力

  - WriteJSON/WriteSuccess/WriteError：响应序列化与错误映射。
  - DecodeJSONBody：1 MB 限制 + 严格模式（拒绝未知字段）。
  - ResponseWriter：状态码捕获包装器，供访问日志与指标中间件使用。
*/
package handlers
