/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖 HTTP、
上游提供商调用与 3D 任务三个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，避免手动管理 Registry。所有指标按 namespace 隔离，
支持多维度 label 分组，便于 Grafana 等工具进行可视化与告警。

# 核心类型

  - Collector：指标收集器，持有 Counter 与 Histogram 向量指标，
    按业务域分组管理。

# 主要能力

  - HTTP 指标：请求总数与请求耗时，按 method/path/status 分组，
    状态码归类为 2xx/3xx/4xx/5xx。
  - 提供商指标：上游调用总数与耗时，按 provider/operation/status
    分组，覆盖聊天补全、图像合成与 3D 任务接口。
  - 任务指标：3D 任务提交计数，按 mode（preview/refine）分组。
*/
package metrics
