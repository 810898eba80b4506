// Package local provides the deterministic fallback responder used when the
// chat provider is disabled, times out, or errors. It performs no network
// calls and has no side effects, so it can never fail.
package local

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Responder answers chat prompts locally with canned, keyword-matched replies.
type Responder struct {
	logger *zap.Logger
}

// NewResponder creates a new fallback responder.
func NewResponder(logger *zap.Logger) *Responder {
	return &Responder{logger: logger.With(zap.String("provider", "local"))}
}

func (r *Responder) Name() string { return "local" }

// keyword rules, checked in order; first match wins
var rules = []struct {
	keywords []string
	reply    string
}{
	{
		keywords: []string{"你好", "hello", "hi", "hey"},
		reply:    "你好！我是本地智能助手。AI 服务当前不可用，但我可以提供基本的帮助。",
	},
	{
		keywords: []string{"帮助", "help"},
		reply:    "我可以回答常见问题。完整的 AI 能力恢复后会提供更好的回答。",
	},
	{
		keywords: []string{"你是谁", "who are you"},
		reply:    "我是 AI 平台的本地回退助手，在外部 AI 服务不可用时代为应答。",
	},
	{
		keywords: []string{"谢谢", "thanks", "thank you"},
		reply:    "不客气！很高兴能帮到你。",
	},
}

// Respond produces a deterministic reply for prompt. The same prompt always
// yields the same reply.
func (r *Responder) Respond(prompt string) string {
	lower := strings.ToLower(strings.TrimSpace(prompt))

	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				r.logger.Debug("fallback reply matched", zap.String("keyword", kw))
				return rule.reply
			}
		}
	}

	return fmt.Sprintf("AI 服务暂时不可用。已收到你的消息：%q，请稍后重试。", strings.TrimSpace(prompt))
}
