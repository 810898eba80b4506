package history

import (
	"context"

	"github.com/BaSui01/aiplatform/types"
	"go.uber.org/zap"
)

// Bridge ties generation calls into chat history. It decides whether a call
// reuses the user's current chat or opens a new one, and appends the
// user/assistant message pair around each generation.
type Bridge struct {
	store  Store
	cache  *ChatCache // optional
	logger *zap.Logger
}

// NewBridge creates a Bridge. cache may be nil, in which case chat reuse is
// resolved from the database alone.
func NewBridge(store Store, cache *ChatCache, logger *zap.Logger) *Bridge {
	return &Bridge{
		store:  store,
		cache:  cache,
		logger: logger.With(zap.String("component", "history_bridge")),
	}
}

// Store exposes the underlying durable store.
func (b *Bridge) Store() Store { return b.store }

// OpenOrReuseChat returns the user's active chat of kind, creating one titled
// title when none exists. The cached pointer is tried first; a stale pointer
// falls through to the database.
func (b *Bridge) OpenOrReuseChat(ctx context.Context, userID, title, kind string) (*Chat, error) {
	if b.cache != nil {
		if chatID := b.cache.ActiveChat(ctx, userID, kind); chatID != "" {
			chat, err := b.store.GetChat(ctx, chatID)
			if err == nil {
				return chat, nil
			}
			if !types.IsCode(err, types.ErrNotFound) {
				return nil, err
			}
		}
	}

	chat, err := b.store.LatestChat(ctx, userID, kind)
	if types.IsCode(err, types.ErrNotFound) {
		chat, err = b.store.CreateChat(ctx, userID, title, kind)
	}
	if err != nil {
		return nil, err
	}

	if b.cache != nil {
		b.cache.SetActiveChat(ctx, userID, kind, chat.ID)
	}
	return chat, nil
}

// AppendMessage stores one message in chatID.
func (b *Bridge) AppendMessage(ctx context.Context, chatID, role, content string) (*Message, error) {
	return b.store.AppendMessage(ctx, chatID, role, content)
}

// RecordExchange opens or reuses a chat and stores the user prompt followed by
// the assistant reply. It returns the chat and the assistant message.
func (b *Bridge) RecordExchange(ctx context.Context, userID, kind, prompt, reply string) (*Chat, *Message, error) {
	chat, err := b.OpenOrReuseChat(ctx, userID, firstLine(prompt), kind)
	if err != nil {
		return nil, nil, err
	}
	if _, err := b.store.AppendMessage(ctx, chat.ID, RoleUser, prompt); err != nil {
		return chat, nil, err
	}
	msg, err := b.store.AppendMessage(ctx, chat.ID, RoleAssistant, reply)
	if err != nil {
		return chat, nil, err
	}
	return chat, msg, nil
}

// firstLine derives a chat title from the prompt, capped for storage.
func firstLine(prompt string) string {
	const maxTitle = 60
	for i, r := range prompt {
		if r == '\n' || i >= maxTitle {
			return prompt[:i]
		}
	}
	return prompt
}
