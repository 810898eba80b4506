package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ChatCache remembers each user's active chat per kind in Redis, so repeated
// generation calls within the reuse window land in the same chat without a
// database lookup. Cache failures degrade to the database path; they are
// logged and never returned.
type ChatCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewChatCache creates a cache with the given reuse window.
func NewChatCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ChatCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ChatCache{
		client: client,
		ttl:    ttl,
		logger: logger.With(zap.String("component", "chat_cache")),
	}
}

func chatKey(userID, kind string) string {
	return fmt.Sprintf("aiplatform:active_chat:%s:%s", userID, kind)
}

// ActiveChat returns the cached chat id for the user and kind, or "" on miss.
func (c *ChatCache) ActiveChat(ctx context.Context, userID, kind string) string {
	val, err := c.client.Get(ctx, chatKey(userID, kind)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("active chat lookup failed", zap.Error(err))
		}
		return ""
	}
	return val
}

// SetActiveChat records chatID as the user's active chat and refreshes the
// reuse window.
func (c *ChatCache) SetActiveChat(ctx context.Context, userID, kind, chatID string) {
	if err := c.client.Set(ctx, chatKey(userID, kind), chatID, c.ttl).Err(); err != nil {
		c.logger.Warn("active chat update failed", zap.Error(err))
	}
}
