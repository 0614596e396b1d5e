package biz

import (
	"context"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kinko-io/faq-service/internal/model"
	"github.com/kinko-io/faq-service/internal/pkg/faq/textutil"
	"github.com/kinko-io/faq-service/pkg/utils/json"
)

// AnswerCacheConfig configures the answer cache.
type AnswerCacheConfig struct {
	// Enabled toggles the cache; disabled means every Get misses.
	Enabled bool
	// TTL is the cache entry lifetime.
	TTL time.Duration
	// KeyPrefix namespaces the cache keys.
	KeyPrefix string
}

// DefaultAnswerCacheConfig returns the default configuration.
func DefaultAnswerCacheConfig() *AnswerCacheConfig {
	return &AnswerCacheConfig{
		Enabled:   false,
		TTL:       1 * time.Hour,
		KeyPrefix: "faq:answer:",
	}
}

// AnswerCache caches assembled answers in Redis, keyed by language and
// question. Event-mode answers are never cached: they embed "next upcoming"
// data that goes stale the moment the event passes.
type AnswerCache struct {
	redis  *goredis.Client
	config *AnswerCacheConfig
}

// NewAnswerCache creates an answer cache.
func NewAnswerCache(redis *goredis.Client, config *AnswerCacheConfig) *AnswerCache {
	if config == nil {
		config = DefaultAnswerCacheConfig()
	}
	return &AnswerCache{redis: redis, config: config}
}

func (c *AnswerCache) enabled() bool {
	return c.config.Enabled && c.redis != nil
}

func (c *AnswerCache) key(question, lang string) string {
	return c.config.KeyPrefix + textutil.HashString(lang+"\x00"+question)
}

// Get returns the cached answer for the question, or nil on a miss. Cache
// failures are logged and reported as misses.
func (c *AnswerCache) Get(ctx context.Context, question, lang string) *model.AnswerResult {
	if !c.enabled() {
		return nil
	}

	cacheKey := c.key(question, lang)
	data, err := c.redis.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if err != goredis.Nil {
			logger.Warnw("Failed to read answer cache", "error", err.Error(), "key", cacheKey)
		}
		return nil
	}

	var result model.AnswerResult
	if err := json.Unmarshal(data, &result); err != nil {
		logger.Warnw("Dropping corrupt cache entry", "error", err.Error(), "key", cacheKey)
		_ = c.redis.Del(ctx, cacheKey).Err()
		return nil
	}
	return &result
}

// Set stores an answer. Event-mode answers are skipped.
func (c *AnswerCache) Set(ctx context.Context, question, lang string, result *model.AnswerResult) {
	if !c.enabled() || result == nil || result.Mode == model.ModeEvent {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		logger.Warnw("Failed to marshal answer for caching", "error", err.Error())
		return
	}

	cacheKey := c.key(question, lang)
	if err := c.redis.Set(ctx, cacheKey, data, c.config.TTL).Err(); err != nil {
		logger.Warnw("Failed to write answer cache", "error", err.Error(), "key", cacheKey)
	}
}

// Clear removes every cached answer under the configured prefix.
func (c *AnswerCache) Clear(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}

	iter := c.redis.Scan(ctx, 0, c.config.KeyPrefix+"*", 0).Iterator()
	deleted := 0
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warnw("Failed to delete cache key", "error", err.Error(), "key", iter.Val())
			continue
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return err
	}

	logger.Infow("Cleared answer cache", "deleted", deleted)
	return nil
}

// Stats reports the cache state for the stats endpoint.
func (c *AnswerCache) Stats(ctx context.Context) map[string]any {
	if !c.enabled() {
		return map[string]any{"enabled": false}
	}

	keys := 0
	iter := c.redis.Scan(ctx, 0, c.config.KeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys++
	}
	if err := iter.Err(); err != nil {
		logger.Warnw("Failed to scan answer cache", "error", err.Error())
	}

	return map[string]any{
		"enabled":    true,
		"key_count":  keys,
		"ttl":        c.config.TTL.String(),
		"key_prefix": c.config.KeyPrefix,
	}
}
