package biz

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinko-io/faq-service/internal/model"
)

func setupTestRedis(t *testing.T) *goredis.Client {
	t.Helper()
	client := goredis.NewClient(&goredis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping")
	}
	client.FlushDB(ctx)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestAnswerCache_Disabled(t *testing.T) {
	cache := NewAnswerCache(nil, nil)

	result := &model.AnswerResult{Answer: "réponse", Mode: model.ModeRAG}
	cache.Set(context.Background(), "q", "fr", result)
	assert.Nil(t, cache.Get(context.Background(), "q", "fr"))

	stats := cache.Stats(context.Background())
	assert.Equal(t, false, stats["enabled"])
}

func TestAnswerCache_RoundTrip(t *testing.T) {
	client := setupTestRedis(t)
	cache := NewAnswerCache(client, &AnswerCacheConfig{
		Enabled:   true,
		TTL:       time.Minute,
		KeyPrefix: "test:faq:",
	})

	result := &model.AnswerResult{
		Answer:     "Les gants rouges sont obligatoires.",
		Sources:    []model.Source{{ID: 1, URL: "https://ex.com/regles", Label: "Règlement"}},
		Confidence: model.ConfidenceHigh,
		Mode:       model.ModeRAG,
	}
	cache.Set(context.Background(), "quels gants?", "fr", result)

	got := cache.Get(context.Background(), "quels gants?", "fr")
	require.NotNil(t, got)
	assert.Equal(t, result.Answer, got.Answer)
	assert.Equal(t, result.Sources, got.Sources)

	assert.Nil(t, cache.Get(context.Background(), "quels gants?", "en"),
		"language is part of the cache key")
}

func TestAnswerCache_EventModeNeverCached(t *testing.T) {
	client := setupTestRedis(t)
	cache := NewAnswerCache(client, &AnswerCacheConfig{
		Enabled:   true,
		TTL:       time.Minute,
		KeyPrefix: "test:faq:",
	})

	result := &model.AnswerResult{Answer: "Championnat WKC le 10/05.", Mode: model.ModeEvent}
	cache.Set(context.Background(), "prochaine compétition?", "fr", result)

	assert.Nil(t, cache.Get(context.Background(), "prochaine compétition?", "fr"))
}

func TestAnswerCache_Clear(t *testing.T) {
	client := setupTestRedis(t)
	cache := NewAnswerCache(client, &AnswerCacheConfig{
		Enabled:   true,
		TTL:       time.Minute,
		KeyPrefix: "test:faq:",
	})

	cache.Set(context.Background(), "q1", "fr", &model.AnswerResult{Answer: "a1", Mode: model.ModeRAG})
	cache.Set(context.Background(), "q2", "fr", &model.AnswerResult{Answer: "a2", Mode: model.ModeRAG})

	require.NoError(t, cache.Clear(context.Background()))
	assert.Nil(t, cache.Get(context.Background(), "q1", "fr"))
	assert.Nil(t, cache.Get(context.Background(), "q2", "fr"))

	stats := cache.Stats(context.Background())
	assert.Equal(t, 0, stats["key_count"])
}
