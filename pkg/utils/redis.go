package utils

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ngandee-matcher/internal/config"
	"ngandee-matcher/internal/logging"
)

// RedisClient wraps the Redis client with embedding-vector caching. Vectors
// are keyed by model name plus a SHA-256 of the source text so identical
// descriptions never hit the embedding API twice.
type RedisClient struct {
	client *redis.Client
	config *config.Config
	logger logging.Logger
}

// cachedVector is the stored representation of one embedding.
type cachedVector struct {
	Model    string    `json:"model"`
	Values   []float32 `json:"values"`
	CachedAt time.Time `json:"cached_at"`
}

// NewRedisClient creates a new Redis client instance
func NewRedisClient(cfg *config.Config) *RedisClient {
	// Parse Redis URL
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		// Fallback to default configuration
		opts = &redis.Options{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
		}
	}

	// Configure timeouts
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	return &RedisClient{
		client: client,
		config: cfg,
		logger: logging.GetGlobalLogger(),
	}
}

// Ping tests the Redis connection
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// GetEmbedding returns a cached embedding vector for the given model/text
// pair, or false when the cache has no entry. Cache errors are logged and
// reported as misses so a degraded Redis never fails a comparison.
func (r *RedisClient) GetEmbedding(ctx context.Context, model, text string) ([]float32, bool) {
	key := r.embeddingKey(model, text)

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("Embedding cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return nil, false
	}

	var cached cachedVector
	if err := json.Unmarshal(data, &cached); err != nil {
		r.logger.Warn("Embedding cache entry corrupt, discarding", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		_ = r.client.Del(ctx, key).Err()
		return nil, false
	}

	return cached.Values, true
}

// StoreEmbedding caches an embedding vector with the configured TTL.
func (r *RedisClient) StoreEmbedding(ctx context.Context, model, text string, values []float32) error {
	key := r.embeddingKey(model, text)

	data, err := json.Marshal(cachedVector{
		Model:    model,
		Values:   values,
		CachedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal embedding vector: %w", err)
	}

	ttl := r.config.Redis.EmbeddingTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store embedding vector: %w", err)
	}
	return nil
}

// embeddingKey builds the cache key for a model/text pair.
func (r *RedisClient) embeddingKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("ngandee:embedding:%s:%x", model, sum)
}
