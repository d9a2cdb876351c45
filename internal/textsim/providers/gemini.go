package providers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"ngandee-matcher/internal/config"
	"ngandee-matcher/internal/logging"
	"ngandee-matcher/pkg/utils"
)

// GeminiEmbedder produces text embeddings through the Gemini API. The genai
// client is created lazily on first use; concurrent callers that arrive while
// a load is in flight wait for that load instead of starting their own.
type GeminiEmbedder struct {
	config  *config.Config
	cache   *utils.RedisClient
	limiter *rate.Limiter
	logger  logging.Logger

	mu      sync.Mutex
	client  *genai.Client
	loading chan struct{}
	loadErr error
}

// NewGeminiEmbedder creates a new Gemini embedding provider. cache may be
// nil, in which case every call goes to the API.
func NewGeminiEmbedder(cfg *config.Config, cache *utils.RedisClient) *GeminiEmbedder {
	perSecond := rate.Limit(float64(cfg.Embeddings.RateLimit) / 60.0)
	burst := cfg.Embeddings.RateLimit / 10
	if burst < 1 {
		burst = 1
	}
	return &GeminiEmbedder{
		config:  cfg,
		cache:   cache,
		limiter: rate.NewLimiter(perSecond, burst),
		logger:  logging.GetGlobalLogger(),
	}
}

// Name returns the provider name
func (g *GeminiEmbedder) Name() string {
	return "gemini"
}

// getClient returns the shared genai client, loading it on first call. A
// failed load is not cached: the next caller triggers a fresh attempt.
func (g *GeminiEmbedder) getClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	if g.client != nil {
		client := g.client
		g.mu.Unlock()
		return client, nil
	}
	if g.loading == nil {
		g.loading = make(chan struct{})
		go g.load()
	}
	ch := g.loading
	g.mu.Unlock()

	select {
	case <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client == nil {
		return nil, g.loadErr
	}
	return g.client, nil
}

func (g *GeminiEmbedder) load() {
	loadCtx, cancel := context.WithTimeout(context.Background(), g.config.Embeddings.Timeout)
	defer cancel()

	start := time.Now()
	client, err := genai.NewClient(loadCtx, option.WithAPIKey(g.config.Embeddings.APIKey))

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.loadErr = fmt.Errorf("failed to create gemini client: %w", err)
		g.logger.Error("Gemini client load failed", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		g.client = client
		g.loadErr = nil
		g.logger.Info("Gemini client loaded", map[string]interface{}{
			"model":     g.config.Embeddings.Model,
			"load_time": time.Since(start).String(),
		})
	}
	close(g.loading)
	g.loading = nil
}

// Embed returns the embedding vector for the given text, consulting the
// Redis cache before calling the API.
func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if g.config.Embeddings.APIKey == "" {
		return nil, utils.NewEmbeddingError("gemini API key is not configured")
	}

	if g.cache != nil {
		if vec, ok := g.cache.GetEmbedding(ctx, g.config.Embeddings.Model, text); ok {
			return vec, nil
		}
	}

	client, err := g.getClient(ctx)
	if err != nil {
		return nil, err
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limiter: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.config.Embeddings.Timeout)
	defer cancel()

	em := client.EmbeddingModel(g.config.Embeddings.Model)
	res, err := em.EmbedContent(callCtx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embed content: %w", err)
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini returned an empty embedding")
	}

	if g.cache != nil {
		g.cache.StoreEmbedding(ctx, g.config.Embeddings.Model, text, res.Embedding.Values)
	}

	return res.Embedding.Values, nil
}

// IsHealthy checks if the embedding provider is available
func (g *GeminiEmbedder) IsHealthy(ctx context.Context) error {
	if g.config.Embeddings.APIKey == "" {
		return fmt.Errorf("gemini API key is not configured")
	}
	_, err := g.getClient(ctx)
	return err
}

// Close releases the underlying genai client
func (g *GeminiEmbedder) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		err := g.client.Close()
		g.client = nil
		return err
	}
	return nil
}
