package textsim

import (
	"fmt"

	"ngandee-matcher/internal/config"
	"ngandee-matcher/internal/textsim/providers"
	"ngandee-matcher/pkg/utils"
)

// NewEmbedder creates an embedding provider based on the configuration
func NewEmbedder(cfg *config.Config, cache *utils.RedisClient) (Embedder, error) {
	switch cfg.Embeddings.Provider {
	case "gemini":
		return providers.NewGeminiEmbedder(cfg, cache), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embeddings.Provider)
	}
}
