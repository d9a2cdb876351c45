// Package textsim scores free-text similarity between job descriptions and
// worker skills. Two interchangeable strategies exist: a synchronous lexical
// word-overlap score that is always available, and an embedding-based cosine
// similarity backed by an external model. The Manager owns strategy
// selection and the fallback policy.
package textsim

import "context"

// Strategy names reported alongside ranking results.
const (
	StrategyLexical   = "lexical"
	StrategyEmbedding = "embedding"
)

// Embedder produces fixed-dimension vector embeddings for text. Providers
// are expected to load their model once and reuse it across calls.
type Embedder interface {
	// Embed returns the embedding vector for the given text
	Embed(ctx context.Context, text string) ([]float32, error)

	// IsHealthy checks if the embedding provider is available
	IsHealthy(ctx context.Context) error

	// Name returns the name of the embedding provider
	Name() string

	// Close releases any resources held by the provider
	Close() error
}

// Comparer is the similarity surface the match scorer depends on.
type Comparer interface {
	// Compare scores two texts in [0,1]. downgraded reports that the
	// embedding strategy was requested but the lexical strategy answered.
	Compare(ctx context.Context, a, b string, useEmbeddings bool) (score float64, downgraded bool, err error)

	// EmbeddingsActive reports whether the embedding strategy is currently usable.
	EmbeddingsActive() bool
}
