package textsim

import (
	"context"
	"sync"
	"time"

	"ngandee-matcher/internal/config"
	"ngandee-matcher/internal/logging"
)

// Manager selects between the embedding and lexical strategies and owns the
// failure circuit: after FailureThreshold consecutive embedding errors the
// embedding path is taken out of rotation for CooldownPeriod, during which
// every comparison answers lexically with the downgraded flag set. A
// comparison never fails because embeddings did.
type Manager struct {
	config   *config.Config
	lexical  *Lexical
	embedder Embedder
	logger   logging.Logger

	mu        sync.RWMutex
	failures  int
	downUntil time.Time
}

// NewManager creates a text similarity manager. embedder may be nil when
// embeddings are disabled; every comparison is then lexical.
func NewManager(cfg *config.Config, embedder Embedder) *Manager {
	return &Manager{
		config:   cfg,
		lexical:  NewLexical(),
		embedder: embedder,
		logger:   logging.GetGlobalLogger(),
	}
}

// Start warms up the embedding provider. A failed warm-up is logged but not
// fatal; the provider gets retried on first use.
func (m *Manager) Start(ctx context.Context) error {
	if m.embedder == nil {
		m.logger.Info("Text similarity running in lexical-only mode")
		return nil
	}
	if err := m.embedder.IsHealthy(ctx); err != nil {
		m.logger.Warn("Embedding provider not healthy at startup, will retry on demand", map[string]interface{}{
			"provider": m.embedder.Name(),
			"error":    err.Error(),
		})
		return nil
	}
	m.logger.Info("Embedding provider ready", map[string]interface{}{
		"provider": m.embedder.Name(),
		"model":    m.config.Embeddings.Model,
	})
	return nil
}

// Stop releases provider resources
func (m *Manager) Stop() error {
	if m.embedder == nil {
		return nil
	}
	return m.embedder.Close()
}

// EmbeddingsActive reports whether the embedding strategy is currently usable.
// Callers ranking a batch check this once up front so the whole batch uses a
// single strategy.
func (m *Manager) EmbeddingsActive() bool {
	if m.embedder == nil || !m.config.Embeddings.Enabled {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return time.Now().After(m.downUntil)
}

// Compare scores two texts in [0,1]. When useEmbeddings is set and the
// embedding path is usable, both texts are embedded and scored by cosine
// similarity; any embedding error falls back to the lexical score and reports
// downgraded=true. Empty input on either side scores 0 without touching the
// provider.
func (m *Manager) Compare(ctx context.Context, a, b string, useEmbeddings bool) (float64, bool, error) {
	if len(Tokenize(a)) == 0 || len(Tokenize(b)) == 0 {
		return 0.0, false, nil
	}

	wantEmbeddings := useEmbeddings && m.embedder != nil && m.config.Embeddings.Enabled
	if !wantEmbeddings {
		return m.lexical.Similarity(a, b), false, nil
	}
	if !m.EmbeddingsActive() {
		return m.lexical.Similarity(a, b), true, nil
	}

	vecA, err := m.embedder.Embed(ctx, a)
	if err != nil {
		return m.fallback(a, b, err)
	}
	vecB, err := m.embedder.Embed(ctx, b)
	if err != nil {
		return m.fallback(a, b, err)
	}

	m.recordSuccess()
	return Cosine(vecA, vecB), false, nil
}

func (m *Manager) fallback(a, b string, cause error) (float64, bool, error) {
	m.recordFailure(cause)
	return m.lexical.Similarity(a, b), true, nil
}

func (m *Manager) recordSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = 0
}

func (m *Manager) recordFailure(cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
	m.logger.Warn("Embedding call failed, answered lexically", map[string]interface{}{
		"provider":             m.embedder.Name(),
		"consecutive_failures": m.failures,
		"error":                cause.Error(),
	})
	if m.failures >= m.config.Embeddings.FailureThreshold {
		m.downUntil = time.Now().Add(m.config.Embeddings.CooldownPeriod)
		m.failures = 0
		m.logger.Error("Embedding provider circuit opened", map[string]interface{}{
			"provider":   m.embedder.Name(),
			"down_until": m.downUntil.Format(time.RFC3339),
		})
	}
}
