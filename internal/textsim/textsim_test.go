package textsim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngandee-matcher/internal/config"
	"ngandee-matcher/internal/logging"
)

func init() {
	_ = logging.InitializeLogging(&config.Config{})
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Embeddings.Enabled = true
	cfg.Embeddings.Provider = "gemini"
	cfg.Embeddings.FailureThreshold = 3
	cfg.Embeddings.CooldownPeriod = 5 * time.Minute
	return cfg
}

type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) IsHealthy(context.Context) error { return f.err }
func (f *fakeEmbedder) Name() string                    { return "fake" }
func (f *fakeEmbedder) Close() error                    { return nil }

func TestLexicalSimilarity(t *testing.T) {
	lex := NewLexical()

	t.Run("identical texts score 1", func(t *testing.T) {
		assert.Equal(t, 1.0, lex.Similarity("cooking cleaning", "cooking cleaning"))
	})

	t.Run("case insensitive", func(t *testing.T) {
		assert.Equal(t, 1.0, lex.Similarity("Cooking", "cooking"))
	})

	t.Run("comma separated skills", func(t *testing.T) {
		// both sides have 2 words, 1 shared
		assert.Equal(t, 0.5, lex.Similarity("cooking,cleaning", "cooking, ironing"))
	})

	t.Run("no overlap scores 0", func(t *testing.T) {
		assert.Equal(t, 0.0, lex.Similarity("welding", "cooking"))
	})

	t.Run("empty inputs score 0", func(t *testing.T) {
		assert.Equal(t, 0.0, lex.Similarity("", "cooking"))
		assert.Equal(t, 0.0, lex.Similarity("cooking", ""))
		assert.Equal(t, 0.0, lex.Similarity("", ""))
		assert.Equal(t, 0.0, lex.Similarity("  , ,  ", "cooking"))
	})

	t.Run("duplicates count once", func(t *testing.T) {
		assert.Equal(t, 1.0, lex.Similarity("cooking cooking cooking", "cooking"))
	})

	t.Run("denominator is the larger set", func(t *testing.T) {
		// 1 shared out of max(1, 4)
		assert.Equal(t, 0.25, lex.Similarity("cooking", "cooking cleaning ironing laundry"))
	})
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Tokenize("A, b\tC"))
	assert.Empty(t, Tokenize(" ,,, "))
}

func TestCosine(t *testing.T) {
	t.Run("identical vectors score 1", func(t *testing.T) {
		assert.InDelta(t, 1.0, Cosine([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	})

	t.Run("orthogonal vectors score 0", func(t *testing.T) {
		assert.Equal(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}))
	})

	t.Run("opposite vectors clamp to 0", func(t *testing.T) {
		assert.Equal(t, 0.0, Cosine([]float32{1, 0}, []float32{-1, 0}))
	})

	t.Run("zero magnitude scores 0", func(t *testing.T) {
		assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}))
	})

	t.Run("mismatched or empty vectors score 0", func(t *testing.T) {
		assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 2}))
		assert.Equal(t, 0.0, Cosine(nil, []float32{1}))
	})
}

func TestManagerCompare(t *testing.T) {
	ctx := context.Background()

	t.Run("lexical only when no embedder", func(t *testing.T) {
		m := NewManager(testConfig(), nil)
		score, downgraded, err := m.Compare(ctx, "cooking", "cooking", true)
		require.NoError(t, err)
		assert.Equal(t, 1.0, score)
		assert.False(t, downgraded)
		assert.False(t, m.EmbeddingsActive())
	})

	t.Run("embedding path uses cosine", func(t *testing.T) {
		fake := &fakeEmbedder{vectors: map[string][]float32{
			"cooking thai food": {1, 0},
			"cleaning":          {0, 1},
		}}
		m := NewManager(testConfig(), fake)
		score, downgraded, err := m.Compare(ctx, "cooking thai food", "cleaning", true)
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
		assert.False(t, downgraded)
		assert.Equal(t, 2, fake.calls)
	})

	t.Run("caller can request lexical", func(t *testing.T) {
		fake := &fakeEmbedder{}
		m := NewManager(testConfig(), fake)
		score, downgraded, err := m.Compare(ctx, "cooking", "cooking", false)
		require.NoError(t, err)
		assert.Equal(t, 1.0, score)
		assert.False(t, downgraded)
		assert.Zero(t, fake.calls)
	})

	t.Run("empty text short-circuits to 0", func(t *testing.T) {
		fake := &fakeEmbedder{}
		m := NewManager(testConfig(), fake)
		score, downgraded, err := m.Compare(ctx, "", "cooking", true)
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
		assert.False(t, downgraded)
		assert.Zero(t, fake.calls)
	})

	t.Run("embedding failure falls back to lexical", func(t *testing.T) {
		fake := &fakeEmbedder{err: errors.New("quota exceeded")}
		m := NewManager(testConfig(), fake)
		score, downgraded, err := m.Compare(ctx, "cooking", "cooking", true)
		require.NoError(t, err)
		assert.Equal(t, 1.0, score)
		assert.True(t, downgraded)
	})

	t.Run("circuit opens after consecutive failures", func(t *testing.T) {
		fake := &fakeEmbedder{err: errors.New("unavailable")}
		m := NewManager(testConfig(), fake)
		for i := 0; i < 3; i++ {
			_, downgraded, err := m.Compare(ctx, "cooking", "cooking", true)
			require.NoError(t, err)
			assert.True(t, downgraded)
		}
		assert.False(t, m.EmbeddingsActive())

		// while the circuit is open the provider is not called at all
		callsBefore := fake.calls
		_, downgraded, err := m.Compare(ctx, "cooking", "cooking", true)
		require.NoError(t, err)
		assert.True(t, downgraded)
		assert.Equal(t, callsBefore, fake.calls)
	})

	t.Run("success resets the failure count", func(t *testing.T) {
		fake := &fakeEmbedder{}
		m := NewManager(testConfig(), fake)

		fake.err = errors.New("flaky")
		_, _, _ = m.Compare(ctx, "cooking", "cooking", true)
		_, _, _ = m.Compare(ctx, "cooking", "cooking", true)

		fake.err = nil
		_, downgraded, err := m.Compare(ctx, "cooking", "cooking", true)
		require.NoError(t, err)
		assert.False(t, downgraded)

		fake.err = errors.New("flaky")
		_, _, _ = m.Compare(ctx, "cooking", "cooking", true)
		assert.True(t, m.EmbeddingsActive())
	})
}
