package features

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/reelmatch/reelmatch/internal/providers"
)

// Embedding vectorizes descriptions with a dense embedding model.
// Blank descriptions never reach the provider and stay zero vectors.
type Embedding struct {
	provider providers.Embedder
	config   providers.Config
	name     string
	dims     int
}

// NewEmbedding wraps an embedding provider as a Vectorizer.
func NewEmbedding(name string, provider providers.Embedder, config providers.Config) *Embedding {
	if config.BatchSize <= 0 {
		config.BatchSize = 32
	}
	return &Embedding{provider: provider, config: config, name: name}
}

func (e *Embedding) Name() string    { return e.name }
func (e *Embedding) Dimensions() int { return e.dims }
func (e *Embedding) Model() string    { return e.config.Model }

// FitTransform embeds every non-blank document in batches.
func (e *Embedding) FitTransform(ctx context.Context, docs []string) ([]Vector, error) {
	vectors := make([]Vector, len(docs))

	var pending []int
	embedBatch := func() error {
		if len(pending) == 0 {
			return nil
		}
		texts := make([]string, len(pending))
		for k, idx := range pending {
			texts[k] = docs[idx]
		}
		out, err := e.provider.Embed(ctx, e.config, texts)
		if err != nil {
			return fmt.Errorf("failed to embed batch: %w", err)
		}
		if len(out) != len(texts) {
			return fmt.Errorf("provider returned %d embeddings for %d texts", len(out), len(texts))
		}
		for k, idx := range pending {
			if e.dims == 0 {
				e.dims = len(out[k])
			} else if len(out[k]) != e.dims {
				return fmt.Errorf("embedding dimension changed from %d to %d", e.dims, len(out[k]))
			}
			v := Dense(out[k])
			v.Normalize()
			vectors[idx] = v
		}
		slog.Debug("Embedded batch", "provider", e.name, "size", len(pending))
		pending = pending[:0]
		return nil
	}

	for i, doc := range docs {
		if strings.TrimSpace(doc) == "" {
			continue
		}
		pending = append(pending, i)
		if len(pending) >= e.config.BatchSize {
			if err := embedBatch(); err != nil {
				return nil, err
			}
		}
	}
	if err := embedBatch(); err != nil {
		return nil, err
	}
	return vectors, nil
}
