package providers

import (
	"context"
)

// Config represents the configuration for an embedding provider
type Config struct {
	Model     string
	BatchSize int
}

// Embedder turns texts into dense embedding vectors, one per input text
type Embedder interface {
	Embed(ctx context.Context, config Config, texts []string) ([][]float32, error)
}
