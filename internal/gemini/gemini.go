package gemini

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/reelmatch/reelmatch/internal/providers"
)

// DefaultModel is used when no embedding model is configured
const DefaultModel = "text-embedding-004"

// Gemini is an embedding provider for Google Gemini
type Gemini struct{}

// New returns a new Gemini provider
func New() *Gemini {
	return &Gemini{}
}

// Embed embeds texts with a batch embedding request
func (g *Gemini) Embed(ctx context.Context, config providers.Config, texts []string) ([][]float32, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	modelName := config.Model
	if modelName == "" {
		modelName = DefaultModel
	}
	model := client.EmbeddingModel(modelName)

	batch := model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	resp, err := model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings from Gemini, got %d", len(texts), len(resp.Embeddings))
	}

	embeddings := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e == nil {
			return nil, fmt.Errorf("empty embedding returned from Gemini at %d", i)
		}
		embeddings[i] = e.Values
	}
	return embeddings, nil
}
