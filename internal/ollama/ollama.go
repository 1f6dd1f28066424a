package ollama

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	json "github.com/goccy/go-json"

	"github.com/reelmatch/reelmatch/internal/providers"
)

// DefaultModel is used when no embedding model is configured
const DefaultModel = "nomic-embed-text"

// Ollama is an embedding provider backed by a local Ollama server
type Ollama struct{}

// New returns a new Ollama provider
func New() *Ollama {
	return &Ollama{}
}

// Embed embeds texts with the Ollama /api/embed endpoint
func (o *Ollama) Embed(ctx context.Context, config providers.Config, texts []string) ([][]float32, error) {
	ollamaURL := os.Getenv("OLLAMA_URL")
	if ollamaURL == "" {
		ollamaURL = "http://localhost:11434"
	}
	url := ollamaURL + "/api/embed"

	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"model": model,
		"input": texts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings from Ollama, got %d", len(texts), len(response.Embeddings))
	}

	return response.Embeddings, nil
}
