// Package embedding provides the Live Ollama-backed vectorization service
// the retrieval pipeline's vector-similarity stage uses when available.
// Grounded on the teacher's internal/extractor.OllamaExtractor availability
// probe and request shape.
package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/ollama/ollama/api"
)

const defaultModel = "nomic-embed-text"

// Client wraps an Ollama server for text embedding.
type Client struct {
	client *api.Client
	model  string
}

// New creates a Live client against the Ollama server found via the
// standard OLLAMA_HOST environment convention. model defaults to
// "nomic-embed-text" if empty.
func New(model string) (*Client, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("embedding: create ollama client: %w", err)
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{client: client, model: model}, nil
}

// IsAvailable probes the Ollama server with a short timeout, mirroring the
// teacher's OllamaExtractor.Available health check.
func (c *Client) IsAvailable(ctx context.Context) bool {
	if c == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err := c.client.List(ctx)
	return err == nil
}

// Embed returns the embedding vector for text as float32, converting from
// Ollama's float64 response.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.Embeddings(ctx, &api.EmbeddingRequest{
		Model:  c.model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding: ollama request failed: %w", err)
	}
	out := make([]float32, len(resp.Embedding))
	for i, f := range resp.Embedding {
		out[i] = float32(f)
	}
	return out, nil
}
