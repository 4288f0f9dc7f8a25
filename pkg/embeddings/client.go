package embeddings

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/blitz-ai/feedback-console/pkg/config"
)

// Client computes embedding vectors for document text fields. The service is
// external; callers treat any failure as terminal for the operation at hand
// and never retry internally.
type Client interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIClient talks to an OpenAI-compatible embedding endpoint.
type OpenAIClient struct {
	client *openai.Client
	model  openai.EmbeddingModel
	logger *zap.Logger
}

// NewOpenAIClient creates an embedding client from configuration.
func NewOpenAIClient(cfg *config.EmbeddingsConfig, logger *zap.Logger) *OpenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  openai.EmbeddingModel(cfg.Model),
		logger: logger,
	}
}

var _ Client = (*OpenAIClient)(nil)

// Embed returns the embedding vector for one text.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("no text provided for embedding")
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Data) != 1 {
		return nil, fmt.Errorf("embedding count mismatch: got %d, expected 1", len(resp.Data))
	}

	return resp.Data[0].Embedding, nil
}
