package embedding

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "text-embedding-004"

type GeminiProvider struct {
	client *genai.Client
	Model  string
}

func NewGeminiProvider(ctx context.Context, apiKey, model string) (EmbeddingProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiProvider{client: client, Model: model}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	var cfg *genai.EmbedContentConfig
	if taskType != "" {
		cfg = &genai.EmbedContentConfig{TaskType: taskType}
	}

	result, err := p.client.Models.EmbedContent(ctx, p.Model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if result == nil || len(result.Embeddings) == 0 || result.Embeddings[0] == nil {
		return nil, errors.New("gemini embed: empty response")
	}

	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{Values: result.Embeddings[0].Values},
	}, nil
}
