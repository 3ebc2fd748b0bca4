package factory

import (
	"context"
	"fmt"

	"desirefinder-be/pkg/llm"
	"desirefinder-be/pkg/llm/gemini"
	"desirefinder-be/pkg/llm/ollama"
)

func NewLLMProvider(ctx context.Context, providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "gemini", "":
		return gemini.NewGeminiProvider(ctx, apiKey, modelName)
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
