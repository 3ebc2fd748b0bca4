package embedding

import "context"

// Task types understood by the Gemini embedding endpoint.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}

// NewProvider picks the embedding backend by name.
func NewProvider(providerType, apiKey, model, ollamaBaseURL string) (EmbeddingProvider, error) {
	switch providerType {
	case "ollama":
		return NewOllamaProvider(ollamaBaseURL, model), nil
	default:
		return NewGeminiProvider(context.Background(), apiKey, model)
	}
}
