package contract

import (
	"context"

	"desirefinder-be/internal/entity"
	"desirefinder-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DocumentRepository interface {
	Create(ctx context.Context, document *entity.Document) error
	Update(ctx context.Context, document *entity.Document) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error)
}

// ScoredDocumentEmbedding wraps a chunk with its cosine similarity (1.0 = identical).
type ScoredDocumentEmbedding struct {
	Embedding  *entity.DocumentEmbedding
	Title      string
	Similarity float64
}

type DocumentEmbeddingRepository interface {
	CreateBulk(ctx context.Context, embeddings []*entity.DocumentEmbedding) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	// SearchSimilarWithScore ranks the user's chunks by similarity. An empty
	// documentIds searches all of the user's documents.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, documentIds []uuid.UUID, threshold float64) ([]*ScoredDocumentEmbedding, error)
}
