package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	DocumentStatusPending = "PENDING"
	DocumentStatusIndexed = "INDEXED"
	DocumentStatusFailed  = "FAILED"
)

type Document struct {
	Id         uuid.UUID
	UserId     uuid.UUID
	Title      string
	Content    string
	Status     string
	ChunkCount int
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

type DocumentEmbedding struct {
	Id             uuid.UUID
	Document       string
	EmbeddingValue []float32
	DocumentId     uuid.UUID
	ChunkIndex     int
	CreatedAt      time.Time
}
