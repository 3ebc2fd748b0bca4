package dto

import (
	"time"

	"github.com/google/uuid"
)

type UploadDocumentRequest struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"required,max=200000"`
}

type UploadDocumentResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type GetDocumentResponse struct {
	Id         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Status     string     `json:"status"`
	ChunkCount int        `json:"chunkCount"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  *time.Time `json:"updatedAt"`
}

// IndexDocumentMessage is the watermill payload for the indexing consumer.
type IndexDocumentMessage struct {
	DocumentId uuid.UUID `json:"documentId"`
}
