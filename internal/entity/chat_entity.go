package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Chat struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	Sources   []string
	Files     []string
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

const (
	MessageStatusAnswering = "answering"
	MessageStatusCompleted = "completed"
	MessageStatusError     = "error"
)

type Message struct {
	Id             uuid.UUID
	MessageId      string
	ChatId         uuid.UUID
	BackendId      string
	Query          string
	Status         string
	ResponseBlocks json.RawMessage
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

type SearchHistory struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Query     string
	Sources   []string
	CreatedAt time.Time
}
