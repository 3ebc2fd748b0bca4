package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Chat struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Title     string         `gorm:"type:text;not null"`
	Sources   datatypes.JSON `gorm:"type:jsonb"`
	Files     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Chat) TableName() string {
	return "chats"
}

// Message is one turn: the user's query and the answer blocks produced for it.
type Message struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MessageId      string         `gorm:"type:varchar(100);uniqueIndex;not null"`
	ChatId         uuid.UUID      `gorm:"type:uuid;not null;index"`
	BackendId      string         `gorm:"type:varchar(100)"` // live session handle
	Query          string         `gorm:"type:text;not null"`
	Status         string         `gorm:"type:varchar(20);not null;default:'answering'"`
	ResponseBlocks datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
}

func (Message) TableName() string {
	return "messages"
}

type SearchHistory struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Query     string         `gorm:"type:text;not null"`
	Sources   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
}

func (SearchHistory) TableName() string {
	return "search_histories"
}
