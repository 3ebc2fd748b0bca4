package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User mirrors the identity provider's user. Only the credit balance is owned here.
type User struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Email     string         `gorm:"type:varchar(255);index"`
	Credits   int            `gorm:"not null;default:0"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
