package model

import (
	"time"

	"github.com/google/uuid"
)

type CreditTransaction struct {
	Id              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId          uuid.UUID  `gorm:"type:uuid;not null;index"`
	TransactionType string     `gorm:"type:varchar(20);not null"` // GRANT | SPEND
	Amount          int        `gorm:"not null"`
	ServiceUsed     *string    `gorm:"type:text;index"`
	RelatedId       *uuid.UUID `gorm:"type:uuid"`
	CreatedAt       time.Time  `gorm:"default:now();not null"`
}

func (CreditTransaction) TableName() string {
	return "credit_transactions"
}
