package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id        uuid.UUID
	Email     string
	Credits   int
	CreatedAt time.Time
	UpdatedAt *time.Time
}

const (
	CreditTransactionGrant = "GRANT"
	CreditTransactionSpend = "SPEND"
)

type CreditTransaction struct {
	Id              uuid.UUID
	UserId          uuid.UUID
	TransactionType string
	Amount          int
	ServiceUsed     *string
	RelatedId       *uuid.UUID
	CreatedAt       time.Time
}
