package contract

import (
	"context"
	"errors"

	"desirefinder-be/internal/entity"
	"desirefinder-be/internal/repository/specification"

	"github.com/google/uuid"
)

var ErrInsufficientCredits = errors.New("insufficient credits")

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	// AdjustCredits adds delta to the balance. A negative delta that would take
	// the balance below zero fails with ErrInsufficientCredits.
	AdjustCredits(ctx context.Context, userId uuid.UUID, delta int) error
}

type CreditTransactionRepository interface {
	Create(ctx context.Context, tx *entity.CreditTransaction) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CreditTransaction, error)
}
