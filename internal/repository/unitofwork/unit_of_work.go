package unitofwork

import (
	"context"

	"desirefinder-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	CreditTransactionRepository() contract.CreditTransactionRepository

	ChatRepository() contract.ChatRepository
	MessageRepository() contract.MessageRepository
	SearchHistoryRepository() contract.SearchHistoryRepository

	ProductRepository() contract.ProductRepository
	OrderRepository() contract.OrderRepository

	DocumentRepository() contract.DocumentRepository
	DocumentEmbeddingRepository() contract.DocumentEmbeddingRepository
}
