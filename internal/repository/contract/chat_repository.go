package contract

import (
	"context"
	"time"

	"desirefinder-be/internal/entity"
	"desirefinder-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	Update(ctx context.Context, chat *entity.Chat) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chat, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chat, error)
}

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	Update(ctx context.Context, message *entity.Message) error
	// DeleteAfter hard-deletes every message of the chat created after the given time.
	DeleteAfter(ctx context.Context, chatId uuid.UUID, after time.Time) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
}

type SearchHistoryRepository interface {
	Create(ctx context.Context, history *entity.SearchHistory) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SearchHistory, error)
}
