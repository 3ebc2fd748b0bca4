package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"desirefinder-be/internal/entity"
	"desirefinder-be/internal/repository/specification"
	"desirefinder-be/internal/repository/unitofwork"
	"desirefinder-be/pkg/agent/orchestrator"
	"desirefinder-be/pkg/agent/session"

	"github.com/google/uuid"
)

var ErrTurnNotFound = fmt.Errorf("turn message not found")

// ITurnStoreService persists turns for the orchestrator and keeps the user's
// search history.
type ITurnStoreService interface {
	orchestrator.TurnStore
	orchestrator.HistoryRecorder
}

type turnStoreService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewTurnStoreService(uowFactory unitofwork.RepositoryFactory) ITurnStoreService {
	return &turnStoreService{uowFactory: uowFactory}
}

func (s *turnStoreService) BeginTurn(ctx context.Context, rec orchestrator.TurnRecord) error {
	chatId, err := uuid.Parse(rec.ChatID)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", rec.ChatID, err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	existing, err := uow.MessageRepository().FindOne(ctx, specification.ByMessageID{MessageID: rec.MsgID})
	if err != nil {
		return err
	}

	now := time.Now()
	if existing != nil {
		// regenerating: everything after this message belongs to the old branch
		if err := uow.MessageRepository().DeleteAfter(ctx, existing.ChatId, existing.CreatedAt); err != nil {
			return fmt.Errorf("drop later messages: %w", err)
		}
		existing.BackendId = rec.SessionID
		existing.Query = rec.Query
		existing.Status = entity.MessageStatusAnswering
		existing.ResponseBlocks = json.RawMessage("[]")
		existing.UpdatedAt = &now
		if err := uow.MessageRepository().Update(ctx, existing); err != nil {
			return err
		}
	} else {
		if err := uow.MessageRepository().Create(ctx, &entity.Message{
			Id:             uuid.New(),
			MessageId:      rec.MsgID,
			ChatId:         chatId,
			BackendId:      rec.SessionID,
			Query:          rec.Query,
			Status:         entity.MessageStatusAnswering,
			ResponseBlocks: json.RawMessage("[]"),
			CreatedAt:      now,
		}); err != nil {
			return err
		}
	}

	return uow.Commit()
}

func (s *turnStoreService) CompleteTurn(ctx context.Context, msgID string, blocks []session.Block) error {
	return s.finish(ctx, msgID, entity.MessageStatusCompleted, blocks)
}

func (s *turnStoreService) FailTurn(ctx context.Context, msgID string, blocks []session.Block) error {
	return s.finish(ctx, msgID, entity.MessageStatusError, blocks)
}

func (s *turnStoreService) finish(ctx context.Context, msgID, status string, blocks []session.Block) error {
	if blocks == nil {
		blocks = []session.Block{}
	}
	raw, err := json.Marshal(blocks)
	if err != nil {
		return fmt.Errorf("marshal blocks: %w", err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	msg, err := uow.MessageRepository().FindOne(ctx, specification.ByMessageID{MessageID: msgID})
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrTurnNotFound
	}

	now := time.Now()
	msg.Status = status
	msg.ResponseBlocks = raw
	msg.UpdatedAt = &now
	return uow.MessageRepository().Update(ctx, msg)
}

func (s *turnStoreService) RecordSearch(ctx context.Context, userID, query string, sources []string) error {
	userId, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.SearchHistoryRepository().Create(ctx, &entity.SearchHistory{
		Id:        uuid.New(),
		UserId:    userId,
		Query:     query,
		Sources:   sources,
		CreatedAt: time.Now(),
	})
}
