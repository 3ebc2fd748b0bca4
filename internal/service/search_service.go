package service

import (
	"context"
	"time"

	"desirefinder-be/internal/dto"
	"desirefinder-be/internal/entity"
	"desirefinder-be/internal/pkg/logger"
	"desirefinder-be/internal/pkg/serverutils"
	"desirefinder-be/internal/repository/specification"
	"desirefinder-be/internal/repository/unitofwork"
	"desirefinder-be/pkg/agent/session"
	"desirefinder-be/pkg/agent/turn"
	"desirefinder-be/pkg/llm"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// TurnRunner drives one turn to its terminal event.
type TurnRunner interface {
	Run(ctx context.Context, sess *session.Session, in turn.Input) error
}

// TurnStream is a live turn as seen by one listener. Blocks is the state
// already stored when the listener attached; Subscription carries the rest.
type TurnStream struct {
	SessionID    string
	Blocks       []session.Block
	Subscription *session.Subscription
}

type ISearchService interface {
	// StartTurn charges the search, starts the turn in the background and
	// returns a stream attached before the first event.
	StartTurn(ctx context.Context, userId uuid.UUID, req *dto.SendMessageRequest) (*TurnStream, error)
	// Attach joins a live session by id.
	Attach(ctx context.Context, sessionId string) (*TurnStream, error)
	GetMessages(ctx context.Context, userId uuid.UUID, chatId uuid.UUID) (*dto.GetChatMessagesResponse, error)
}

type searchService struct {
	uowFactory  unitofwork.RepositoryFactory
	credits     ICreditService
	runner      TurnRunner
	registry    *session.Registry
	searchCost  int
	turnTimeout time.Duration
	logger      logger.ILogger
}

func NewSearchService(
	uowFactory unitofwork.RepositoryFactory,
	credits ICreditService,
	runner TurnRunner,
	registry *session.Registry,
	searchCost int,
	turnTimeout time.Duration,
	logger logger.ILogger,
) ISearchService {
	return &searchService{
		uowFactory:  uowFactory,
		credits:     credits,
		runner:      runner,
		registry:    registry,
		searchCost:  searchCost,
		turnTimeout: turnTimeout,
		logger:      logger,
	}
}

func (s *searchService) StartTurn(ctx context.Context, userId uuid.UUID, req *dto.SendMessageRequest) (*TurnStream, error) {
	if _, err := s.credits.EnsureUser(ctx, userId); err != nil {
		return nil, err
	}

	if err := s.ensureChat(ctx, userId, req); err != nil {
		return nil, err
	}

	if err := s.credits.Spend(ctx, userId, s.searchCost, ServiceSearch, nil); err != nil {
		return nil, err
	}

	sess := s.registry.Create()
	blocks, sub := sess.SubscribeWithSnapshot()

	in := toTurnInput(userId, req)
	go s.run(sess, in)

	s.logger.Info("SEARCH", "Turn started", map[string]interface{}{
		"session_id": sess.ID(),
		"chat_id":    req.ChatId.String(),
		"message_id": req.MessageId,
		"mode":       string(in.Config.Mode),
	})

	return &TurnStream{SessionID: sess.ID(), Blocks: blocks, Subscription: sub}, nil
}

// run outlives the request that started it; a disconnecting client only
// detaches its subscription.
func (s *searchService) run(sess *session.Session, in turn.Input) {
	ctx := context.Background()
	if s.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.turnTimeout)
		defer cancel()
	}

	if err := s.runner.Run(ctx, sess, in); err != nil {
		s.logger.Warn("SEARCH", "Turn failed", map[string]interface{}{
			"session_id": sess.ID(),
			"chat_id":    in.ChatID,
			"error":      err.Error(),
		})
	}
}

func (s *searchService) Attach(ctx context.Context, sessionId string) (*TurnStream, error) {
	sess, ok := s.registry.Get(sessionId)
	if !ok {
		return nil, serverutils.NewAppError(fiber.StatusNotFound, "Session not found", nil)
	}
	blocks, sub := sess.SubscribeWithSnapshot()
	return &TurnStream{SessionID: sess.ID(), Blocks: blocks, Subscription: sub}, nil
}

func (s *searchService) ensureChat(ctx context.Context, userId uuid.UUID, req *dto.SendMessageRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chat, err := uow.ChatRepository().FindOne(ctx, specification.ByID{ID: req.ChatId})
	if err != nil {
		return err
	}
	if chat != nil {
		if chat.UserId != userId {
			return serverutils.NewAppError(fiber.StatusNotFound, "Chat not found", nil)
		}
		return nil
	}

	files := make([]string, 0, len(req.Files))
	for _, f := range req.Files {
		files = append(files, f.String())
	}

	return uow.ChatRepository().Create(ctx, &entity.Chat{
		Id:        req.ChatId,
		UserId:    userId,
		Title:     chatTitle(req.Content),
		Sources:   req.Sources,
		Files:     files,
		CreatedAt: time.Now(),
	})
}

func (s *searchService) GetMessages(ctx context.Context, userId uuid.UUID, chatId uuid.UUID) (*dto.GetChatMessagesResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chat, err := uow.ChatRepository().FindOne(ctx,
		specification.ByID{ID: chatId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, serverutils.NewAppError(fiber.StatusNotFound, "Chat not found", nil)
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByChatID{ChatID: chatId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	res := &dto.GetChatMessagesResponse{
		ChatId:   chat.Id,
		Title:    chat.Title,
		Sources:  chat.Sources,
		Messages: make([]*dto.GetMessageResponse, 0, len(messages)),
	}
	for _, m := range messages {
		res.Messages = append(res.Messages, &dto.GetMessageResponse{
			Id:             m.Id,
			MessageId:      m.MessageId,
			BackendId:      m.BackendId,
			Query:          m.Query,
			Status:         m.Status,
			ResponseBlocks: m.ResponseBlocks,
			CreatedAt:      m.CreatedAt,
		})
	}
	return res, nil
}

func toTurnInput(userId uuid.UUID, req *dto.SendMessageRequest) turn.Input {
	history := make([]llm.Message, 0, len(req.History))
	for _, h := range req.History {
		history = append(history, llm.Message{Role: h.Role, Content: h.Content})
	}

	fileIds := make([]string, 0, len(req.Files))
	for _, f := range req.Files {
		fileIds = append(fileIds, f.String())
	}

	return turn.Input{
		ChatID:   req.ChatId.String(),
		MsgID:    req.MessageId,
		UserID:   userId.String(),
		History:  history,
		FollowUp: req.Content,
		Config: turn.Config{
			Sources:            req.Sources,
			Mode:               turn.ParseMode(req.OptimizationMode),
			SystemInstructions: req.SystemInstructions,
			FileIDs:            fileIds,
		},
	}
}

func chatTitle(content string) string {
	runes := []rune(content)
	if len(runes) > 100 {
		return string(runes[:100])
	}
	return content
}
