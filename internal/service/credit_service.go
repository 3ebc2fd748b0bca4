package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"desirefinder-be/internal/config"
	"desirefinder-be/internal/dto"
	"desirefinder-be/internal/entity"
	"desirefinder-be/internal/pkg/logger"
	"desirefinder-be/internal/pkg/serverutils"
	"desirefinder-be/internal/repository/contract"
	"desirefinder-be/internal/repository/specification"
	"desirefinder-be/internal/repository/unitofwork"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const ServiceSearch = "SEARCH"

type ICreditService interface {
	// EnsureUser returns the user, creating it with the free starting credits
	// on first sight.
	EnsureUser(ctx context.Context, userId uuid.UUID) (*entity.User, error)
	Balance(ctx context.Context, userId uuid.UUID) (*dto.CreditBalanceResponse, error)
	Spend(ctx context.Context, userId uuid.UUID, amount int, serviceUsed string, relatedId *uuid.UUID) error
}

type creditService struct {
	uowFactory unitofwork.RepositoryFactory
	cfg        config.CreditsConfig
	logger     logger.ILogger
}

func NewCreditService(uowFactory unitofwork.RepositoryFactory, cfg config.CreditsConfig, logger logger.ILogger) ICreditService {
	return &creditService{uowFactory: uowFactory, cfg: cfg, logger: logger}
}

func (s *creditService) EnsureUser(ctx context.Context, userId uuid.UUID) (*entity.User, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	now := time.Now()
	user = &entity.User{
		Id:        userId,
		Credits:   s.cfg.Free,
		CreatedAt: now,
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if s.cfg.Free > 0 {
		if err := uow.CreditTransactionRepository().Create(ctx, &entity.CreditTransaction{
			Id:              uuid.New(),
			UserId:          userId,
			TransactionType: entity.CreditTransactionGrant,
			Amount:          s.cfg.Free,
			CreatedAt:       now,
		}); err != nil {
			return nil, fmt.Errorf("record free credits: %w", err)
		}
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("CREDITS", "New user granted free credits", map[string]interface{}{
		"user_id": userId.String(),
		"credits": s.cfg.Free,
	})
	return user, nil
}

func (s *creditService) Balance(ctx context.Context, userId uuid.UUID) (*dto.CreditBalanceResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		// created on first search
		return &dto.CreditBalanceResponse{Credits: 0, Authenticated: true}, nil
	}
	return &dto.CreditBalanceResponse{Credits: user.Credits, Authenticated: true}, nil
}

func (s *creditService) Spend(ctx context.Context, userId uuid.UUID, amount int, serviceUsed string, relatedId *uuid.UUID) error {
	if amount <= 0 {
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.UserRepository().AdjustCredits(ctx, userId, -amount); err != nil {
		if errors.Is(err, contract.ErrInsufficientCredits) {
			return serverutils.NewAppError(fiber.StatusPaymentRequired, "Insufficient credits", fiber.Map{"required": amount})
		}
		return err
	}

	if err := uow.CreditTransactionRepository().Create(ctx, &entity.CreditTransaction{
		Id:              uuid.New(),
		UserId:          userId,
		TransactionType: entity.CreditTransactionSpend,
		Amount:          -amount,
		ServiceUsed:     &serviceUsed,
		RelatedId:       relatedId,
		CreatedAt:       time.Now(),
	}); err != nil {
		return fmt.Errorf("record spend: %w", err)
	}

	return uow.Commit()
}
