package implementation

import (
	"context"
	"errors"

	"desirefinder-be/internal/entity"
	"desirefinder-be/internal/mapper"
	"desirefinder-be/internal/model"
	"desirefinder-be/internal/repository/contract"
	"desirefinder-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewUserRepository(db *gorm.DB) contract.UserRepository {
	return &UserRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserMapper(),
	}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entity.User) error {
	m := r.mapper.ToModel(user)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*user = *r.mapper.ToEntity(m)
	return nil
}

func (r *UserRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	var m model.User
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

// AdjustCredits is a single conditional UPDATE so concurrent spends cannot
// overdraw the balance.
func (r *UserRepositoryImpl) AdjustCredits(ctx context.Context, userId uuid.UUID, delta int) error {
	query := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userId)
	if delta < 0 {
		query = query.Where("credits >= ?", -delta)
	}
	res := query.Update("credits", gorm.Expr("credits + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return contract.ErrInsufficientCredits
	}
	return nil
}

type CreditTransactionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewCreditTransactionRepository(db *gorm.DB) contract.CreditTransactionRepository {
	return &CreditTransactionRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserMapper(),
	}
}

func (r *CreditTransactionRepositoryImpl) Create(ctx context.Context, tx *entity.CreditTransaction) error {
	m := r.mapper.TransactionToModel(tx)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*tx = *r.mapper.TransactionToEntity(m)
	return nil
}

func (r *CreditTransactionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CreditTransaction, error) {
	var models []*model.CreditTransaction
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.CreditTransaction, len(models))
	for i, m := range models {
		entities[i] = r.mapper.TransactionToEntity(m)
	}
	return entities, nil
}
