package mapper

import (
	"desirefinder-be/internal/entity"
	"desirefinder-be/internal/model"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}
	return &entity.User{
		Id:        u.Id,
		Email:     u.Email,
		Credits:   u.Credits,
		CreatedAt: u.CreatedAt,
		UpdatedAt: updatedAtPtr(u.UpdatedAt),
	}
}

func (m *UserMapper) ToModel(u *entity.User) *model.User {
	if u == nil {
		return nil
	}
	return &model.User{
		Id:        u.Id,
		Email:     u.Email,
		Credits:   u.Credits,
		CreatedAt: u.CreatedAt,
		UpdatedAt: updatedAtValue(u.UpdatedAt),
	}
}

func (m *UserMapper) TransactionToModel(t *entity.CreditTransaction) *model.CreditTransaction {
	if t == nil {
		return nil
	}
	return &model.CreditTransaction{
		Id:              t.Id,
		UserId:          t.UserId,
		TransactionType: t.TransactionType,
		Amount:          t.Amount,
		ServiceUsed:     t.ServiceUsed,
		RelatedId:       t.RelatedId,
		CreatedAt:       t.CreatedAt,
	}
}

func (m *UserMapper) TransactionToEntity(t *model.CreditTransaction) *entity.CreditTransaction {
	if t == nil {
		return nil
	}
	return &entity.CreditTransaction{
		Id:              t.Id,
		UserId:          t.UserId,
		TransactionType: t.TransactionType,
		Amount:          t.Amount,
		ServiceUsed:     t.ServiceUsed,
		RelatedId:       t.RelatedId,
		CreatedAt:       t.CreatedAt,
	}
}
