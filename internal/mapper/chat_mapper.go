package mapper

import (
	"encoding/json"

	"desirefinder-be/internal/entity"
	"desirefinder-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Chat Mappers

func (m *ChatMapper) ChatToEntity(c *model.Chat) *entity.Chat {
	if c == nil {
		return nil
	}
	return &entity.Chat{
		Id:        c.Id,
		UserId:    c.UserId,
		Title:     c.Title,
		Sources:   jsonToStrings(c.Sources),
		Files:     jsonToStrings(c.Files),
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAtPtr(c.UpdatedAt),
		DeletedAt: deletedAtPtr(c.DeletedAt),
		IsDeleted: c.DeletedAt.Valid,
	}
}

func (m *ChatMapper) ChatToModel(c *entity.Chat) *model.Chat {
	if c == nil {
		return nil
	}
	return &model.Chat{
		Id:        c.Id,
		UserId:    c.UserId,
		Title:     c.Title,
		Sources:   stringsToJSON(c.Sources),
		Files:     stringsToJSON(c.Files),
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAtValue(c.UpdatedAt),
		DeletedAt: deletedAtValue(c.DeletedAt, c.IsDeleted),
	}
}

// Message Mappers

func (m *ChatMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}
	blocks := json.RawMessage(msg.ResponseBlocks)
	if len(blocks) == 0 {
		blocks = json.RawMessage("[]")
	}
	return &entity.Message{
		Id:             msg.Id,
		MessageId:      msg.MessageId,
		ChatId:         msg.ChatId,
		BackendId:      msg.BackendId,
		Query:          msg.Query,
		Status:         msg.Status,
		ResponseBlocks: blocks,
		CreatedAt:      msg.CreatedAt,
		UpdatedAt:      updatedAtPtr(msg.UpdatedAt),
	}
}

func (m *ChatMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}
	blocks := datatypes.JSON(msg.ResponseBlocks)
	if len(blocks) == 0 {
		blocks = datatypes.JSON("[]")
	}
	return &model.Message{
		Id:             msg.Id,
		MessageId:      msg.MessageId,
		ChatId:         msg.ChatId,
		BackendId:      msg.BackendId,
		Query:          msg.Query,
		Status:         msg.Status,
		ResponseBlocks: blocks,
		CreatedAt:      msg.CreatedAt,
		UpdatedAt:      updatedAtValue(msg.UpdatedAt),
	}
}

func (m *ChatMapper) SearchHistoryToModel(h *entity.SearchHistory) *model.SearchHistory {
	if h == nil {
		return nil
	}
	return &model.SearchHistory{
		Id:        h.Id,
		UserId:    h.UserId,
		Query:     h.Query,
		Sources:   stringsToJSON(h.Sources),
		CreatedAt: h.CreatedAt,
	}
}

func (m *ChatMapper) SearchHistoryToEntity(h *model.SearchHistory) *entity.SearchHistory {
	if h == nil {
		return nil
	}
	return &entity.SearchHistory{
		Id:        h.Id,
		UserId:    h.UserId,
		Query:     h.Query,
		Sources:   jsonToStrings(h.Sources),
		CreatedAt: h.CreatedAt,
	}
}
