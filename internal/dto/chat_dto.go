package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type HistoryMessageDTO struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content"`
}

type SendMessageRequest struct {
	ChatId             uuid.UUID           `json:"chatId" validate:"required"`
	MessageId          string              `json:"messageId" validate:"required,max=64"`
	Content            string              `json:"content" validate:"required,max=4000"`
	History            []HistoryMessageDTO `json:"history" validate:"max=50,dive"`
	Sources            []string            `json:"sources" validate:"dive,oneof=shopping personal-documents"`
	OptimizationMode   string              `json:"optimizationMode" validate:"omitempty,oneof=speed balanced quality"`
	SystemInstructions string              `json:"systemInstructions" validate:"max=2000"`
	Files              []uuid.UUID         `json:"files" validate:"max=20"`
}

// StartTurnResponse is returned to the streaming handler, which then attaches
// to the session.
type StartTurnResponse struct {
	SessionId string    `json:"sessionId"`
	ChatId    uuid.UUID `json:"chatId"`
	MessageId string    `json:"messageId"`
}

type GetMessageResponse struct {
	Id             uuid.UUID       `json:"id"`
	MessageId      string          `json:"messageId"`
	BackendId      string          `json:"backendId"`
	Query          string          `json:"query"`
	Status         string          `json:"status"`
	ResponseBlocks json.RawMessage `json:"responseBlocks"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type GetChatMessagesResponse struct {
	ChatId   uuid.UUID             `json:"chatId"`
	Title    string                `json:"title"`
	Sources  []string              `json:"sources"`
	Messages []*GetMessageResponse `json:"messages"`
}
