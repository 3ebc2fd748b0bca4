package service

import (
	"context"
	"encoding/json"

	"desirefinder-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type IPublisherService interface {
	SendIndexDocument(ctx context.Context, msg dto.IndexDocumentMessage) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{topicName: topicName, publisher: publisher}
}

func (ps *publisherService) SendIndexDocument(ctx context.Context, req dto.IndexDocumentMessage) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return ps.publisher.Publish(ps.topicName, msg)
}
