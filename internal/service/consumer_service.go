package service

import (
	"context"
	"encoding/json"
	"time"

	"desirefinder-be/internal/dto"
	"desirefinder-be/internal/entity"
	"desirefinder-be/internal/pkg/logger"
	"desirefinder-be/internal/repository/specification"
	"desirefinder-be/internal/repository/unitofwork"
	"desirefinder-be/pkg/embedding"
	"desirefinder-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const (
	documentChunkSize    = 1500
	documentChunkOverlap = 200
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService indexes uploaded documents: split, embed, store.
type consumerService struct {
	subscriber        message.Subscriber
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:        subscriber,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		logger:            logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.IndexDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // redelivery would fail the same way
		return
	}

	fields := map[string]interface{}{"document_id": payload.DocumentId.String()}
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		cs.logger.Error("CONSUMER", "Failed to load document", withError(fields, err))
		msg.Nack()
		return
	}
	if doc == nil {
		cs.logger.Warn("CONSUMER", "Document not found", fields)
		msg.Ack()
		return
	}

	chunks := utils.SplitText(doc.Content, documentChunkSize, documentChunkOverlap)
	embeddings := make([]*entity.DocumentEmbedding, 0, len(chunks))
	for i, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(ctx, chunk, embedding.TaskRetrievalDocument)
		if err != nil {
			cs.logger.Error("CONSUMER", "Failed to embed chunk", withError(fields, err))
			cs.markFailed(ctx, doc)
			msg.Ack()
			return
		}
		embeddings = append(embeddings, &entity.DocumentEmbedding{
			Id:             uuid.New(),
			Document:       chunk,
			EmbeddingValue: res.Embedding.Values,
			DocumentId:     doc.Id,
			ChunkIndex:     i,
			CreatedAt:      time.Now(),
		})
	}

	if err := uow.Begin(ctx); err != nil {
		cs.logger.Error("CONSUMER", "Failed to begin transaction", withError(fields, err))
		msg.Nack()
		return
	}
	defer uow.Rollback()

	if err := uow.DocumentEmbeddingRepository().DeleteByDocumentId(ctx, doc.Id); err != nil {
		cs.logger.Error("CONSUMER", "Failed to delete old embeddings", withError(fields, err))
		msg.Nack()
		return
	}
	if len(embeddings) > 0 {
		if err := uow.DocumentEmbeddingRepository().CreateBulk(ctx, embeddings); err != nil {
			cs.logger.Error("CONSUMER", "Failed to store embeddings", withError(fields, err))
			msg.Nack()
			return
		}
	}

	now := time.Now()
	doc.Status = entity.DocumentStatusIndexed
	doc.ChunkCount = len(embeddings)
	doc.UpdatedAt = &now
	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		cs.logger.Error("CONSUMER", "Failed to update document status", withError(fields, err))
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		cs.logger.Error("CONSUMER", "Failed to commit transaction", withError(fields, err))
		msg.Nack()
		return
	}

	fields["chunks"] = len(embeddings)
	cs.logger.Info("CONSUMER", "Document indexed", fields)
	msg.Ack()
}

func (cs *consumerService) markFailed(ctx context.Context, doc *entity.Document) {
	now := time.Now()
	doc.Status = entity.DocumentStatusFailed
	doc.UpdatedAt = &now
	if err := cs.uowFactory.NewUnitOfWork(ctx).DocumentRepository().Update(ctx, doc); err != nil {
		cs.logger.Error("CONSUMER", "Failed to mark document failed", withError(map[string]interface{}{
			"document_id": doc.Id.String(),
		}, err))
	}
}

func withError(fields map[string]interface{}, err error) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["error"] = err.Error()
	return out
}
