package service

import (
	"context"
	"fmt"
	"time"

	"desirefinder-be/internal/dto"
	"desirefinder-be/internal/entity"
	"desirefinder-be/internal/pkg/logger"
	"desirefinder-be/internal/repository/specification"
	"desirefinder-be/internal/repository/unitofwork"
	"desirefinder-be/pkg/agent/research"
	"desirefinder-be/pkg/embedding"

	"github.com/google/uuid"
)

// Chunks below this cosine similarity are not worth citing.
const documentSimilarityThreshold = 0.3

type IDocumentService interface {
	research.DocumentSearcher
	Upload(ctx context.Context, userId uuid.UUID, req *dto.UploadDocumentRequest) (*dto.UploadDocumentResponse, error)
	GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.GetDocumentResponse, error)
}

type documentService struct {
	uowFactory        unitofwork.RepositoryFactory
	publisherService  IPublisherService
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	embeddingProvider embedding.EmbeddingProvider,
	logger logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory:        uowFactory,
		publisherService:  publisherService,
		embeddingProvider: embeddingProvider,
		logger:            logger,
	}
}

func (s *documentService) Upload(ctx context.Context, userId uuid.UUID, req *dto.UploadDocumentRequest) (*dto.UploadDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc := &entity.Document{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     req.Title,
		Content:   req.Content,
		Status:    entity.DocumentStatusPending,
		CreatedAt: time.Now(),
	}
	if err := uow.DocumentRepository().Create(ctx, doc); err != nil {
		return nil, err
	}

	if err := s.publisherService.SendIndexDocument(ctx, dto.IndexDocumentMessage{DocumentId: doc.Id}); err != nil {
		return nil, fmt.Errorf("queue document for indexing: %w", err)
	}

	return &dto.UploadDocumentResponse{Id: doc.Id, Status: doc.Status}, nil
}

func (s *documentService) GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.GetDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.GetDocumentResponse, 0, len(docs))
	for _, d := range docs {
		res = append(res, &dto.GetDocumentResponse{
			Id:         d.Id,
			Title:      d.Title,
			Status:     d.Status,
			ChunkCount: d.ChunkCount,
			CreatedAt:  d.CreatedAt,
			UpdatedAt:  d.UpdatedAt,
		})
	}
	return res, nil
}

func (s *documentService) SearchDocuments(ctx context.Context, userID string, fileIDs []string, query string, limit int) ([]research.DocumentHit, error) {
	userId, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	documentIds := make([]uuid.UUID, 0, len(fileIDs))
	for _, id := range fileIDs {
		parsed, err := uuid.Parse(id)
		if err != nil {
			s.logger.Warn("DOCUMENT", "Skipping malformed file id", map[string]interface{}{"file_id": id})
			continue
		}
		documentIds = append(documentIds, parsed)
	}
	if len(fileIDs) > 0 && len(documentIds) == 0 {
		return nil, nil
	}

	emb, err := s.embeddingProvider.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.DocumentEmbeddingRepository().SearchSimilarWithScore(ctx,
		emb.Embedding.Values, limit, userId, documentIds, documentSimilarityThreshold)
	if err != nil {
		return nil, err
	}

	hits := make([]research.DocumentHit, 0, len(scored))
	for _, sc := range scored {
		hits = append(hits, research.DocumentHit{
			DocumentID: sc.Embedding.DocumentId.String(),
			Title:      sc.Title,
			Content:    sc.Embedding.Document,
			Similarity: sc.Similarity,
		})
	}
	return hits, nil
}
