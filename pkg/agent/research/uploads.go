package research

import (
	"context"
	"fmt"

	"desirefinder-be/internal/pkg/logger"
	"desirefinder-be/pkg/agent/session"
	"desirefinder-be/pkg/agent/turn"

	"github.com/google/uuid"
)

const (
	UploadsSearchName  = "uploads_search"
	uploadsResultLimit = 5
)

type DocumentHit struct {
	DocumentID string
	Title      string
	Content    string
	Similarity float64
}

// DocumentSearcher finds passages in a user's uploaded documents.
type DocumentSearcher interface {
	SearchDocuments(ctx context.Context, userID string, fileIDs []string, query string, limit int) ([]DocumentHit, error)
}

type UploadsInput struct {
	Queries []string `validate:"required,min=1,max=3,dive,required"`
}

type uploadsSearch struct {
	searcher DocumentSearcher
	logger   logger.ILogger
}

func NewUploadsSearch(searcher DocumentSearcher, logger logger.ILogger) Action {
	s := &uploadsSearch{searcher: searcher, logger: logger}
	return Action{
		Name:        UploadsSearchName,
		Description: "Search the user's uploaded documents.",
		Enabled: func(cfg turn.Config, cls turn.ClassifierOutput) bool {
			return cfg.HasSource(turn.SourcePersonalDocuments) &&
				cls.Classification.PersonalSearch &&
				len(cfg.FileIDs) > 0
		},
		Input: func(_ context.Context, rc *Context) (interface{}, error) {
			q := rc.Classification.StandaloneFollowUp
			if q == "" {
				q = rc.FollowUp
			}
			return &UploadsInput{Queries: []string{q}}, nil
		},
		Execute: s.execute,
	}
}

func (s *uploadsSearch) execute(ctx context.Context, input interface{}, rc *Context) (Result, error) {
	in := input.(*UploadsInput)

	err := rc.Session.UpsertSubStep(rc.ResearchBlockID, session.SubStep{
		ID:        uuid.NewString(),
		Type:      session.SubStepSearching,
		Searching: in.Queries,
	})
	if err != nil {
		return Result{}, err
	}

	var chunks []Chunk
	for _, q := range in.Queries {
		hits, err := s.searcher.SearchDocuments(ctx, rc.UserID, rc.Config.FileIDs, q, uploadsResultLimit)
		if err != nil {
			return Result{}, fmt.Errorf("search documents: %w", err)
		}
		for _, h := range hits {
			chunks = append(chunks, Chunk{
				Content: h.Content,
				Metadata: map[string]interface{}{
					"title":      h.Title,
					"fileId":     h.DocumentID,
					"similarity": h.Similarity,
					"url":        "",
					"type":       "document",
				},
			})
		}
	}

	if len(chunks) > 0 {
		if err := rc.Session.AppendSubStepResults(rc.ResearchBlockID, uuid.NewString(), chunks); err != nil {
			return Result{}, err
		}
	}
	return Result{Type: "search_results", Chunks: chunks}, nil
}
