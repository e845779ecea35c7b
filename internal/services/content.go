package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vibeline/vibeline-backend/internal/apierr"
	"github.com/vibeline/vibeline-backend/internal/logger"
	"github.com/vibeline/vibeline-backend/internal/repos"
	"github.com/vibeline/vibeline-backend/internal/types"
)

// ContentService is the ingestion boundary for the external authoring
// collaborator: it syncs the content rows the engine reads (author, tags,
// created_at) and nothing more.
type ContentService interface {
	CreateContentItem(ctx context.Context, authorID uuid.UUID, body string, tags []string) (*types.ContentItem, error)
	GetContentItem(ctx context.Context, id uuid.UUID) (*types.ContentItem, error)
}

type contentService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.ContentItemRepo
}

func NewContentService(db *gorm.DB, baseLog *logger.Logger, repo repos.ContentItemRepo) ContentService {
	return &contentService{
		db:   db,
		log:  baseLog.With("service", "ContentService"),
		repo: repo,
	}
}

func (s *contentService) CreateContentItem(ctx context.Context, authorID uuid.UUID, body string, tags []string) (*types.ContentItem, error) {
	if authorID == uuid.Nil {
		return nil, apierr.NewValidation("missing_author", fmt.Errorf("author id is required"))
	}
	cleaned := make([]string, 0, len(tags))
	seen := map[string]bool{}
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		cleaned = append(cleaned, tag)
	}
	rawTags, err := json.Marshal(cleaned)
	if err != nil {
		return nil, err
	}
	row := &types.ContentItem{
		ID:       uuid.New(),
		AuthorID: authorID,
		Body:     body,
		Tags:     datatypes.JSON(rawTags),
	}
	if err := s.repo.Create(ctx, nil, row, cleaned); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *contentService) GetContentItem(ctx context.Context, id uuid.UUID) (*types.ContentItem, error) {
	item, err := s.repo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apierr.NewNotFound("content_not_found", fmt.Errorf("content %s not found", id))
	}
	return item, nil
}
