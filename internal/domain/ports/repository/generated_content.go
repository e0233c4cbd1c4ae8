package repository

import (
	"context"

	"content-engine/internal/domain/model"
)

type GeneratedContentRepository interface {
	Save(ctx context.Context, tx Tx, c *model.GeneratedContent) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.GeneratedContent, error)
	FindByJobID(ctx context.Context, tx Tx, jobID string) (*model.GeneratedContent, error)
	UpdateReviewStatus(ctx context.Context, tx Tx, id string, status model.ReviewStatus) error
}
