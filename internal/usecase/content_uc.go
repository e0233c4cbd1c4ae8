package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"content-engine/internal/domain"
	"content-engine/internal/domain/model"
	"content-engine/internal/domain/ports/repository"
)

// Compile-time check
var _ ContentUseCase = (*contentUC)(nil)

type ContentUseCase interface {
	GetByID(ctx context.Context, id string) (*model.GeneratedContent, error)
	GetByJobID(ctx context.Context, jobID string) (*model.GeneratedContent, error)
	// Review moves a pending artifact to approved or rejected; reviewed
	// artifacts are immutable.
	Review(ctx context.Context, id string, status model.ReviewStatus) error
}

type contentUC struct {
	content repository.GeneratedContentRepository
	log     *zerolog.Logger
}

func NewContentUseCase(content repository.GeneratedContentRepository, logger *zerolog.Logger) *contentUC {
	l := logger.With().Str("component", "ContentUC").Logger()
	return &contentUC{content: content, log: &l}
}

func (u *contentUC) GetByID(ctx context.Context, id string) (*model.GeneratedContent, error) {
	return u.content.FindByID(ctx, repository.NoTX, id)
}

func (u *contentUC) GetByJobID(ctx context.Context, jobID string) (*model.GeneratedContent, error) {
	return u.content.FindByJobID(ctx, repository.NoTX, jobID)
}

func (u *contentUC) Review(ctx context.Context, id string, status model.ReviewStatus) error {
	if status != model.ReviewApproved && status != model.ReviewRejected {
		return domain.ErrInvalidArgument
	}
	if err := u.content.UpdateReviewStatus(ctx, repository.NoTX, id, status); err != nil {
		return err
	}
	u.log.Info().Str("content_id", id).Str("review", string(status)).Msg("artifact reviewed")
	return nil
}
