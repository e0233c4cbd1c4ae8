package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"content-engine/internal/domain"
	"content-engine/internal/domain/model"
	"content-engine/internal/domain/ports/repository"
)

var _ repository.GeneratedContentRepository = (*generatedContentRepo)(nil)

type generatedContentRepo struct {
	pool *pgxpool.Pool
}

func NewGeneratedContentRepo(pool *pgxpool.Pool) *generatedContentRepo {
	return &generatedContentRepo{pool: pool}
}

const contentColumns = `id, job_id, title, body, content_type, word_count,
cost_micros, duration_ms, authored_by, review_status, created_at, updated_at`

func (r *generatedContentRepo) Save(ctx context.Context, tx repository.Tx, c *model.GeneratedContent) error {
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	const q = `
INSERT INTO generated_content (id, job_id, title, body, content_type, word_count,
  cost_micros, duration_ms, authored_by, review_status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`

	_, err := execSQL(ctx, r.pool, tx, q,
		c.ID, c.JobID, c.Title, c.Body, c.ContentType, c.WordCount,
		c.CostMicros, c.DurationMs, c.AuthoredBy, string(c.ReviewStatus), c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *generatedContentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.GeneratedContent, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+contentColumns+` FROM generated_content WHERE id=$1;`, id)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	return scanContent(row)
}

func (r *generatedContentRepo) FindByJobID(ctx context.Context, tx repository.Tx, jobID string) (*model.GeneratedContent, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+contentColumns+` FROM generated_content WHERE job_id=$1;`, jobID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	return scanContent(row)
}

func (r *generatedContentRepo) UpdateReviewStatus(ctx context.Context, tx repository.Tx, id string, status model.ReviewStatus) error {
	const q = `
UPDATE generated_content SET review_status = $2, updated_at = NOW()
 WHERE id = $1 AND review_status = 'pending_review';`
	tag, err := execSQL(ctx, r.pool, tx, q, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanContent(row pgx.Row) (*model.GeneratedContent, error) {
	var c model.GeneratedContent
	var review string
	err := row.Scan(
		&c.ID, &c.JobID, &c.Title, &c.Body, &c.ContentType, &c.WordCount,
		&c.CostMicros, &c.DurationMs, &c.AuthoredBy, &review, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	c.ReviewStatus = model.ReviewStatus(review)
	return &c, nil
}
