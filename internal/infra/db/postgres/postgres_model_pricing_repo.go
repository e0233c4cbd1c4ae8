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

var _ repository.ModelPricingRepository = (*modelPricingRepo)(nil)

type modelPricingRepo struct {
	pool *pgxpool.Pool
}

func NewModelPricingRepo(pool *pgxpool.Pool) *modelPricingRepo {
	return &modelPricingRepo{pool: pool}
}

func (r *modelPricingRepo) GetByModelName(ctx context.Context, tx repository.Tx, name string) (*model.ModelPricing, error) {
	const q = `
SELECT id, model_name, input_per_1k_micros, output_per_1k_micros, active, created_at, updated_at
  FROM model_pricing
 WHERE model_name=$1 AND active=TRUE
 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, name)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	var p model.ModelPricing
	if err := row.Scan(&p.ID, &p.ModelName, &p.InputPer1KMicros, &p.OutputPer1KMicros, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &p, nil
}

func (r *modelPricingRepo) Save(ctx context.Context, tx repository.Tx, p *model.ModelPricing) error {
	p.UpdatedAt = time.Now()
	const q = `
INSERT INTO model_pricing (id, model_name, input_per_1k_micros, output_per_1k_micros, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (model_name) DO UPDATE SET
  input_per_1k_micros = EXCLUDED.input_per_1k_micros,
  output_per_1k_micros = EXCLUDED.output_per_1k_micros,
  active = EXCLUDED.active,
  updated_at = EXCLUDED.updated_at;`
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.ModelName, p.InputPer1KMicros, p.OutputPer1KMicros, p.Active, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *modelPricingRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.ModelPricing, error) {
	const q = `
SELECT id, model_name, input_per_1k_micros, output_per_1k_micros, active, created_at, updated_at
  FROM model_pricing WHERE active=TRUE ORDER BY model_name ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.ModelPricing
	for rows.Next() {
		var p model.ModelPricing
		if err := rows.Scan(&p.ID, &p.ModelName, &p.InputPer1KMicros, &p.OutputPer1KMicros, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &p)
	}
	if rows.Err() != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
