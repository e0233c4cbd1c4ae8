package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"content-engine/internal/domain"
	"content-engine/internal/domain/model"
	"content-engine/internal/domain/ports/repository"
)

// Compile-time check
var _ PricingUseCase = (*pricingUC)(nil)

type PricingUseCase interface {
	// PriceFor resolves active pricing for a model, falling back to the
	// static table when the primary registry cannot answer.
	PriceFor(ctx context.Context, modelName string) (*model.ModelPricing, error)
	ListActive(ctx context.Context) ([]*model.ModelPricing, error)
	Upsert(ctx context.Context, p *model.ModelPricing) error
}

// pricingUC is the two-tier pricing registry: the primary repository is
// database-backed (with a cache in front), the fallback is the static table
// loaded from configuration.
type pricingUC struct {
	primary  repository.ModelPricingRepository
	fallback repository.ModelPricingRepository
	log      *zerolog.Logger
}

func NewPricingUseCase(primary, fallback repository.ModelPricingRepository, logger *zerolog.Logger) *pricingUC {
	l := logger.With().Str("component", "PricingUC").Logger()
	return &pricingUC{primary: primary, fallback: fallback, log: &l}
}

func (u *pricingUC) PriceFor(ctx context.Context, modelName string) (*model.ModelPricing, error) {
	p, err := u.primary.GetByModelName(ctx, repository.NoTX, modelName)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		u.log.Warn().Err(err).Str("model", modelName).Msg("primary pricing registry unavailable, using static table")
	}
	if u.fallback == nil {
		return nil, domain.ErrPricingNotFound
	}
	p, ferr := u.fallback.GetByModelName(ctx, repository.NoTX, modelName)
	if ferr != nil {
		return nil, domain.ErrPricingNotFound
	}
	return p, nil
}

func (u *pricingUC) ListActive(ctx context.Context) ([]*model.ModelPricing, error) {
	out, err := u.primary.ListActive(ctx, repository.NoTX)
	if err == nil && len(out) > 0 {
		return out, nil
	}
	if u.fallback == nil {
		return out, err
	}
	return u.fallback.ListActive(ctx, repository.NoTX)
}

func (u *pricingUC) Upsert(ctx context.Context, p *model.ModelPricing) error {
	if p.ModelName == "" || p.InputPer1KMicros < 0 || p.OutputPer1KMicros < 0 {
		return domain.ErrInvalidArgument
	}
	return u.primary.Save(ctx, repository.NoTX, p)
}
