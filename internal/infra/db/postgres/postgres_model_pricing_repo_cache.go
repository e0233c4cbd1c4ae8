package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"content-engine/internal/domain/model"
	"content-engine/internal/domain/ports/repository"
	"content-engine/internal/infra/metrics"
	red "content-engine/internal/infra/redis"
)

var _ repository.ModelPricingRepository = (*modelPricingRepoCacheDecorator)(nil)

// Pricing rows change rarely and are read on every provider call, so a Redis
// decorator sits in front of the Postgres repo.
type modelPricingRepoCacheDecorator struct {
	inner repository.ModelPricingRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewModelPricingRepoCacheDecorator(inner repository.ModelPricingRepository, cache red.RedisClient) repository.ModelPricingRepository {
	return &modelPricingRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   1 * time.Hour,
	}
}

func pricingKey(modelName string) string {
	return fmt.Sprintf("model_pricing:%s", modelName)
}

const pricingListKey = "model_pricing:all_active"

func (d *modelPricingRepoCacheDecorator) GetByModelName(ctx context.Context, tx repository.Tx, modelName string) (*model.ModelPricing, error) {
	key := pricingKey(modelName)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var p model.ModelPricing
		if json.Unmarshal([]byte(val), &p) == nil {
			metrics.IncCacheRequest("model_pricing", "hit")
			return &p, nil
		}
	}

	metrics.IncCacheRequest("model_pricing", "miss")
	p, err := d.inner.GetByModelName(ctx, tx, modelName)
	if err != nil {
		return nil, err
	}
	if p != nil {
		bytes, _ := json.Marshal(p)
		_ = d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return p, nil
}

// Writes invalidate both the item and the list cache.
func (d *modelPricingRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, p *model.ModelPricing) error {
	_ = d.cache.Del(ctx, pricingKey(p.ModelName), pricingListKey)
	return d.inner.Save(ctx, tx, p)
}

func (d *modelPricingRepoCacheDecorator) ListActive(ctx context.Context, tx repository.Tx) ([]*model.ModelPricing, error) {
	val, err := d.cache.Get(ctx, pricingListKey)
	if err == nil {
		var prices []*model.ModelPricing
		if json.Unmarshal([]byte(val), &prices) == nil {
			metrics.IncCacheRequest("model_pricing_list", "hit")
			return prices, nil
		}
	}

	metrics.IncCacheRequest("model_pricing_list", "miss")
	prices, err := d.inner.ListActive(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(prices) > 0 {
		bytes, _ := json.Marshal(prices)
		_ = d.cache.Set(ctx, pricingListKey, bytes, d.ttl)
	}
	return prices, nil
}
