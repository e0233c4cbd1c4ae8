package pricing

import (
	"context"
	"sort"
	"sync"
	"time"

	"content-engine/internal/config"
	"content-engine/internal/domain"
	"content-engine/internal/domain/model"
	"content-engine/internal/domain/ports/repository"
)

var _ repository.ModelPricingRepository = (*StaticRepo)(nil)

// StaticRepo is the config-backed fallback tier of the pricing registry: a
// fixed in-memory table loaded at startup, consulted when the database-backed
// registry is unavailable. Save updates the in-memory table only.
type StaticRepo struct {
	mu     sync.RWMutex
	byName map[string]*model.ModelPricing
}

func NewStaticRepo(entries []config.StaticPricing) *StaticRepo {
	now := time.Now()
	byName := make(map[string]*model.ModelPricing, len(entries))
	for _, e := range entries {
		byName[e.Model] = &model.ModelPricing{
			ID:                "static:" + e.Model,
			ModelName:         e.Model,
			InputPer1KMicros:  e.InputPer1KMicros,
			OutputPer1KMicros: e.OutputPer1KMicros,
			Active:            true,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
	}
	return &StaticRepo{byName: byName}
}

func (r *StaticRepo) GetByModelName(ctx context.Context, _ repository.Tx, name string) (*model.ModelPricing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *StaticRepo) Save(ctx context.Context, _ repository.Tx, p *model.ModelPricing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	cp.UpdatedAt = time.Now()
	r.byName[p.ModelName] = &cp
	return nil
}

func (r *StaticRepo) ListActive(ctx context.Context, _ repository.Tx) ([]*model.ModelPricing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.ModelPricing, 0, len(r.byName))
	for _, p := range r.byName {
		if p.Active {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModelName < out[j].ModelName })
	return out, nil
}
