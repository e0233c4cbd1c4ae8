package model

import (
	"time"

	"github.com/google/uuid"
)

// ModelPricing holds per-1000-token USD rates (in micro-dollars) for one model.
type ModelPricing struct {
	ID                string
	ModelName         string
	InputPer1KMicros  int64
	OutputPer1KMicros int64
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func NewModelPricing(modelName string, inputPer1K, outputPer1K int64, active bool) *ModelPricing {
	now := time.Now()
	return &ModelPricing{
		ID:                uuid.NewString(),
		ModelName:         modelName,
		InputPer1KMicros:  inputPer1K,
		OutputPer1KMicros: outputPer1K,
		Active:            active,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// CostMicros prices one provider call.
func (p *ModelPricing) CostMicros(promptTokens, completionTokens int) int64 {
	in := int64(promptTokens) * p.InputPer1KMicros / 1000
	out := int64(completionTokens) * p.OutputPer1KMicros / 1000
	return in + out
}
