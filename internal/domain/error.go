package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrBatchTooLarge      = errors.New("batch exceeds topic limit")
	ErrRateLimited        = errors.New("submission rate limit exceeded")
	ErrQueueSaturated     = errors.New("worker queue is saturated")
	ErrPricingNotFound    = errors.New("no pricing for model")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")
)

// ProviderError wraps a failure reported by an LLM vendor so callers can
// distinguish it from persistence or validation failures.
type ProviderError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s (model %s): %v", e.Provider, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
