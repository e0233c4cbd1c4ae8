package repository

import (
	"context"

	"content-engine/internal/domain/model"
)

// ProgressSink is the advisory progress capability. Mutating methods return no
// error: progress is best-effort telemetry and its failure must never affect
// job correctness. Implementations log and swallow store failures.
type ProgressSink interface {
	Init(ctx context.Context, jobID, topic, contentType string, totalSections int)
	StartSection(ctx context.Context, jobID, section string)
	CompleteSection(ctx context.Context, jobID, section string, words int, costMicros int64)
	Complete(ctx context.Context, jobID string)
	Fail(ctx context.Context, jobID, errMsg string)

	// Get returns (nil, domain.ErrNotFound) for unknown or expired jobs.
	Get(ctx context.Context, jobID string) (*model.GenerationProgress, error)
}
