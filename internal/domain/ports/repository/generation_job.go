package repository

import (
	"context"
	"time"

	"content-engine/internal/domain/model"
)

type QueueStats struct {
	Queued     int
	Processing int
	Completed  int
	Failed     int
}

func (s QueueStats) Total() int {
	return s.Queued + s.Processing + s.Completed + s.Failed
}

type GenerationJobRepository interface {
	Save(ctx context.Context, tx Tx, job *model.GenerationJob) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.GenerationJob, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.GenerationJob, error)
	CountByStatus(ctx context.Context, tx Tx) (QueueStats, error)

	// FetchAndMarkProcessing atomically fetches the oldest queued job and
	// marks it processing so no other worker picks it up.
	FetchAndMarkProcessing(ctx context.Context) (*model.GenerationJob, error)

	// MarkTerminal writes a completed or failed status for a job that is
	// still processing. Returns ErrNotFound when the row is no longer in
	// processing, meaning the claim was lost to the reclaimer.
	MarkTerminal(ctx context.Context, tx Tx, job *model.GenerationJob) error

	// RequeueStale returns jobs stuck in processing longer than the lease
	// back to queued (bumping Retries), and fails those past maxRetries.
	// Reports (requeued, failed).
	RequeueStale(ctx context.Context, lease time.Duration, maxRetries int) (int, int, error)
}
