package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"content-engine/internal/domain"
	"content-engine/internal/domain/model"
	"content-engine/internal/domain/ports/adapter"
	"content-engine/internal/domain/ports/repository"
	"content-engine/internal/infra/metrics"
	"content-engine/internal/usecase"
)

// JobProcessor drains queued generation jobs: claim, generate, persist the
// artifact, flip the job to a terminal status. Any error during generation is
// absorbed into a failed status; the processor itself never crashes the host.
type JobProcessor struct {
	jobs     repository.GenerationJobRepository
	content  repository.GeneratedContentRepository
	progress repository.ProgressSink
	pricing  usecase.PricingUseCase
	ai       adapter.AIServiceAdapter
	tm       repository.TransactionManager

	model       string
	temperature float64
	maxTokens   int
	log         *zerolog.Logger
}

func NewJobProcessor(
	jobs repository.GenerationJobRepository,
	content repository.GeneratedContentRepository,
	progress repository.ProgressSink,
	pricing usecase.PricingUseCase,
	ai adapter.AIServiceAdapter,
	tm repository.TransactionManager,
	modelName string,
	temperature float64,
	maxTokens int,
	logger *zerolog.Logger,
) *JobProcessor {
	l := logger.With().Str("component", "JobProcessor").Logger()
	return &JobProcessor{
		jobs:        jobs,
		content:     content,
		progress:    progress,
		pricing:     pricing,
		ai:          ai,
		tm:          tm,
		model:       modelName,
		temperature: temperature,
		maxTokens:   maxTokens,
		log:         &l,
	}
}

// Start runs a loop that feeds the worker pool with claim attempts.
// This should be run in a goroutine.
func (p *JobProcessor) Start(ctx context.Context, pool *Pool, pollInterval time.Duration) {
	p.log.Info().Msg("job processor started")
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("job processor stopping")
			return
		case <-ticker.C:
			_ = pool.Submit(func(ctx context.Context) error {
				p.ProcessOne(ctx)
				return nil
			})
		}
	}
}

// errClaimLost marks a job whose processing lease was reclaimed while this
// worker was still generating. Nothing may be written for such a job; the
// requeued copy will be picked up again.
var errClaimLost = errors.New("processing claim lost")

// ProcessOne claims at most one queued job and runs it to a terminal status.
func (p *JobProcessor) ProcessOne(ctx context.Context) {
	job, err := p.jobs.FetchAndMarkProcessing(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			p.log.Error().Err(err).Msg("failed to fetch generation job")
		}
		return // no job, or a fetch error
	}

	p.log.Info().Str("job_id", job.ID).Str("topic", job.Topic).
		Str("generator", string(job.GeneratorType)).Msg("processing generation job")
	start := time.Now()

	err = p.handleJob(ctx, job)
	elapsed := time.Since(start)

	if errors.Is(err, errClaimLost) {
		// The reclaimer requeued this job mid-flight. The artifact write was
		// rolled back with the status update, so the rerun starts clean.
		p.log.Warn().Str("job_id", job.ID).Msg("processing claim lost, job requeued")
		return
	}

	if err != nil {
		p.failJob(job, err)
		p.progress.Fail(ctx, job.ID, err.Error())
		p.log.Error().Err(err).Str("job_id", job.ID).Msg("generation job failed")
	} else {
		p.progress.Complete(ctx, job.ID)
	}

	metrics.IncJobProcessed(string(job.Status))
	metrics.ObserveJobDuration(elapsed.Seconds())
	p.log.Info().Str("job_id", job.ID).Str("status", string(job.Status)).
		Dur("duration", elapsed).Msg("generation job finished")
}

// failJob records a failed status. It runs on a background context so the
// result lands even when the claiming context has been cancelled.
func (p *JobProcessor) failJob(job *model.GenerationJob, cause error) {
	if !job.CanTransition(model.JobStatusFailed) {
		p.log.Error().Str("job_id", job.ID).Str("status", string(job.Status)).
			Msg("job not in a failable status")
		return
	}
	job.Status = model.JobStatusFailed
	job.LastError = cause.Error()
	if err := p.jobs.MarkTerminal(context.Background(), repository.NoTX, job); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			p.log.Warn().Str("job_id", job.ID).Msg("claim lost before failure was recorded")
			return
		}
		p.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to save terminal job status")
	}
}

// handleJob drives the generator and persists the result. The completed
// status and the artifact are committed in a single transaction, and the
// status write is guarded on the row still being in processing: if the
// reclaimer took the claim back, the whole write rolls back and exactly one
// artifact ever exists per completed job.
func (p *JobProcessor) handleJob(ctx context.Context, job *model.GenerationJob) error {
	gen, err := usecase.NewGenerator(job.GeneratorType, usecase.GeneratorDeps{
		AI:          p.ai,
		Pricing:     p.pricing,
		Progress:    p.progress,
		Model:       p.model,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		Log:         p.log,
	})
	if err != nil {
		return err
	}

	start := time.Now()
	draft, err := gen.Generate(ctx, job)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	artifact := &model.GeneratedContent{
		ID:           ulid.Make().String(),
		JobID:        job.ID,
		Title:        draft.Title,
		Body:         draft.Body,
		ContentType:  job.Category,
		WordCount:    draft.WordCount,
		CostMicros:   draft.CostMicros,
		DurationMs:   time.Since(start).Milliseconds(),
		AuthoredBy:   "content-engine/" + string(job.GeneratorType),
		ReviewStatus: model.ReviewPending,
	}

	if !job.CanTransition(model.JobStatusCompleted) {
		return fmt.Errorf("%w: job %s in status %s cannot complete",
			domain.ErrInvalidArgument, job.ID, job.Status)
	}

	err = p.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		job.Status = model.JobStatusCompleted
		job.LastError = ""
		job.ContentID = artifact.ID
		if err := p.jobs.MarkTerminal(ctx, tx, job); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errClaimLost
			}
			return fmt.Errorf("complete job: %w", err)
		}
		if err := p.content.Save(ctx, tx, artifact); err != nil {
			return fmt.Errorf("save artifact: %w", err)
		}
		return nil
	})
	if err != nil {
		// The job struct must not report completed when nothing was written.
		job.Status = model.JobStatusProcessing
		job.ContentID = ""
		return err
	}

	p.log.Info().Str("job_id", job.ID).Str("content_id", artifact.ID).
		Int("words", draft.WordCount).Int64("cost_micros", draft.CostMicros).
		Msg("artifact persisted")
	return nil
}
