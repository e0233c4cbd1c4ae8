package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"content-engine/internal/domain"
	"content-engine/internal/domain/model"
	"content-engine/internal/domain/ports/repository"
	"content-engine/internal/infra/metrics"
)

// MaxBatchTopics bounds one batch submission.
const MaxBatchTopics = 50

const (
	minTargetWords = 100
	maxTargetWords = 10000
)

// Compile-time check
var _ QueueUseCase = (*queueUC)(nil)

type TopicInput struct {
	Topic           string
	Category        string
	TargetWordCount int
	Keywords        []string
}

type SubmitBatchInput struct {
	GeneratorType model.GeneratorType
	RequestedBy   string
	Topics        []TopicInput
}

type SubmitSingleInput struct {
	QueueItemID     string
	Title           string
	ContentType     string
	TargetWordCount int
	Keywords        []string
	GeneratorType   model.GeneratorType
	RequestedBy     string
}

type BatchReceipt struct {
	BatchID string
	JobIDs  []string
}

// SubmissionLimiter is the per-submitter rate limit capability (Redis-backed
// in production). Implementations own the storage key layout.
type SubmissionLimiter interface {
	Allow(ctx context.Context, submitter string, limit int, window time.Duration) (bool, error)
}

type QueueUseCase interface {
	SubmitBatch(ctx context.Context, in SubmitBatchInput) (*BatchReceipt, error)
	SubmitSingle(ctx context.Context, in SubmitSingleInput) (string, error)
	JobStatus(ctx context.Context, jobID string) (*model.GenerationJob, error)
	AllJobStatuses(ctx context.Context) ([]*model.GenerationJob, error)
	QueueStats(ctx context.Context) (repository.QueueStats, error)
}

type queueUC struct {
	jobs        repository.GenerationJobRepository
	limiter     SubmissionLimiter
	limitPerMin int
	log         *zerolog.Logger
}

func NewQueueUseCase(jobs repository.GenerationJobRepository, limiter SubmissionLimiter, limitPerMin int, logger *zerolog.Logger) *queueUC {
	l := logger.With().Str("component", "QueueUC").Logger()
	return &queueUC{jobs: jobs, limiter: limiter, limitPerMin: limitPerMin, log: &l}
}

// SubmitBatch validates the whole batch before creating any job: a rejected
// batch leaves no partial state behind.
func (u *queueUC) SubmitBatch(ctx context.Context, in SubmitBatchInput) (*BatchReceipt, error) {
	if !model.ValidGeneratorType(in.GeneratorType) {
		return nil, fmt.Errorf("%w: generator type %q", domain.ErrInvalidArgument, in.GeneratorType)
	}
	if len(in.Topics) == 0 {
		return nil, fmt.Errorf("%w: empty topic list", domain.ErrInvalidArgument)
	}
	if len(in.Topics) > MaxBatchTopics {
		return nil, fmt.Errorf("%w: %d topics (max %d)", domain.ErrBatchTooLarge, len(in.Topics), MaxBatchTopics)
	}
	for i, t := range in.Topics {
		if err := validateTopic(t); err != nil {
			return nil, fmt.Errorf("topic %d: %w", i, err)
		}
	}

	if err := u.checkRate(ctx, in.RequestedBy); err != nil {
		return nil, err
	}

	batchID := uuid.NewString()
	receipt := &BatchReceipt{BatchID: batchID}

	for _, t := range in.Topics {
		job := newJob(batchID, in.GeneratorType, in.RequestedBy, t)
		if err := u.jobs.Save(ctx, repository.NoTX, job); err != nil {
			return nil, fmt.Errorf("save job: %w", err)
		}
		metrics.IncJobSubmitted(string(in.GeneratorType))
		receipt.JobIDs = append(receipt.JobIDs, job.ID)
	}

	u.log.Info().Str("batch_id", batchID).Int("jobs", len(receipt.JobIDs)).
		Str("generator", string(in.GeneratorType)).Msg("batch submitted")
	return receipt, nil
}

// SubmitSingle creates one queued job and returns immediately; the worker
// pool picks it up out-of-band and the caller polls the status endpoint.
func (u *queueUC) SubmitSingle(ctx context.Context, in SubmitSingleInput) (string, error) {
	if in.GeneratorType == "" {
		in.GeneratorType = model.GeneratorSingleAgent
	}
	if !model.ValidGeneratorType(in.GeneratorType) {
		return "", fmt.Errorf("%w: generator type %q", domain.ErrInvalidArgument, in.GeneratorType)
	}
	t := TopicInput{
		Topic:           in.Title,
		Category:        in.ContentType,
		TargetWordCount: in.TargetWordCount,
		Keywords:        in.Keywords,
	}
	if err := validateTopic(t); err != nil {
		return "", err
	}
	if err := u.checkRate(ctx, in.RequestedBy); err != nil {
		return "", err
	}

	job := newJob("", in.GeneratorType, in.RequestedBy, t)
	job.SourceRef = in.QueueItemID
	if err := u.jobs.Save(ctx, repository.NoTX, job); err != nil {
		return "", fmt.Errorf("save job: %w", err)
	}
	metrics.IncJobSubmitted(string(in.GeneratorType))

	u.log.Info().Str("job_id", job.ID).Str("topic", job.Topic).Msg("single job submitted")
	return job.ID, nil
}

func (u *queueUC) JobStatus(ctx context.Context, jobID string) (*model.GenerationJob, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.jobs.FindByID(ctx, repository.NoTX, jobID)
}

func (u *queueUC) AllJobStatuses(ctx context.Context) ([]*model.GenerationJob, error) {
	return u.jobs.ListAll(ctx, repository.NoTX)
}

func (u *queueUC) QueueStats(ctx context.Context) (repository.QueueStats, error) {
	return u.jobs.CountByStatus(ctx, repository.NoTX)
}

func (u *queueUC) checkRate(ctx context.Context, submitter string) error {
	if u.limiter == nil || u.limitPerMin <= 0 {
		return nil
	}
	if submitter == "" {
		submitter = "anonymous"
	}
	ok, err := u.limiter.Allow(ctx, submitter, u.limitPerMin, time.Minute)
	if err != nil {
		// A broken limiter store should not block submissions.
		u.log.Warn().Err(err).Msg("rate limiter unavailable")
		return nil
	}
	if !ok {
		return domain.ErrRateLimited
	}
	return nil
}

func validateTopic(t TopicInput) error {
	if strings.TrimSpace(t.Topic) == "" {
		return fmt.Errorf("%w: empty topic", domain.ErrInvalidArgument)
	}
	if t.TargetWordCount != 0 && (t.TargetWordCount < minTargetWords || t.TargetWordCount > maxTargetWords) {
		return fmt.Errorf("%w: target word count %d out of range [%d, %d]",
			domain.ErrInvalidArgument, t.TargetWordCount, minTargetWords, maxTargetWords)
	}
	if len(t.Keywords) > 20 {
		return fmt.Errorf("%w: too many keywords", domain.ErrInvalidArgument)
	}
	return nil
}

func newJob(batchID string, gen model.GeneratorType, requestedBy string, t TopicInput) *model.GenerationJob {
	now := time.Now()
	return &model.GenerationJob{
		ID:              ulid.Make().String(),
		BatchID:         batchID,
		Topic:           strings.TrimSpace(t.Topic),
		Category:        t.Category,
		TargetWordCount: t.TargetWordCount,
		Keywords:        t.Keywords,
		GeneratorType:   gen,
		RequestedBy:     requestedBy,
		Status:          model.JobStatusQueued,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
