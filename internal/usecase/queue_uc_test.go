package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"content-engine/internal/domain"
	"content-engine/internal/domain/model"
	"content-engine/internal/domain/ports/repository"
)

func newQueueForTest(jobs repository.GenerationJobRepository, limiter SubmissionLimiter, limitPerMin int) QueueUseCase {
	logger := zerolog.Nop()
	return NewQueueUseCase(jobs, limiter, limitPerMin, &logger)
}

func batchOf(n int) SubmitBatchInput {
	in := SubmitBatchInput{GeneratorType: model.GeneratorSingleAgent, RequestedBy: "tester"}
	for i := 0; i < n; i++ {
		in.Topics = append(in.Topics, TopicInput{Topic: fmt.Sprintf("Topic %d", i)})
	}
	return in
}

func TestSubmitBatch_CreatesOneJobPerTopic(t *testing.T) {
	repo := newMemJobRepo()
	uc := newQueueForTest(repo, nil, 0)

	receipt, err := uc.SubmitBatch(context.Background(), batchOf(3))
	if err != nil {
		t.Fatalf("SubmitBatch: %v", err)
	}
	if receipt.BatchID == "" {
		t.Fatal("expected a batch id")
	}
	if len(receipt.JobIDs) != 3 {
		t.Fatalf("expected 3 job ids, got %d", len(receipt.JobIDs))
	}

	for _, id := range receipt.JobIDs {
		job, err := repo.FindByID(context.Background(), repository.NoTX, id)
		if err != nil {
			t.Fatalf("job %s not persisted: %v", id, err)
		}
		if job.Status != model.JobStatusQueued {
			t.Errorf("job %s status = %s, want queued", id, job.Status)
		}
		if job.BatchID != receipt.BatchID {
			t.Errorf("job %s batch = %s, want %s", id, job.BatchID, receipt.BatchID)
		}
	}
}

func TestSubmitBatch_MaxBatchAcceptedOverMaxRejected(t *testing.T) {
	repo := newMemJobRepo()
	uc := newQueueForTest(repo, nil, 0)

	receipt, err := uc.SubmitBatch(context.Background(), batchOf(MaxBatchTopics))
	if err != nil {
		t.Fatalf("batch of %d should be accepted: %v", MaxBatchTopics, err)
	}
	if len(receipt.JobIDs) != MaxBatchTopics {
		t.Fatalf("expected %d jobs, got %d", MaxBatchTopics, len(receipt.JobIDs))
	}

	before, _ := repo.ListAll(context.Background(), repository.NoTX)
	_, err = uc.SubmitBatch(context.Background(), batchOf(MaxBatchTopics+1))
	if !errors.Is(err, domain.ErrBatchTooLarge) {
		t.Fatalf("expected ErrBatchTooLarge, got %v", err)
	}
	after, _ := repo.ListAll(context.Background(), repository.NoTX)
	if len(after) != len(before) {
		t.Fatalf("rejected batch must not create jobs: before=%d after=%d", len(before), len(after))
	}
}

func TestSubmitBatch_Validation(t *testing.T) {
	uc := newQueueForTest(newMemJobRepo(), nil, 0)
	ctx := context.Background()

	cases := []struct {
		name string
		in   SubmitBatchInput
	}{
		{"empty topics", SubmitBatchInput{GeneratorType: model.GeneratorSingleAgent}},
		{"unknown generator", SubmitBatchInput{GeneratorType: "triple-agent", Topics: []TopicInput{{Topic: "x"}}}},
		{"blank topic", SubmitBatchInput{GeneratorType: model.GeneratorMultiAgent, Topics: []TopicInput{{Topic: "   "}}}},
		{"word count too low", SubmitBatchInput{GeneratorType: model.GeneratorSingleAgent,
			Topics: []TopicInput{{Topic: "x", TargetWordCount: 50}}}},
		{"word count too high", SubmitBatchInput{GeneratorType: model.GeneratorSingleAgent,
			Topics: []TopicInput{{Topic: "x", TargetWordCount: 20000}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := uc.SubmitBatch(ctx, tc.in); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestSubmitSingle_DefaultsToSingleAgent(t *testing.T) {
	repo := newMemJobRepo()
	uc := newQueueForTest(repo, nil, 0)

	jobID, err := uc.SubmitSingle(context.Background(), SubmitSingleInput{
		QueueItemID: "queue-item-1",
		Title:       "Kubernetes Cost Optimization",
		ContentType: "article",
	})
	if err != nil {
		t.Fatalf("SubmitSingle: %v", err)
	}

	job, err := repo.FindByID(context.Background(), repository.NoTX, jobID)
	if err != nil {
		t.Fatalf("job not persisted: %v", err)
	}
	if job.GeneratorType != model.GeneratorSingleAgent {
		t.Errorf("generator = %s, want single-agent default", job.GeneratorType)
	}
	if job.SourceRef != "queue-item-1" {
		t.Errorf("source ref = %s, want the queue item id", job.SourceRef)
	}
	if job.BatchID != "" {
		t.Errorf("single submission must not invent a batch id, got %s", job.BatchID)
	}
}

func TestSubmit_RateLimited(t *testing.T) {
	limiter := &fakeLimiter{deny: true}
	uc := newQueueForTest(newMemJobRepo(), limiter, 10)

	_, err := uc.SubmitBatch(context.Background(), batchOf(1))
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if limiter.calls != 1 {
		t.Fatalf("limiter should be consulted once, got %d", limiter.calls)
	}
	if limiter.submitters[0] != "tester" {
		t.Fatalf("limiter saw submitter %q, want the raw submitter", limiter.submitters[0])
	}
}

func TestSubmit_LimiterOutageDoesNotBlock(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis down")}
	uc := newQueueForTest(newMemJobRepo(), limiter, 10)

	if _, err := uc.SubmitBatch(context.Background(), batchOf(1)); err != nil {
		t.Fatalf("submission should pass when the limiter store is down: %v", err)
	}
}

func TestQueueStats_CountsByStatus(t *testing.T) {
	repo := newMemJobRepo()
	uc := newQueueForTest(repo, nil, 0)
	ctx := context.Background()

	if _, err := uc.SubmitBatch(ctx, batchOf(4)); err != nil {
		t.Fatalf("SubmitBatch: %v", err)
	}

	claimed, err := repo.FetchAndMarkProcessing(ctx)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	claimed.Status = model.JobStatusCompleted
	if err := repo.Save(ctx, repository.NoTX, claimed); err != nil {
		t.Fatalf("save: %v", err)
	}

	stats, err := uc.QueueStats(ctx)
	if err != nil {
		t.Fatalf("QueueStats: %v", err)
	}
	if stats.Queued != 3 || stats.Completed != 1 || stats.Total() != 4 {
		t.Fatalf("stats = %+v, want 3 queued / 1 completed / 4 total", stats)
	}
}

func TestJobStatus_NotFound(t *testing.T) {
	uc := newQueueForTest(newMemJobRepo(), nil, 0)
	if _, err := uc.JobStatus(context.Background(), "no-such-job"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
