package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"content-engine/internal/domain"
	"content-engine/internal/domain/model"
	"content-engine/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

var _ repository.ProgressSink = (*ProgressStore)(nil)

const (
	// Records for in-flight jobs stay visible long enough for slow jobs;
	// terminal records linger briefly so a polling dashboard sees the
	// final state before the record vanishes.
	activeTTL   = time.Hour
	terminalTTL = 5 * time.Minute
)

// ProgressStore keeps per-job GenerationProgress records in Redis. All writes
// are best-effort: a Redis outage degrades dashboard visibility but must never
// fail a job, so mutating methods log at debug and return nothing.
type ProgressStore struct {
	client RedisClient
	log    *zerolog.Logger
}

func NewProgressStore(client RedisClient, logger *zerolog.Logger) *ProgressStore {
	l := logger.With().Str("component", "ProgressStore").Logger()
	return &ProgressStore{client: client, log: &l}
}

func progressKey(jobID string) string {
	return fmt.Sprintf("gen_progress:%s", jobID)
}

func (s *ProgressStore) Init(ctx context.Context, jobID, topic, contentType string, totalSections int) {
	p := model.NewGenerationProgress(jobID, topic, contentType, totalSections)
	p.AppendLog(fmt.Sprintf("generation started: %q (%d sections planned)", topic, totalSections))
	s.put(ctx, p, activeTTL)
}

func (s *ProgressStore) StartSection(ctx context.Context, jobID, section string) {
	p := s.load(ctx, jobID)
	if p == nil {
		return // dangling job, nothing to update
	}
	p.CurrentSection = section
	p.UpdatedAt = time.Now()
	p.AppendLog(fmt.Sprintf("writing section %q", section))
	s.put(ctx, p, activeTTL)
}

func (s *ProgressStore) CompleteSection(ctx context.Context, jobID, section string, words int, costMicros int64) {
	p := s.load(ctx, jobID)
	if p == nil {
		return
	}
	p.MarkSectionDone(section, words, costMicros)
	p.AppendLog(fmt.Sprintf("section %q done: %d words, $%.4f", section, words, float64(costMicros)/1_000_000))
	s.put(ctx, p, activeTTL)
}

func (s *ProgressStore) Complete(ctx context.Context, jobID string) {
	p := s.load(ctx, jobID)
	if p == nil {
		return
	}
	p.Status = model.ProgressCompleted
	p.Percent = 100
	p.CurrentSection = ""
	p.UpdatedAt = time.Now()
	p.AppendLog(fmt.Sprintf("generation complete: %d words, $%.4f total", p.WordCount, float64(p.CostMicros)/1_000_000))
	s.put(ctx, p, terminalTTL)
}

func (s *ProgressStore) Fail(ctx context.Context, jobID, errMsg string) {
	p := s.load(ctx, jobID)
	if p == nil {
		return
	}
	p.Status = model.ProgressFailed
	p.Error = errMsg
	p.CurrentSection = ""
	p.UpdatedAt = time.Now()
	p.AppendLog("generation failed: " + errMsg)
	s.put(ctx, p, terminalTTL)
}

func (s *ProgressStore) Get(ctx context.Context, jobID string) (*model.GenerationProgress, error) {
	data, err := s.client.Get(ctx, progressKey(jobID))
	if err != nil {
		if IsNil(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var p model.GenerationProgress
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProgressStore) load(ctx context.Context, jobID string) *model.GenerationProgress {
	p, err := s.Get(ctx, jobID)
	if err != nil {
		if err != domain.ErrNotFound {
			s.log.Debug().Err(err).Str("job_id", jobID).Msg("progress read failed")
		}
		return nil
	}
	return p
}

func (s *ProgressStore) put(ctx context.Context, p *model.GenerationProgress, ttl time.Duration) {
	data, err := json.Marshal(p)
	if err != nil {
		s.log.Debug().Err(err).Str("job_id", p.JobID).Msg("progress marshal failed")
		return
	}
	if err := s.client.Set(ctx, progressKey(p.JobID), data, ttl); err != nil {
		s.log.Debug().Err(err).Str("job_id", p.JobID).Msg("progress write failed")
	}
}
