package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"content-engine/internal/domain/ports/repository"
	"content-engine/internal/infra/metrics"
)

// Reclaimer periodically sweeps jobs stuck in processing past their lease:
// a crashed or timed-out worker leaves the row behind, and without this sweep
// the job would stay "processing" forever. Jobs under the retry cap go back to
// the queue; the rest are failed.
type Reclaimer struct {
	interval   time.Duration
	lease      time.Duration
	maxRetries int
	jobs       repository.GenerationJobRepository
	log        *zerolog.Logger
}

func NewReclaimer(interval, lease time.Duration, maxRetries int, jobs repository.GenerationJobRepository, logger *zerolog.Logger) *Reclaimer {
	l := logger.With().Str("component", "Reclaimer").Logger()
	return &Reclaimer{
		interval:   interval,
		lease:      lease,
		maxRetries: maxRetries,
		jobs:       jobs,
		log:        &l,
	}
}

func (r *Reclaimer) Run(ctx context.Context) error {
	r.log.Info().Dur("interval", r.interval).Dur("lease", r.lease).Msg("starting job reclaimer")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("stopping job reclaimer")
			return ctx.Err()
		case <-ticker.C:
			requeued, failed, err := r.jobs.RequeueStale(ctx, r.lease, r.maxRetries)
			if err != nil {
				r.log.Error().Err(err).Msg("reclaimer sweep error")
				continue
			}
			if requeued > 0 {
				metrics.AddJobsRequeued(requeued)
				r.log.Warn().Int("count", requeued).Msg("stale processing jobs requeued")
			}
			if failed > 0 {
				r.log.Warn().Int("count", failed).Msg("stale processing jobs failed past retry cap")
			}
		}
	}
}
