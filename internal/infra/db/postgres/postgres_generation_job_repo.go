package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"content-engine/internal/domain"
	"content-engine/internal/domain/model"
	"content-engine/internal/domain/ports/repository"
)

var _ repository.GenerationJobRepository = (*generationJobRepo)(nil)

type generationJobRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewGenerationJobRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *generationJobRepo {
	return &generationJobRepo{pool: pool, tm: tm}
}

const jobColumns = `id, batch_id, source_ref, topic, category, target_word_count, keywords,
generator_type, requested_by, status, retries, last_error, content_id, created_at, updated_at`

func (r *generationJobRepo) Save(ctx context.Context, tx repository.Tx, job *model.GenerationJob) error {
	job.UpdatedAt = time.Now()

	const q = `
INSERT INTO generation_jobs (id, batch_id, source_ref, topic, category, target_word_count, keywords,
  generator_type, requested_by, status, retries, last_error, content_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  retries = EXCLUDED.retries,
  last_error = EXCLUDED.last_error,
  content_id = EXCLUDED.content_id,
  updated_at = EXCLUDED.updated_at;`

	_, err := execSQL(ctx, r.pool, tx, q,
		job.ID, job.BatchID, job.SourceRef, job.Topic, job.Category, job.TargetWordCount, job.Keywords,
		string(job.GeneratorType), job.RequestedBy, string(job.Status), job.Retries,
		job.LastError, job.ContentID, job.CreatedAt, job.UpdatedAt)
	return err
}

func (r *generationJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.GenerationJob, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+jobColumns+` FROM generation_jobs WHERE id=$1;`, id)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	return scanJob(row)
}

func (r *generationJobRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.GenerationJob, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT `+jobColumns+` FROM generation_jobs ORDER BY created_at DESC;`)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.GenerationJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if rows.Err() != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *generationJobRepo) CountByStatus(ctx context.Context, tx repository.Tx) (repository.QueueStats, error) {
	var stats repository.QueueStats
	rows, err := queryRows(ctx, r.pool, tx, `SELECT status, COUNT(*) FROM generation_jobs GROUP BY status;`)
	if err != nil {
		return stats, domain.ErrOperationFailed
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return stats, domain.ErrReadDatabaseRow
		}
		switch model.GenerationJobStatus(status) {
		case model.JobStatusQueued:
			stats.Queued = n
		case model.JobStatusProcessing:
			stats.Processing = n
		case model.JobStatusCompleted:
			stats.Completed = n
		case model.JobStatusFailed:
			stats.Failed = n
		}
	}
	if rows.Err() != nil {
		return stats, domain.ErrReadDatabaseRow
	}
	return stats, nil
}

// FetchAndMarkProcessing picks the oldest queued job with SKIP LOCKED so
// concurrent workers never double-claim, and flips it to processing in the
// same transaction.
func (r *generationJobRepo) FetchAndMarkProcessing(ctx context.Context) (*model.GenerationJob, error) {
	var job *model.GenerationJob

	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		const fetchQuery = `
SELECT ` + jobColumns + `
FROM generation_jobs
WHERE status = 'queued'
ORDER BY created_at
LIMIT 1
FOR UPDATE SKIP LOCKED;`

		row, err := pickRow(ctx, r.pool, tx, fetchQuery)
		if err != nil {
			return err
		}
		fetched, err := scanJob(row)
		if err != nil {
			return err
		}

		fetched.Status = model.JobStatusProcessing
		if err := r.Save(ctx, tx, fetched); err != nil {
			return err
		}
		job = fetched
		return nil
	})

	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	return job, err
}

// MarkTerminal flips a processing job to its terminal status. The status
// guard in the WHERE clause keeps a worker whose lease was reclaimed from
// overwriting the row: such a write matches zero rows and reports ErrNotFound
// so the caller can roll back anything tied to the stale claim.
func (r *generationJobRepo) MarkTerminal(ctx context.Context, tx repository.Tx, job *model.GenerationJob) error {
	job.UpdatedAt = time.Now()

	const q = `
UPDATE generation_jobs
   SET status = $2, last_error = $3, content_id = $4, updated_at = $5
 WHERE id = $1 AND status = 'processing';`

	tag, err := execSQL(ctx, r.pool, tx, q,
		job.ID, string(job.Status), job.LastError, job.ContentID, job.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RequeueStale returns leased-out processing jobs to the queue once their
// lease expires; jobs past maxRetries are failed instead of looping forever.
func (r *generationJobRepo) RequeueStale(ctx context.Context, lease time.Duration, maxRetries int) (int, int, error) {
	cutoff := time.Now().Add(-lease)

	const requeueQ = `
UPDATE generation_jobs
   SET status = 'queued', retries = retries + 1, updated_at = NOW()
 WHERE status = 'processing' AND updated_at < $1 AND retries < $2;`
	tag, err := execSQL(ctx, r.pool, nil, requeueQ, cutoff, maxRetries)
	if err != nil {
		return 0, 0, err
	}
	requeued := int(tag.RowsAffected())

	const failQ = `
UPDATE generation_jobs
   SET status = 'failed', last_error = 'processing lease expired', updated_at = NOW()
 WHERE status = 'processing' AND updated_at < $1 AND retries >= $2;`
	tag, err = execSQL(ctx, r.pool, nil, failQ, cutoff, maxRetries)
	if err != nil {
		return requeued, 0, err
	}
	return requeued, int(tag.RowsAffected()), nil
}

func scanJob(row pgx.Row) (*model.GenerationJob, error) {
	var j model.GenerationJob
	var genType, status string
	err := row.Scan(
		&j.ID, &j.BatchID, &j.SourceRef, &j.Topic, &j.Category, &j.TargetWordCount, &j.Keywords,
		&genType, &j.RequestedBy, &status, &j.Retries, &j.LastError, &j.ContentID,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	j.GeneratorType = model.GeneratorType(genType)
	j.Status = model.GenerationJobStatus(status)
	return &j, nil
}
