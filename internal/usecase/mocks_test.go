package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"content-engine/internal/domain"
	"content-engine/internal/domain/model"
	"content-engine/internal/domain/ports/adapter"
	"content-engine/internal/domain/ports/repository"
)

// memJobRepo is a small in-memory implementation used by unit tests.
type memJobRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.GenerationJob
	saveErr error // used by tests to simulate save failures
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{store: make(map[string]*model.GenerationJob)}
}

func (m *memJobRepo) Save(ctx context.Context, tx repository.Tx, job *model.GenerationJob) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.store[job.ID] = &cp
	return nil
}

func (m *memJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.GenerationJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.GenerationJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.GenerationJob, 0, len(m.store))
	for _, j := range m.store {
		cp := *j
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, nil
}

func (m *memJobRepo) CountByStatus(ctx context.Context, tx repository.Tx) (repository.QueueStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var s repository.QueueStats
	for _, j := range m.store {
		switch j.Status {
		case model.JobStatusQueued:
			s.Queued++
		case model.JobStatusProcessing:
			s.Processing++
		case model.JobStatusCompleted:
			s.Completed++
		case model.JobStatusFailed:
			s.Failed++
		}
	}
	return s, nil
}

func (m *memJobRepo) FetchAndMarkProcessing(ctx context.Context) (*model.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var oldest *model.GenerationJob
	for _, j := range m.store {
		if j.Status != model.JobStatusQueued {
			continue
		}
		if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) || (j.CreatedAt.Equal(oldest.CreatedAt) && j.ID < oldest.ID) {
			oldest = j
		}
	}
	if oldest == nil {
		return nil, domain.ErrNotFound
	}
	oldest.Status = model.JobStatusProcessing
	oldest.UpdatedAt = time.Now()
	cp := *oldest
	return &cp, nil
}

func (m *memJobRepo) MarkTerminal(ctx context.Context, tx repository.Tx, job *model.GenerationJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[job.ID]
	if !ok || j.Status != model.JobStatusProcessing {
		return domain.ErrNotFound
	}
	j.Status = job.Status
	j.LastError = job.LastError
	j.ContentID = job.ContentID
	j.UpdatedAt = time.Now()
	return nil
}

func (m *memJobRepo) RequeueStale(ctx context.Context, lease time.Duration, maxRetries int) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-lease)
	requeued, failed := 0, 0
	for _, j := range m.store {
		if j.Status != model.JobStatusProcessing || j.UpdatedAt.After(cutoff) {
			continue
		}
		if j.Retries < maxRetries {
			j.Status = model.JobStatusQueued
			j.Retries++
			requeued++
		} else {
			j.Status = model.JobStatusFailed
			j.LastError = "processing lease expired"
			failed++
		}
		j.UpdatedAt = time.Now()
	}
	return requeued, failed, nil
}

// memContentRepo provides in-memory artifacts for tests.
type memContentRepo struct {
	mu    sync.RWMutex
	store map[string]*model.GeneratedContent
}

func newMemContentRepo() *memContentRepo {
	return &memContentRepo{store: make(map[string]*model.GeneratedContent)}
}

func (m *memContentRepo) Save(ctx context.Context, tx repository.Tx, c *model.GeneratedContent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *memContentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.GeneratedContent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memContentRepo) FindByJobID(ctx context.Context, tx repository.Tx, jobID string) (*model.GeneratedContent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.store {
		if c.JobID == jobID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memContentRepo) UpdateReviewStatus(ctx context.Context, tx repository.Tx, id string, status model.ReviewStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[id]
	if !ok || c.ReviewStatus != model.ReviewPending {
		return domain.ErrNotFound
	}
	c.ReviewStatus = status
	return nil
}

// memPricingRepo satisfies ModelPricingRepository for tests.
type memPricingRepo struct {
	mu     sync.RWMutex
	store  map[string]*model.ModelPricing
	getErr error // simulate registry outage
}

func newMemPricingRepo() *memPricingRepo {
	return &memPricingRepo{store: make(map[string]*model.ModelPricing)}
}

func (m *memPricingRepo) GetByModelName(ctx context.Context, tx repository.Tx, name string) (*model.ModelPricing, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[name]
	if !ok || !p.Active {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPricingRepo) Save(ctx context.Context, tx repository.Tx, p *model.ModelPricing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ModelName] = &cp
	return nil
}

func (m *memPricingRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.ModelPricing, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.ModelPricing
	for _, p := range m.store {
		if p.Active {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// recordSink records progress notifications so tests can assert on the
// sequence without a Redis instance.
type recordSink struct {
	mu        sync.Mutex
	inits     []string
	started   []string
	completed []string
	words     int
	cost      int64
	done      []string
	failed    map[string]string
}

func newRecordSink() *recordSink {
	return &recordSink{failed: make(map[string]string)}
}

func (r *recordSink) Init(ctx context.Context, jobID, topic, contentType string, totalSections int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inits = append(r.inits, jobID)
}

func (r *recordSink) StartSection(ctx context.Context, jobID, section string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, section)
}

func (r *recordSink) CompleteSection(ctx context.Context, jobID, section string, words int, costMicros int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, section)
	r.words += words
	r.cost += costMicros
}

func (r *recordSink) Complete(ctx context.Context, jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = append(r.done, jobID)
}

func (r *recordSink) Fail(ctx context.Context, jobID, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[jobID] = errMsg
}

func (r *recordSink) Get(ctx context.Context, jobID string) (*model.GenerationProgress, error) {
	return nil, domain.ErrNotFound
}

// fakeAI returns a deterministic paragraph per call; failAt makes the N-th
// call (1-based) fail to exercise abort paths.
type fakeAI struct {
	mu     sync.Mutex
	calls  int
	failAt int
	text   string
}

func (f *fakeAI) Name() string { return "fake" }

func (f *fakeAI) ListModels(ctx context.Context) ([]string, error) {
	return []string{"fake-model"}, nil
}

func (f *fakeAI) CountTokens(ctx context.Context, model, text string) (int, error) {
	return len(text) / 4, nil
}

func (f *fakeAI) Complete(ctx context.Context, req adapter.CompletionRequest) (adapter.CompletionResult, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	if f.failAt > 0 && n >= f.failAt {
		return adapter.CompletionResult{}, &domain.ProviderError{Provider: "fake", Model: req.Model, Err: fmt.Errorf("call %d refused", n)}
	}
	text := f.text
	if text == "" {
		text = "alpha beta gamma delta epsilon"
	}
	return adapter.CompletionResult{Text: text, PromptTokens: 100, CompletionTokens: 200}, nil
}

func (f *fakeAI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeLimiter counts Allow calls and can be switched to deny.
type fakeLimiter struct {
	mu         sync.Mutex
	calls      int
	submitters []string
	deny       bool
	err        error
}

func (f *fakeLimiter) Allow(ctx context.Context, submitter string, limit int, window time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.submitters = append(f.submitters, submitter)
	if f.err != nil {
		return false, f.err
	}
	return !f.deny, nil
}
