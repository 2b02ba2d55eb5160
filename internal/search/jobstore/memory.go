package jobstore

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-search-core/internal/pkg/logger"
	"github.com/FACorreiaa/loci-search-core/internal/search/metrics"
	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

// idemKey is the composite key used for idempotent-create lookups.
type idemKey struct {
	sessionID string
	key       string
}

// MemoryStore is an in-process Store, suitable for single-instance
// deployments and tests. It mirrors the generic TTL-cache idiom of
// internal/pkg/cache but keyed by requestID and status-aware.
type MemoryStore struct {
	mu          sync.RWMutex
	jobs        map[string]*models.Job
	idemByID    map[idemKey]string
	ttl         time.Duration
	freshWindow time.Duration
}

// NewMemoryStore constructs an empty in-memory job store with the given TTL
// and idempotency freshness window (the interval after a DONE_SUCCESS job's
// UpdatedAt during which Create still folds a matching request into it). A
// non-positive freshWindow falls back to DefaultIdempotencyFreshWindow.
func NewMemoryStore(ttl, freshWindow time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if freshWindow <= 0 {
		freshWindow = DefaultIdempotencyFreshWindow
	}
	return &MemoryStore{
		jobs:        make(map[string]*models.Job),
		idemByID:    make(map[idemKey]string),
		ttl:         ttl,
		freshWindow: freshWindow,
	}
}

func (m *MemoryStore) Create(_ context.Context, job *models.Job) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job.IdempotencyKey != nil && *job.IdempotencyKey != "" {
		key := idemKey{sessionID: job.SessionID, key: *job.IdempotencyKey}
		if existingID, ok := m.idemByID[key]; ok {
			if existing, ok := m.jobs[existingID]; ok && matchesIdempotent(existing, m.freshWindow) {
				return existing, nil
			}
		}
		m.idemByID[key] = job.RequestID
	}

	now := time.Now()
	job.Status = models.JobPending
	job.Progress = models.ProgressJobCreated
	job.CreatedAt = now
	job.UpdatedAt = now
	m.jobs[job.RequestID] = job
	return job, nil
}

// matchesIdempotent reports whether an existing job should be folded into by
// a fresh idempotent create: either it is still in flight, or it reached
// DONE_SUCCESS within freshWindow of now.
func matchesIdempotent(existing *models.Job, freshWindow time.Duration) bool {
	if !existing.Status.IsTerminal() {
		return true
	}
	return existing.Status == models.JobDoneSuccess && time.Since(existing.UpdatedAt) <= freshWindow
}

func (m *MemoryStore) Get(_ context.Context, requestID string) (*models.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[requestID]
	if !ok || time.Since(job.UpdatedAt) > m.ttl {
		return nil, models.ErrJobNotFound
	}
	return job, nil
}

func (m *MemoryStore) UpdateProgress(_ context.Context, requestID string, progress int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[requestID]
	if !ok {
		return models.ErrJobNotFound
	}
	if progress > job.Progress {
		job.Progress = progress
	}
	job.Status = models.JobRunning
	job.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) SetResult(_ context.Context, requestID string, status models.JobStatus, result *models.SearchResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[requestID]
	if !ok {
		return models.ErrJobNotFound
	}
	job.Status = status
	job.Progress = models.ProgressTerminal
	job.Result = result
	job.UpdatedAt = time.Now()
	metrics.JobStatusTotal.WithLabelValues(string(status)).Inc()
	return nil
}

func (m *MemoryStore) SetError(_ context.Context, requestID string, jobErr *models.JobError) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[requestID]
	if !ok {
		return models.ErrJobNotFound
	}
	job.Status = models.JobDoneFailed
	job.Progress = models.ProgressTerminal
	job.Error = jobErr
	job.UpdatedAt = time.Now()
	metrics.JobStatusTotal.WithLabelValues(string(models.JobDoneFailed)).Inc()
	return nil
}

func (m *MemoryStore) SetCandidatePool(_ context.Context, requestID string, pool *models.CandidatePool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[requestID]
	if !ok {
		return models.ErrJobNotFound
	}
	job.CandidatePool = pool
	job.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) GetCandidatePool(_ context.Context, requestID, sessionID string) (*models.CandidatePool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[requestID]
	if !ok {
		return nil, models.ErrJobNotFound
	}
	if job.OwnerSessionID != nil && *job.OwnerSessionID != sessionID {
		return nil, models.ErrOwnershipMismatch
	}
	return job.CandidatePool, nil
}

func (m *MemoryStore) Heartbeat(_ context.Context, requestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[requestID]
	if !ok {
		return models.ErrJobNotFound
	}
	job.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) SweepStale(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reaped := 0
	now := time.Now()
	for id, job := range m.jobs {
		if job.Status == models.JobRunning && now.Sub(job.UpdatedAt) > StalenessThreshold {
			job.Status = models.JobDoneFailed
			job.Error = &models.JobError{
				Code:      "JOB_STALE",
				Message:   "job produced no progress before the staleness threshold",
				ErrorType: models.ErrorKindTimeout,
			}
			job.UpdatedAt = now
			reaped++
			logger.Log.Warn("job reaped as stale", zap.String("requestId", id))
		}
	}
	return reaped, nil
}

// evictExpired drops jobs whose UpdatedAt predates ttl. Nothing calls it:
// SweepStale does not evict, and Get hides expired jobs instead.
func (m *MemoryStore) evictExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for id, job := range m.jobs {
		if now.Sub(job.UpdatedAt) > m.ttl {
			delete(m.jobs, id)
		}
	}
}

func (m *MemoryStore) Close() error { return nil }
