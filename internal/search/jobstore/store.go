// Package jobstore implements C1 Job Store: a TTL-bound, idempotency-keyed
// record of in-flight and completed searches.
package jobstore

import (
	"context"
	"time"

	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

// DefaultTTL is how long a job record survives after its last update before
// it is eligible for eviction or the staleness sweep.
const DefaultTTL = 10 * time.Minute

// StalenessThreshold is how long a RUNNING job may go without a heartbeat
// update before the sweep marks it DONE_FAILED.
const StalenessThreshold = 90 * time.Second

// DefaultIdempotencyFreshWindow is how long after a DONE_SUCCESS job's last
// update a matching idempotent create still folds into it instead of
// starting a new pipeline run.
const DefaultIdempotencyFreshWindow = 5 * time.Second

// Store is the C1 port: create, advance, and terminate jobs, and cache a
// per-job candidate pool for soft-filter re-queries.
type Store interface {
	// Create inserts a new PENDING job, keyed by RequestID. If idempotencyKey
	// is non-empty and an existing job for the same (sessionID, idempotencyKey)
	// pair is either still non-terminal or reached DONE_SUCCESS within the
	// store's idempotency freshness window, that job is returned instead of a
	// new one (idempotent create).
	Create(ctx context.Context, job *models.Job) (*models.Job, error)

	// Get returns the job for requestID, or models.ErrJobNotFound.
	Get(ctx context.Context, requestID string) (*models.Job, error)

	// GetCandidatePool returns the job's cached candidate pool, or nil if
	// none was ever cached. Returns models.ErrOwnershipMismatch if the job
	// has an owning session and sessionID does not match it.
	GetCandidatePool(ctx context.Context, requestID, sessionID string) (*models.CandidatePool, error)

	// UpdateProgress advances progress monotonically; a lower value than the
	// stored one is a no-op (never regress).
	UpdateProgress(ctx context.Context, requestID string, progress int) error

	// SetResult marks the job terminal with a success/clarify/stopped result.
	SetResult(ctx context.Context, requestID string, status models.JobStatus, result *models.SearchResult) error

	// SetError marks the job DONE_FAILED with the given error payload.
	SetError(ctx context.Context, requestID string, jobErr *models.JobError) error

	// SetCandidatePool attaches a raw fetch cache to the job, bound to the
	// job's own ownership fields (ownership-bound candidate pool).
	SetCandidatePool(ctx context.Context, requestID string, pool *models.CandidatePool) error

	// Heartbeat refreshes UpdatedAt without changing status or progress, so
	// the staleness sweep does not reap a genuinely slow-but-alive job.
	Heartbeat(ctx context.Context, requestID string) error

	// SweepStale scans for RUNNING jobs whose UpdatedAt predates the
	// staleness threshold and marks them DONE_FAILED with a TIMEOUT error.
	// Returns the number of jobs reaped.
	SweepStale(ctx context.Context) (int, error)

	// Close releases any held resources (e.g. the Redis client).
	Close() error
}
