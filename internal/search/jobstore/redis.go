package jobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-search-core/internal/pkg/logger"
	"github.com/FACorreiaa/loci-search-core/internal/search/metrics"
	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

// RedisStoreConfig configures a RedisStore, mirroring the key-prefix/TTL
// shape of a Redis-backed task store.
type RedisStoreConfig struct {
	KeyPrefix              string
	TTL                    time.Duration
	IdempotencyFreshWindow time.Duration
}

// DefaultRedisStoreConfig returns sane defaults for the "jobs" namespace.
func DefaultRedisStoreConfig() RedisStoreConfig {
	return RedisStoreConfig{KeyPrefix: "search", TTL: DefaultTTL, IdempotencyFreshWindow: DefaultIdempotencyFreshWindow}
}

// RedisStore is a Redis-backed Store, for multi-instance deployments where
// jobs must be visible across process boundaries.
type RedisStore struct {
	client *redis.Client
	cfg    RedisStoreConfig
}

// NewRedisStore wraps an already-connected redis.Client.
func NewRedisStore(client *redis.Client, cfg RedisStoreConfig) *RedisStore {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "search"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.IdempotencyFreshWindow <= 0 {
		cfg.IdempotencyFreshWindow = DefaultIdempotencyFreshWindow
	}
	return &RedisStore{client: client, cfg: cfg}
}

func (r *RedisStore) jobKey(requestID string) string {
	return fmt.Sprintf("%s:job:%s", r.cfg.KeyPrefix, requestID)
}

func (r *RedisStore) idemKey(sessionID, idempotencyKey string) string {
	return fmt.Sprintf("%s:idem:%s:%s", r.cfg.KeyPrefix, sessionID, idempotencyKey)
}

func (r *RedisStore) write(ctx context.Context, job *models.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	return r.client.Set(ctx, r.jobKey(job.RequestID), payload, r.cfg.TTL).Err()
}

func (r *RedisStore) read(ctx context.Context, requestID string) (*models.Job, error) {
	raw, err := r.client.Get(ctx, r.jobKey(requestID)).Bytes()
	if err == redis.Nil {
		return nil, models.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	var job models.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &job, nil
}

func (r *RedisStore) Create(ctx context.Context, job *models.Job) (*models.Job, error) {
	if job.IdempotencyKey != nil && *job.IdempotencyKey != "" {
		idk := r.idemKey(job.SessionID, *job.IdempotencyKey)
		existingID, err := r.client.Get(ctx, idk).Result()
		if err == nil && existingID != "" {
			if existing, gerr := r.read(ctx, existingID); gerr == nil && matchesIdempotent(existing, r.cfg.IdempotencyFreshWindow) {
				return existing, nil
			}
		}
		if err := r.client.Set(ctx, idk, job.RequestID, r.cfg.TTL).Err(); err != nil {
			logger.Log.Warn("failed to persist idempotency mapping", zap.Error(err))
		}
	}

	now := time.Now()
	job.Status = models.JobPending
	job.Progress = models.ProgressJobCreated
	job.CreatedAt = now
	job.UpdatedAt = now
	if err := r.write(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (r *RedisStore) Get(ctx context.Context, requestID string) (*models.Job, error) {
	return r.read(ctx, requestID)
}

func (r *RedisStore) UpdateProgress(ctx context.Context, requestID string, progress int) error {
	job, err := r.read(ctx, requestID)
	if err != nil {
		return err
	}
	if progress > job.Progress {
		job.Progress = progress
	}
	job.Status = models.JobRunning
	job.UpdatedAt = time.Now()
	return r.write(ctx, job)
}

func (r *RedisStore) SetResult(ctx context.Context, requestID string, status models.JobStatus, result *models.SearchResult) error {
	job, err := r.read(ctx, requestID)
	if err != nil {
		return err
	}
	job.Status = status
	job.Progress = models.ProgressTerminal
	job.Result = result
	job.UpdatedAt = time.Now()
	if err := r.write(ctx, job); err != nil {
		return err
	}
	metrics.JobStatusTotal.WithLabelValues(string(status)).Inc()
	return nil
}

func (r *RedisStore) SetError(ctx context.Context, requestID string, jobErr *models.JobError) error {
	job, err := r.read(ctx, requestID)
	if err != nil {
		return err
	}
	job.Status = models.JobDoneFailed
	job.Progress = models.ProgressTerminal
	job.Error = jobErr
	job.UpdatedAt = time.Now()
	if err := r.write(ctx, job); err != nil {
		return err
	}
	metrics.JobStatusTotal.WithLabelValues(string(models.JobDoneFailed)).Inc()
	return nil
}

// SetCandidatePool persists the owner-bound candidate pool. Per Open
// Question #1, a write rejection on the persistent backend never fails the
// request: it logs a warning and the pipeline continues without caching,
// since the candidate pool is an optimization, not a correctness
// requirement.
func (r *RedisStore) SetCandidatePool(ctx context.Context, requestID string, pool *models.CandidatePool) error {
	job, err := r.read(ctx, requestID)
	if err != nil {
		return err
	}
	job.CandidatePool = pool
	job.UpdatedAt = time.Now()
	if err := r.write(ctx, job); err != nil {
		logger.Log.Warn("failed to persist candidate pool, continuing without caching",
			zap.String("requestId", requestID), zap.Error(err))
	}
	return nil
}

func (r *RedisStore) GetCandidatePool(ctx context.Context, requestID, sessionID string) (*models.CandidatePool, error) {
	job, err := r.read(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if job.OwnerSessionID != nil && *job.OwnerSessionID != sessionID {
		return nil, models.ErrOwnershipMismatch
	}
	return job.CandidatePool, nil
}

func (r *RedisStore) Heartbeat(ctx context.Context, requestID string) error {
	job, err := r.read(ctx, requestID)
	if err != nil {
		return err
	}
	job.UpdatedAt = time.Now()
	return r.write(ctx, job)
}

// SweepStale scans jobs under this store's prefix via cursor-based SCAN,
// never KEYS, per the Redis store idiom of avoiding blocking enumeration.
func (r *RedisStore) SweepStale(ctx context.Context) (int, error) {
	reaped := 0
	var cursor uint64
	pattern := fmt.Sprintf("%s:job:*", r.cfg.KeyPrefix)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return reaped, fmt.Errorf("scan jobs: %w", err)
		}
		for _, key := range keys {
			raw, err := r.client.Get(ctx, key).Bytes()
			if err != nil {
				continue
			}
			var job models.Job
			if err := json.Unmarshal(raw, &job); err != nil {
				continue
			}
			if job.Status == models.JobRunning && time.Since(job.UpdatedAt) > StalenessThreshold {
				job.Status = models.JobDoneFailed
				job.Error = &models.JobError{
					Code:      "JOB_STALE",
					Message:   "job produced no progress before the staleness threshold",
					ErrorType: models.ErrorKindTimeout,
				}
				job.UpdatedAt = time.Now()
				if err := r.write(ctx, &job); err == nil {
					reaped++
				}
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return reaped, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
