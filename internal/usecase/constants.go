package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultCacheTTL is how long a retrieved split stays cached
	DefaultCacheTTL = 5 * time.Minute

	// CacheInvalidationTTL is how long a written split blocks read-through
	// repopulation of its cache entry
	CacheInvalidationTTL = 30 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	splitCacheKeyPrefix = "split:"
)
