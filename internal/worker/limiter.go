package worker

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/tokyo-gender/rosterkit/internal/model"
)

// Limiter throttles page reads per (year, gov_level) partition. Network
// mounts of the scan archive are shared per volume, so each partition
// gets its own bucket.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter. A non-positive readsPerSecond
// leaves partitions without an override unthrottled.
func NewLimiter(readsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  limit(readsPerSecond),
		defaultBurst: burst,
	}
}

// NewLimiterFromConfig builds the limiter for a build, or nil when nothing
// is throttled
func NewLimiterFromConfig(cfg model.RateLimitingConfig) *Limiter {
	if cfg.ReadsPerSecond <= 0 && len(cfg.Partitions) == 0 {
		return nil
	}
	l := NewLimiter(cfg.ReadsPerSecond, cfg.BurstSize)
	for partition, pr := range cfg.Partitions {
		l.SetPartitionRate(partition, pr.ReadsPerSecond, pr.BurstSize)
	}
	return l
}

func limit(readsPerSecond float64) rate.Limit {
	if readsPerSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(readsPerSecond)
}

// partitionKey folds case; config loaders lower-case map keys
func partitionKey(partition string) string {
	return strings.ToLower(strings.TrimSpace(partition))
}

// Wait blocks until a read is allowed for the partition
func (l *Limiter) Wait(ctx context.Context, partition string) error {
	return l.getLimiter(partition).Wait(ctx)
}

// getLimiter returns the rate limiter for a partition
func (l *Limiter) getLimiter(partition string) *rate.Limiter {
	partition = partitionKey(partition)
	l.mu.RLock()
	limiter, exists := l.limiters[partition]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[partition]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[partition] = limiter

	return limiter
}

// SetPartitionRate sets a custom rate limit for one partition
func (l *Limiter) SetPartitionRate(partition string, readsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters[partitionKey(partition)] = rate.NewLimiter(limit(readsPerSecond), burst)
}
