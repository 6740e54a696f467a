package importjob

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrRateLimited is returned when a tenant has used its hourly imports.
var ErrRateLimited = errors.New("import rate limit exceeded")

// RateLimitError is ErrRateLimited with the time until the tenant may
// import again.
type RateLimitError struct {
	Wait time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: retry in %s", ErrRateLimited, e.Wait.Round(time.Second))
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// Quota counts jobs per tenant over a sliding window.
type Quota struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu     sync.Mutex
	starts map[string][]time.Time
}

// NewQuota allows limit jobs per tenant per window. A non-positive limit
// disables the quota.
func NewQuota(limit int, window time.Duration) *Quota {
	return &Quota{
		limit:  limit,
		window: window,
		now:    time.Now,
		starts: make(map[string][]time.Time),
	}
}

// Allow records a job for tenant, or returns ErrRateLimited together with
// the time until the oldest job in the window expires.
func (q *Quota) Allow(tenant string) (time.Duration, error) {
	if q == nil || q.limit <= 0 {
		return 0, nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	recent := q.prune(tenant, now)
	if len(recent) >= q.limit {
		return recent[0].Add(q.window).Sub(now), ErrRateLimited
	}
	q.starts[tenant] = append(recent, now)
	return 0, nil
}

// Refund gives back the most recent job recorded for tenant, for a job
// that was rejected before it ran.
func (q *Quota) Refund(tenant string) {
	if q == nil || q.limit <= 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	starts := q.starts[tenant]
	if len(starts) <= 1 {
		delete(q.starts, tenant)
		return
	}
	q.starts[tenant] = starts[:len(starts)-1]
}

// Remaining reports how many jobs tenant may still start in the window.
func (q *Quota) Remaining(tenant string) int {
	if q == nil || q.limit <= 0 {
		return -1
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.limit - len(q.prune(tenant, q.now()))
}

// prune drops starts older than the window. Caller holds mu.
func (q *Quota) prune(tenant string, now time.Time) []time.Time {
	starts := q.starts[tenant]
	cut := 0
	for cut < len(starts) && now.Sub(starts[cut]) >= q.window {
		cut++
	}
	recent := starts[cut:]
	if len(recent) == 0 {
		delete(q.starts, tenant)
		return nil
	}
	q.starts[tenant] = recent
	return recent
}
