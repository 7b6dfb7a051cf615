// Package lockout counts failed login attempts per account and enforces
// the temporary lock policy. The in-memory table is authoritative; Redis
// mirrors it so counters survive a process restart. Lock state is purely
// a function of the lock deadline against the clock: an elapsed lock
// clears itself on the next check, no unlock action exists.
package lockout

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"catatuang/api/internal/config"
)

type Status struct {
	Count     int
	Locked    bool
	LockUntil time.Time
}

type entry struct {
	count     int
	lockUntil time.Time
}

type Tracker struct {
	mu      sync.Mutex
	entries map[string]*entry

	maxAttempts int
	duration    time.Duration
	backoffStep time.Duration
	backoffMax  time.Duration

	cache *redis.Client // may be nil; mirror is best-effort
	log   zerolog.Logger
	now   func() time.Time
}

func NewTracker(cfg config.SecurityConfig, cache *redis.Client, log zerolog.Logger) *Tracker {
	return &Tracker{
		entries:     make(map[string]*entry),
		maxAttempts: cfg.MaxLoginAttempts,
		duration:    cfg.LockoutDuration,
		backoffStep: cfg.BackoffStep,
		backoffMax:  cfg.BackoffMax,
		cache:       cache,
		log:         log,
		now:         time.Now,
	}
}

// RecordFailure increments the failure counter for key and applies the
// lock once the configured maximum is reached.
func (t *Tracker) RecordFailure(ctx context.Context, key string) Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.lookup(ctx, key)
	if t.elapsed(e) {
		e.count = 0
		e.lockUntil = time.Time{}
	}

	e.count++
	if e.count >= t.maxAttempts && e.lockUntil.IsZero() {
		e.lockUntil = t.now().Add(t.duration)
	}

	t.entries[key] = e
	t.mirror(ctx, key, e)

	return Status{
		Count:     e.count,
		Locked:    !e.lockUntil.IsZero(),
		LockUntil: e.lockUntil,
	}
}

// RecordSuccess resets the counter and clears any lock for key.
func (t *Tracker) RecordSuccess(ctx context.Context, key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.forget(ctx, key)
}

// IsLocked reports whether key is currently locked. An elapsed lock is
// evicted, counter included, as a side effect of this check.
func (t *Tracker) IsLocked(ctx context.Context, key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.lookup(ctx, key)
	if t.elapsed(e) {
		t.forget(ctx, key)
		return false
	}
	return !e.lockUntil.IsZero() && e.lockUntil.After(t.now())
}

// Remaining returns how many attempts are left before key locks.
func (t *Tracker) Remaining(ctx context.Context, key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.lookup(ctx, key)
	if t.elapsed(e) {
		t.forget(ctx, key)
		return t.maxAttempts
	}

	remaining := t.maxAttempts - e.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RetryAfter returns the time left on key's lock, zero when unlocked.
func (t *Tracker) RetryAfter(ctx context.Context, key string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.lookup(ctx, key)
	if t.elapsed(e) {
		t.forget(ctx, key)
		return 0
	}
	if e.lockUntil.IsZero() {
		return 0
	}
	return e.lockUntil.Sub(t.now())
}

// Delay computes the advisory client backoff after the given attempt
// number: attempt * step, capped. Backpressure only, not a control.
func (t *Tracker) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	d := time.Duration(attempt) * t.backoffStep
	if d > t.backoffMax {
		return t.backoffMax
	}
	return d
}

// elapsed reports whether e's lock deadline has passed.
func (t *Tracker) elapsed(e *entry) bool {
	return !e.lockUntil.IsZero() && !e.lockUntil.After(t.now())
}

// forget evicts key from the table and the mirror. Read-only checks use
// it to reclaim elapsed locks; only RecordFailure ever inserts, so the
// table holds live failure state and nothing else. Callers hold t.mu.
func (t *Tracker) forget(ctx context.Context, key string) {
	delete(t.entries, key)

	if t.cache != nil {
		if err := t.cache.Del(ctx, cacheKey(key)).Err(); err != nil {
			t.log.Debug().Err(err).Str("key", key).Msg("lockout mirror delete failed")
		}
	}
}

// lookup returns the entry for key, consulting the Redis mirror on a
// cold miss. The result is not retained; RecordFailure stores it.
// Callers hold t.mu.
func (t *Tracker) lookup(ctx context.Context, key string) *entry {
	if e, ok := t.entries[key]; ok {
		return e
	}

	e := &entry{}
	if t.cache != nil {
		fields, err := t.cache.HGetAll(ctx, cacheKey(key)).Result()
		if err != nil {
			t.log.Debug().Err(err).Str("key", key).Msg("lockout mirror read failed")
		} else if len(fields) > 0 {
			if n, err := strconv.Atoi(fields["count"]); err == nil {
				e.count = n
			}
			if ms, err := strconv.ParseInt(fields["lock_until"], 10, 64); err == nil && ms > 0 {
				e.lockUntil = time.UnixMilli(ms)
			}
		}
	}
	return e
}

// mirror writes the entry back to Redis. Callers hold t.mu.
func (t *Tracker) mirror(ctx context.Context, key string, e *entry) {
	if t.cache == nil {
		return
	}

	var lockMs int64
	if !e.lockUntil.IsZero() {
		lockMs = e.lockUntil.UnixMilli()
	}

	pipe := t.cache.Pipeline()
	pipe.HSet(ctx, cacheKey(key), "count", e.count, "lock_until", lockMs)
	pipe.Expire(ctx, cacheKey(key), t.duration*2)
	if _, err := pipe.Exec(ctx); err != nil {
		t.log.Debug().Err(err).Str("key", key).Msg("lockout mirror write failed")
	}
}

func cacheKey(key string) string {
	return "lockout:" + key
}
