// Package ratelimit implements a per-key fixed window rate limiter.
//
// Each key tracked by a Limiter owns a counter and a window deadline. The
// counter is incremented on every request, including the ones that end up
// rejected, so a caller that keeps retrying keeps spending its quota. A key's
// window is replaced the first time the key is seen after the deadline has
// passed, never mid-window.
package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultSweepInterval is how often a Limiter scans its store for entries
// whose window has already ended. The sweep only bounds memory growth from
// keys that stop sending requests; admission decisions never depend on it,
// because stale entries are also replaced lazily on next access.
const DefaultSweepInterval = time.Minute

// entry is the quota state for one key within the current window.
type entry struct {
	count     int
	windowEnd time.Time
}

// Result describes the outcome of a single quota check.
type Result struct {
	Allowed bool
	Limit   int
	// Remaining is the quota left in the current window, never negative.
	Remaining int
	// Count is the number of requests seen this window, including this one.
	Count int
	// ResetAfter is the time until the key's window ends.
	ResetAfter time.Duration
}

// ResetSeconds returns the whole seconds until the window resets, rounded
// up. It is the value surfaced in the X-RateLimit-Reset and Retry-After
// response headers.
func (r Result) ResetSeconds() int {
	return int(math.Ceil(r.ResetAfter.Seconds()))
}

// Limiter is a fixed window rate limiter with an isolated per-key store.
// Instances never share counters, so several differently configured tiers
// can run side by side.
type Limiter struct {
	name   string
	window time.Duration
	limit  int

	mu      sync.Mutex
	entries map[string]*entry

	now           func() time.Time
	sweepInterval time.Duration
	done          chan struct{}
	closeOnce     sync.Once
}

// Option configures a Limiter beyond the required window and limit.
type Option func(*Limiter)

// WithClock sets a custom time source. Tests use this to move a key across
// its window deadline without sleeping.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithSweepInterval overrides how often expired entries are swept.
func WithSweepInterval(d time.Duration) Option {
	return func(l *Limiter) {
		l.sweepInterval = d
	}
}

// New creates a named Limiter admitting at most limit requests per key per
// window and starts its background sweep. Non-positive window or limit is a
// configuration error and fails here, not at request time. Close must be
// called to stop the sweep goroutine.
func New(name string, window time.Duration, limit int, opts ...Option) (*Limiter, error) {
	if window <= 0 {
		return nil, fmt.Errorf("ratelimit %q: window must be positive, got %v", name, window)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("ratelimit %q: limit must be positive, got %d", name, limit)
	}
	l := &Limiter{
		name:          name,
		window:        window,
		limit:         limit,
		entries:       make(map[string]*entry),
		now:           time.Now,
		sweepInterval: DefaultSweepInterval,
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	go l.sweepLoop()
	log.Info().Str("limiter", name).Dur("window", window).Int("limit", limit).Msg("Limiter: initialized")
	return l, nil
}

// Name returns the limiter's configured name.
func (l *Limiter) Name() string {
	return l.name
}

// Allow records one request for key and reports whether it fits the key's
// quota in the current window. It never blocks and rejection is a normal
// outcome, not an error. The whole lookup-increment-compare sequence runs
// under the limiter's mutex so concurrent callers cannot both take the last
// remaining slot.
func (l *Limiter) Allow(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok || e.windowEnd.Before(now) {
		// First request for this key, or its previous window has ended:
		// replace the entry outright instead of mutating the stale one.
		e = &entry{count: 1, windowEnd: now.Add(l.window)}
		l.entries[key] = e
	} else {
		// The count moves before the verdict, so a rejected request still
		// spends a slot and immediate retries keep being counted.
		e.count++
	}

	remaining := l.limit - e.count
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Allowed:    e.count <= l.limit,
		Limit:      l.limit,
		Remaining:  remaining,
		Count:      e.count,
		ResetAfter: e.windowEnd.Sub(now),
	}
	log.Debug().
		Str("limiter", l.name).
		Str("key", key).
		Int("count", e.count).
		Int("limit", l.limit).
		Bool("allowed", res.Allowed).
		Msg("Limiter: checked")
	return res
}

// Keys reports how many keys currently have a tracked entry, expired or not.
func (l *Limiter) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Close stops the background sweep. It is safe to call more than once; the
// error return exists to satisfy io.Closer and is always nil.
func (l *Limiter) Close() error {
	l.closeOnce.Do(func() {
		close(l.done)
	})
	return nil
}

func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(l.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if removed := l.removeExpired(l.now()); removed > 0 {
				log.Debug().Str("limiter", l.name).Int("removed", removed).Msg("Limiter: swept expired entries")
			}
		case <-l.done:
			return
		}
	}
}

// removeExpired deletes every entry whose window deadline has passed. It
// takes the same mutex as Allow, so a sweep never races a check on the same
// key.
func (l *Limiter) removeExpired(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, e := range l.entries {
		if e.windowEnd.Before(now) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}
