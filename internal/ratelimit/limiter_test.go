package ratelimit_test

import (
	"sync"
	"testing"
	"time"

	"github.com/tubedash/tubedash/internal/ratelimit"
)

// testClock is a manually advanced time source shared with a limiter under
// test via WithClock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(t *testing.T, name string, window time.Duration, limit int, opts ...ratelimit.Option) *ratelimit.Limiter {
	t.Helper()
	l, err := ratelimit.New(name, window, limit, opts...)
	if err != nil {
		t.Fatalf("New(%q) failed: %v", name, err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := ratelimit.New("bad_window", 0, 10); err == nil {
		t.Fatal("expected error for zero window, got nil")
	}
	if _, err := ratelimit.New("bad_window", -time.Second, 10); err == nil {
		t.Fatal("expected error for negative window, got nil")
	}
	if _, err := ratelimit.New("bad_limit", time.Minute, 0); err == nil {
		t.Fatal("expected error for zero limit, got nil")
	}
	if _, err := ratelimit.New("bad_limit", time.Minute, -1); err == nil {
		t.Fatal("expected error for negative limit, got nil")
	}
}

func TestAllow_AdmissionBound(t *testing.T) {
	limiter := newTestLimiter(t, "test_bound", time.Minute, 3)

	for i := 1; i <= 3; i++ {
		res := limiter.Allow("user1")
		if !res.Allowed {
			t.Fatalf("request %d unexpectedly rejected", i)
		}
		if res.Count != i {
			t.Fatalf("request %d: count = %d, want %d", i, res.Count, i)
		}
		if want := 3 - i; res.Remaining != want {
			t.Fatalf("request %d: remaining = %d, want %d", i, res.Remaining, want)
		}
	}

	res := limiter.Allow("user1")
	if res.Allowed {
		t.Fatal("request 4 unexpectedly admitted after limit")
	}
	if res.Remaining != 0 {
		t.Fatalf("rejected request: remaining = %d, want 0", res.Remaining)
	}
}

func TestAllow_RejectedRequestsStillCounted(t *testing.T) {
	limiter := newTestLimiter(t, "test_spent_slots", time.Minute, 2)

	limiter.Allow("user1")
	limiter.Allow("user1")

	// Rejected requests keep incrementing the counter; retries are not free.
	res := limiter.Allow("user1")
	if res.Allowed {
		t.Fatal("request 3 unexpectedly admitted")
	}
	if res.Count != 3 {
		t.Fatalf("request 3: count = %d, want 3", res.Count)
	}
	res = limiter.Allow("user1")
	if res.Allowed {
		t.Fatal("request 4 unexpectedly admitted")
	}
	if res.Count != 4 {
		t.Fatalf("request 4: count = %d, want 4", res.Count)
	}
}

func TestAllow_WindowReset(t *testing.T) {
	clock := newTestClock()
	limiter := newTestLimiter(t, "test_reset", time.Second, 2, ratelimit.WithClock(clock.Now))

	if res := limiter.Allow("192.168.1.4"); !res.Allowed {
		t.Fatal("request 1 unexpectedly rejected")
	}
	if res := limiter.Allow("192.168.1.4"); !res.Allowed {
		t.Fatal("request 2 unexpectedly rejected")
	}
	if res := limiter.Allow("192.168.1.4"); res.Allowed {
		t.Fatal("request 3 unexpectedly admitted")
	}

	clock.Advance(1100 * time.Millisecond)

	res := limiter.Allow("192.168.1.4")
	if !res.Allowed {
		t.Fatal("request after window reset unexpectedly rejected")
	}
	if res.Count != 1 {
		t.Fatalf("count after reset = %d, want 1", res.Count)
	}
	if res.Remaining != 1 {
		t.Fatalf("remaining after reset = %d, want 1", res.Remaining)
	}
}

func TestAllow_WindowNotResetAtExactDeadline(t *testing.T) {
	clock := newTestClock()
	limiter := newTestLimiter(t, "test_deadline", time.Second, 1, ratelimit.WithClock(clock.Now))

	limiter.Allow("user1")
	// The entry expires only once now is strictly past windowEnd.
	clock.Advance(time.Second)
	if res := limiter.Allow("user1"); res.Allowed {
		t.Fatal("request at exact window end unexpectedly admitted")
	}
	clock.Advance(time.Millisecond)
	if res := limiter.Allow("user1"); !res.Allowed {
		t.Fatal("request after window end unexpectedly rejected")
	}
}

func TestAllow_KeyIsolation(t *testing.T) {
	limiter := newTestLimiter(t, "test_isolation", time.Minute, 2)

	limiter.Allow("user1")
	limiter.Allow("user1")
	if res := limiter.Allow("user1"); res.Allowed {
		t.Fatal("user1 request over limit unexpectedly admitted")
	}

	res := limiter.Allow("user2")
	if !res.Allowed {
		t.Fatal("request for different key unexpectedly rejected")
	}
	if res.Count != 1 {
		t.Fatalf("user2 count = %d, want 1", res.Count)
	}
}

func TestAllow_InstancesAreIndependent(t *testing.T) {
	strict := newTestLimiter(t, "test_instance_strict", time.Minute, 1)
	lenient := newTestLimiter(t, "test_instance_lenient", time.Minute, 5)

	strict.Allow("user1")
	if res := strict.Allow("user1"); res.Allowed {
		t.Fatal("strict instance unexpectedly admitted second request")
	}
	res := lenient.Allow("user1")
	if !res.Allowed {
		t.Fatal("lenient instance affected by strict instance counters")
	}
	if res.Count != 1 {
		t.Fatalf("lenient count = %d, want 1", res.Count)
	}
}

func TestResult_ResetSeconds(t *testing.T) {
	clock := newTestClock()
	limiter := newTestLimiter(t, "test_reset_seconds", time.Minute, 1, ratelimit.WithClock(clock.Now))

	res := limiter.Allow("user1")
	if got := res.ResetSeconds(); got != 60 {
		t.Fatalf("fresh window ResetSeconds = %d, want 60", got)
	}

	// Partway through the window the value rounds up, never down to zero.
	clock.Advance(59*time.Second + 500*time.Millisecond)
	res = limiter.Allow("user1")
	if res.Allowed {
		t.Fatal("over-limit request unexpectedly admitted")
	}
	if got := res.ResetSeconds(); got != 1 {
		t.Fatalf("ResetSeconds near window end = %d, want 1", got)
	}
	if got := res.ResetSeconds(); got <= 0 || got > 60 {
		t.Fatalf("ResetSeconds = %d, want within (0, 60]", got)
	}
}

func TestAllow_Concurrency(t *testing.T) {
	limiter := newTestLimiter(t, "test_concurrency", time.Minute, 5)

	numRequests := 10
	results := make(chan bool, numRequests)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < numRequests; i++ {
		go func() {
			start.Wait()
			results <- limiter.Allow("user1").Allowed
		}()
	}
	start.Done()

	allowedCount := 0
	for i := 0; i < numRequests; i++ {
		if <-results {
			allowedCount++
		}
	}

	// Every request increments the counter, so with 10 callers and limit 5
	// exactly the first 5 counted requests are admitted.
	if allowedCount != 5 {
		t.Fatalf("allowed %d requests, want exactly 5", allowedCount)
	}
}

func TestSweep_RemovesExpiredEntries(t *testing.T) {
	clock := newTestClock()
	limiter := newTestLimiter(t, "test_sweep", 50*time.Millisecond, 3,
		ratelimit.WithClock(clock.Now),
		ratelimit.WithSweepInterval(10*time.Millisecond),
	)

	limiter.Allow("user1")
	limiter.Allow("user2")
	if got := limiter.Keys(); got != 2 {
		t.Fatalf("tracked keys = %d, want 2", got)
	}

	clock.Advance(time.Second)

	deadline := time.Now().Add(2 * time.Second)
	for limiter.Keys() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := limiter.Keys(); got != 0 {
		t.Fatalf("tracked keys after sweep = %d, want 0", got)
	}
}

func TestAllow_LazyReplacementWithoutSweep(t *testing.T) {
	clock := newTestClock()
	// Sweep effectively disabled; expiry must still be handled on access.
	limiter := newTestLimiter(t, "test_lazy", time.Second, 1,
		ratelimit.WithClock(clock.Now),
		ratelimit.WithSweepInterval(time.Hour),
	)

	limiter.Allow("user1")
	if res := limiter.Allow("user1"); res.Allowed {
		t.Fatal("second request unexpectedly admitted")
	}

	clock.Advance(2 * time.Second)

	res := limiter.Allow("user1")
	if !res.Allowed {
		t.Fatal("request after expiry unexpectedly rejected")
	}
	if res.Count != 1 {
		t.Fatalf("count after lazy replacement = %d, want 1", res.Count)
	}
	if got := limiter.Keys(); got != 1 {
		t.Fatalf("tracked keys = %d, want 1 (replaced, not duplicated)", got)
	}
}

func TestClose_Idempotent(t *testing.T) {
	limiter, err := ratelimit.New("test_close", time.Minute, 1)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := limiter.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := limiter.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	// The limiter still answers checks after Close; only the sweep stops.
	if res := limiter.Allow("user1"); !res.Allowed {
		t.Fatal("request after Close unexpectedly rejected")
	}
}
