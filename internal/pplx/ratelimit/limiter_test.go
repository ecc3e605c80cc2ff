package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sonarlens/sonarlens/internal/pplx/apierr"
)

// fakeClock advances only when the limiter sleeps, so admission timing is
// fully deterministic.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(t *testing.T, limit int) (*Limiter, *fakeClock, *[]time.Duration) {
	t.Helper()

	limiter, err := New(limit, true)
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	var slept []time.Duration
	limiter.clock = clock.Now
	limiter.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		clock.Advance(d)
		return nil
	}
	return limiter, clock, &slept
}

func TestNewRejectsNonPositiveLimit(t *testing.T) {
	_, err := New(0, true)
	var cfgErr *apierr.ConfigError
	require.ErrorAs(t, err, &cfgErr)

	_, err = New(-3, true)
	require.ErrorAs(t, err, &cfgErr)
}

func TestWaitAdmitsUpToLimitWithoutSleeping(t *testing.T) {
	limiter, _, slept := newTestLimiter(t, 5)

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Wait(context.Background()))
	}
	require.Empty(t, *slept)
	require.Equal(t, 5, limiter.Count())
}

func TestWaitBlocksUntilOldestExpires(t *testing.T) {
	limiter, clock, slept := newTestLimiter(t, 5)

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Wait(context.Background()))
		clock.Advance(time.Second)
	}

	// Window is full; the sixth admission must wait until the oldest
	// timestamp (55s ago by now) leaves the 60s window.
	require.NoError(t, limiter.Wait(context.Background()))
	require.Len(t, *slept, 1)
	require.Equal(t, 55*time.Second, (*slept)[0])
}

func TestTryAcquireNeverMutates(t *testing.T) {
	limiter, _, _ := newTestLimiter(t, 3)

	require.NoError(t, limiter.Wait(context.Background()))
	require.NoError(t, limiter.Wait(context.Background()))
	before := limiter.Count()

	for i := 0; i < 10; i++ {
		require.True(t, limiter.TryAcquire())
	}
	require.Equal(t, before, limiter.Count())

	require.NoError(t, limiter.Wait(context.Background()))
	require.False(t, limiter.TryAcquire())
	require.Equal(t, 3, limiter.Count())
}

func TestCountEvictsExpiredEntries(t *testing.T) {
	limiter, clock, _ := newTestLimiter(t, 5)

	require.NoError(t, limiter.Wait(context.Background()))
	require.NoError(t, limiter.Wait(context.Background()))
	require.Equal(t, 2, limiter.Count())

	clock.Advance(Window + time.Second)
	require.Equal(t, 0, limiter.Count())
}

func TestResetClearsWindow(t *testing.T) {
	limiter, _, _ := newTestLimiter(t, 2)

	require.NoError(t, limiter.Wait(context.Background()))
	require.NoError(t, limiter.Wait(context.Background()))
	require.False(t, limiter.TryAcquire())

	limiter.Reset()
	require.True(t, limiter.TryAcquire())
	require.Equal(t, 0, limiter.Count())
}

func TestDisabledLimiterAdmitsInstantly(t *testing.T) {
	limiter, _, slept := newTestLimiter(t, 1)

	require.NoError(t, limiter.Wait(context.Background()))
	limiter.SetEnabled(false)

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Wait(context.Background()))
		require.True(t, limiter.TryAcquire())
	}
	require.Empty(t, *slept)
}

func TestSetLimitValidatesAndApplies(t *testing.T) {
	limiter, _, _ := newTestLimiter(t, 1)

	var cfgErr *apierr.ConfigError
	require.ErrorAs(t, limiter.SetLimit(0), &cfgErr)

	require.NoError(t, limiter.Wait(context.Background()))
	require.False(t, limiter.TryAcquire())

	require.NoError(t, limiter.SetLimit(2))
	require.True(t, limiter.TryAcquire())
	require.Equal(t, 2, limiter.Limit())
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	limiter, err := New(1, true)
	require.NoError(t, err)

	require.NoError(t, limiter.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, limiter.Wait(ctx), context.Canceled)
}

func TestLockReleasedDuringAdmissionSleep(t *testing.T) {
	limiter, err := New(1, true)
	require.NoError(t, err)

	sleeping := make(chan struct{})
	release := make(chan struct{})
	limiter.sleep = func(ctx context.Context, d time.Duration) error {
		close(sleeping)
		<-release
		return nil
	}

	// Fill the window so the next Wait must sleep.
	require.NoError(t, limiter.Wait(context.Background()))

	done := make(chan error, 1)
	go func() { done <- limiter.Wait(context.Background()) }()

	// With the waiter parked in the sleep hook, other callers must still be
	// able to probe and reset.
	<-sleeping
	require.False(t, limiter.TryAcquire())
	limiter.Reset()
	require.Equal(t, 0, limiter.Count())

	// The freed slot lets the parked waiter admit on wake.
	close(release)
	require.NoError(t, <-done)
	require.Equal(t, 1, limiter.Count())
}

func TestConcurrentWaiters(t *testing.T) {
	limiter, err := New(50, true)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = limiter.Wait(context.Background())
		}()
	}
	wg.Wait()
	require.Equal(t, 50, limiter.Count())
}
