// Package ratelimit bounds the rate of outbound API requests to at most
// capacity admissions per rolling window. Eviction is lazy: old timestamps
// are dropped on every admit or probe, so no background goroutine is needed
// and the limiter stays quiet when idle.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/sonarlens/sonarlens/internal/pplx/apierr"
)

// Window is the rolling interval over which admissions are counted.
const Window = time.Minute

// Limiter is a sliding-window admission controller. Timestamps of admitted
// requests are kept in chronological order; an admission blocks until the
// oldest retained timestamp leaves the window. Safe for concurrent use.
//
// There is no FIFO guarantee between callers racing for a freed slot.
type Limiter struct {
	mu      sync.Mutex
	stamps  []time.Time
	limit   int
	enabled bool

	clock func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a limiter admitting at most limit requests per Window.
func New(limit int, enabled bool) (*Limiter, error) {
	if limit <= 0 {
		return nil, &apierr.ConfigError{Message: "requests per minute must be positive"}
	}
	return &Limiter{
		limit:   limit,
		enabled: enabled,
		clock:   time.Now,
		sleep:   sleepCtx,
	}, nil
}

// Wait blocks until an admission slot is available, then records the
// admission. It returns early only when ctx is canceled; a disabled
// limiter admits immediately.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	if !l.enabled {
		l.mu.Unlock()
		return ctx.Err()
	}

	l.evict(l.clock())
	for len(l.stamps) >= l.limit {
		wait := l.stamps[0].Add(Window).Sub(l.clock())
		if wait <= 0 {
			l.evict(l.clock())
			continue
		}

		// Drop the lock for the sleep so other callers can probe,
		// reset, or race for the slot.
		l.mu.Unlock()
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
		l.mu.Lock()
		l.evict(l.clock())
	}

	l.stamps = append(l.stamps, l.clock())
	l.mu.Unlock()
	return nil
}

// TryAcquire reports whether a request would be admitted right now. It
// evicts expired timestamps but never records an admission; callers must
// still Wait to consume a slot.
func (l *Limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled {
		return true
	}
	l.evict(l.clock())
	return len(l.stamps) < l.limit
}

// Count returns the number of admissions recorded within the current window.
func (l *Limiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.evict(l.clock())
	return len(l.stamps)
}

// Reset clears all recorded admissions.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stamps = l.stamps[:0]
}

// SetLimit updates the admission capacity.
func (l *Limiter) SetLimit(limit int) error {
	if limit <= 0 {
		return &apierr.ConfigError{Message: "requests per minute must be positive"}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limit = limit
	return nil
}

// SetEnabled toggles the limiter. While disabled, Wait and TryAcquire
// succeed immediately regardless of recorded history.
func (l *Limiter) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// Limit returns the configured admission capacity.
func (l *Limiter) Limit() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limit
}

// Enabled reports whether the limiter is active.
func (l *Limiter) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// evict drops timestamps older than the window. Callers must hold mu.
func (l *Limiter) evict(now time.Time) {
	cutoff := now.Add(-Window)
	idx := 0
	for idx < len(l.stamps) && !l.stamps[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[idx:]...)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
