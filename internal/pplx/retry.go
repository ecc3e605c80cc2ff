package pplx

import (
	"context"
	"fmt"
	"time"

	"github.com/sonarlens/sonarlens/internal/pplx/apierr"
	"github.com/sonarlens/sonarlens/internal/pplx/transport"
)

// operation performs one request/response exchange against the transport.
type operation func(ctx context.Context) (*transport.Result, error)

// run executes one logical API call: up to MaxRetries+1 attempts, each
// admitted through the rate limiter, classified, and either returned,
// propagated, or retried after exponential backoff.
//
// Validation, auth, and server-side rate-limit failures are terminal on
// first occurrence: the request itself is wrong or throttled, and
// re-sending the same payload cannot help. Server, network, and timeout
// failures are retried; each retry consumes a fresh admission slot.
func (c *Client) run(ctx context.Context, op operation) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		res, err := op(ctx)
		payload, classified := classify(res, err)
		if classified == nil {
			return payload, nil
		}
		if !apierr.Retryable(classified) {
			return nil, classified
		}

		lastErr = classified
		if attempt < c.cfg.MaxRetries {
			if err := c.sleep(ctx, backoffDelay(c.cfg.BackoffBase, attempt)); err != nil {
				return nil, err
			}
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, &apierr.NetworkError{
		Message: fmt.Sprintf("request failed after %d retries", c.cfg.MaxRetries),
	}
}

// backoffDelay returns base * 2^attempt, without jitter.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	return base << uint(attempt)
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
