package ai

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// Backoff is the retry schedule of the HTTP runtimes: exponential from Base,
// jittered by ±20%, capped at Max. A Retry-After from the runtime replaces
// the computed delay.
type Backoff struct {
	Attempts int
	Base     time.Duration
	Max      time.Duration
}

// do calls fn until it succeeds, fails with a non-temporary error, or the
// attempts run out. The last error is returned.
func (b Backoff) do(ctx context.Context, fn func() error) error {
	attempts := b.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := b.Base
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err = fn(); err == nil || !Temporary(err) || attempt == attempts {
			return err
		}
		wait := withJitter(delay)
		if b.Max > 0 && wait > b.Max {
			wait = b.Max
		}
		var rl *RateLimitError
		if errors.As(err, &rl) && rl.RetryAfter > 0 {
			wait = rl.RetryAfter
		}
		sleepCtx(ctx, wait)
		delay *= 2
	}
	return err
}

// retryAfter reads Retry-After as seconds or an HTTP date. Zero when absent
// or unparseable.
func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if s, err := strconv.Atoi(v); err == nil && s > 0 {
		return time.Duration(s) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d.Truncate(time.Second)
		}
	}
	return 0
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	out := time.Duration(float64(d) * (0.8 + rand.Float64()*0.4))
	if out <= 0 {
		return d
	}
	return out
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
