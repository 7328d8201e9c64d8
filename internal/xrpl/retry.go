package xrpl

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// =============================================================================
// Retry Configuration
// =============================================================================

// RetryConfig configures retries of transport failures. RPC errors returned by
// the node are never retried, and neither is submit: a resubmitted blob that
// already applied comes back as tefPAST_SEQ.
type RetryConfig struct {
	// MaxRetries is the number of attempts after the first; negative disables.
	MaxRetries int
	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration
	// MaxBackoff caps the wait between attempts.
	MaxBackoff time.Duration
	// BackoffMultiplier grows the wait after every attempt.
	BackoffMultiplier float64
	// Jitter randomizes each wait by up to this fraction (0.0 to 1.0).
	Jitter float64
}

// DefaultRetryConfig returns the client's default retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    200 * time.Millisecond,
		MaxBackoff:        2 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.1,
	}
}

func (r RetryConfig) backoff(attempt int) time.Duration {
	d := float64(r.InitialBackoff) * math.Pow(r.BackoffMultiplier, float64(attempt))
	if r.Jitter > 0 {
		d += d * r.Jitter * (rand.Float64()*2 - 1)
	}
	if max := float64(r.MaxBackoff); max > 0 && d > max {
		d = max
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// retryable reports whether err is a transport failure worth another attempt.
func retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, errTransportClosed) || errors.Is(err, ErrUnsupportedScheme) {
		return false
	}
	var rpcErr *RPCError
	return !errors.As(err, &rpcErr)
}

// withRetry runs fn until it succeeds, fails permanently or the budget runs out.
func withRetry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		out, err := fn()
		if err == nil {
			return out, nil
		}
		if attempt >= cfg.MaxRetries || !retryable(err) {
			return zero, err
		}

		timer := time.NewTimer(cfg.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, err
		case <-timer.C:
		}
	}
}
