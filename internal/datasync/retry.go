package datasync

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/yungbote/finboard-backend/internal/logger"
	"github.com/yungbote/finboard-backend/internal/registry"
)

// RetryPolicy bounds a fetch at Retries+1 attempts with exponential
// backoff between them. JitterFrac spreads the waits so the seven
// entity loads do not retry in lockstep.
type RetryPolicy struct {
	Retries    int
	BaseDelay  time.Duration
	Factor     float64
	JitterFrac float64
}

// RetryExecutor runs an operation under a RetryPolicy. Every error is
// treated as retryable; this layer is a best-effort client cache, not
// a strict contract, so it does not discriminate error kinds.
type RetryExecutor struct {
	log   *logger.Logger
	sleep func(ctx context.Context, d time.Duration) error
	randF func() float64
}

func NewRetryExecutor(baseLog *logger.Logger) *RetryExecutor {
	return &RetryExecutor{
		log:   baseLog.With("component", "RetryExecutor"),
		sleep: sleepCtx,
		randF: rand.Float64,
	}
}

type fetchOp func(ctx context.Context) ([]registry.Record, error)

// Execute attempts op up to policy.Retries+1 times. On exhaustion it
// returns the last error. Context cancellation ends the wait early.
func (e *RetryExecutor) Execute(ctx context.Context, policy RetryPolicy, op fetchOp) ([]registry.Record, error) {
	var lastErr error
	for attempt := 0; attempt <= policy.Retries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		data, err := op(ctx)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if attempt == policy.Retries {
			break
		}

		wait := e.backoff(policy, attempt)
		e.log.Warn("Fetch failed, retrying",
			"attempt", attempt+1,
			"max_retries", policy.Retries,
			"sleep", wait.String(),
			"error", err.Error(),
		)
		if serr := e.sleep(ctx, wait); serr != nil {
			return nil, serr
		}
	}
	return nil, lastErr
}

// backoff computes BaseDelay * Factor^attempt, jittered uniformly in
// [(1-J)*d, (1+J)*d].
func (e *RetryExecutor) backoff(policy RetryPolicy, attempt int) time.Duration {
	base := policy.BaseDelay
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	factor := policy.Factor
	if factor <= 0 {
		factor = 2
	}
	j := policy.JitterFrac
	if j < 0 {
		j = 0
	}

	d := float64(base) * math.Pow(factor, float64(attempt))
	low := d * (1 - j)
	high := d * (1 + j)
	if low < 0 {
		low = 0
	}
	return time.Duration(low + e.randF()*(high-low))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
