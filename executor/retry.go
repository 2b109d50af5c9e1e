package executor

import (
	"math"
	"time"
)

// BackoffStrategy determines how the delay between attempts grows.
type BackoffStrategy string

const (
	BackoffConstant    BackoffStrategy = "constant"
	BackoffLinear      BackoffStrategy = "linear"
	BackoffExponential BackoffStrategy = "exponential"
)

// RetryPolicy is a node's retry/backoff configuration (§4.6):
// {maxAttempts, initialDelayMs, backoffMultiplier, maxDelayMs}.
// Attempts count toward MaxAttempts inclusive of the first try.
type RetryPolicy struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	BackoffMultiplier float64
	MaxDelay          time.Duration
	Strategy          BackoffStrategy
}

// DefaultRetryPolicy matches the §2.2 ExecutorDefaults: three attempts,
// exponential backoff starting at 1s capped at 30s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		InitialDelay:      1 * time.Second,
		BackoffMultiplier: 2,
		MaxDelay:          30 * time.Second,
		Strategy:          BackoffExponential,
	}
}

// NoRetryPolicy never retries: every node gets exactly one attempt.
func NoRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

// ShouldRetry reports whether a failed attempt should be retried.
// Every dispatcher failure is retryable, including TIMEOUT, per §4.6
// ("if declared, firing after the deadline yields a TIMEOUT failure
// and is retried per policy") — MaxAttempts is what bounds it.
func (rp RetryPolicy) ShouldRetry(result NodeResult) bool {
	return result.Status == NodeFailed || result.Status == NodeTimeout
}

// Delay computes the wait before the next attempt:
// min(initialDelay * multiplier^(attempt-1), maxDelay).
func (rp RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	multiplier := rp.BackoffMultiplier
	if multiplier <= 0 {
		multiplier = 1
	}

	var delay time.Duration
	switch rp.Strategy {
	case BackoffConstant:
		delay = rp.InitialDelay
	case BackoffLinear:
		delay = rp.InitialDelay * time.Duration(attempt)
	case BackoffExponential:
		delay = time.Duration(float64(rp.InitialDelay) * math.Pow(multiplier, float64(attempt-1)))
	default:
		delay = rp.InitialDelay
	}

	if rp.MaxDelay > 0 && delay > rp.MaxDelay {
		delay = rp.MaxDelay
	}
	return delay
}
