package executor

import (
	"time"

	"github.com/petriflow/core/config"
)

// PolicyFromConfig builds the executor's default RetryPolicy from
// loaded process configuration (§2.2 ExecutorDefaults).
func PolicyFromConfig(ed config.ExecutorDefaults) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       ed.RetryMaxAttempts,
		InitialDelay:      time.Duration(ed.RetryInitialMS) * time.Millisecond,
		MaxDelay:          time.Duration(ed.RetryMaxMS) * time.Millisecond,
		BackoffMultiplier: 2,
		Strategy:          BackoffStrategy(ed.RetryBackoff),
	}
}
