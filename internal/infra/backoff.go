package infra

import (
	"time"
)

// Retry pacing shared by the feed client's reconnect loop and the rate
// oracle's fetch attempts. The cap keeps a subscriber from idling for
// minutes against a vault that is merely restarting.
const (
	backoffBase = 1 * time.Second
	backoffCap  = 30 * time.Second
)

// CalculateBackoff returns the delay before retry attempt retryCount,
// doubling from backoffBase and saturating at backoffCap. Negative
// counts get the base delay.
func CalculateBackoff(retryCount int) time.Duration {
	if retryCount < 0 {
		return backoffBase
	}

	// 1s << 5 = 32s already exceeds the cap.
	if retryCount > 5 {
		return backoffCap
	}

	delay := backoffBase << uint(retryCount)
	if delay > backoffCap {
		return backoffCap
	}
	return delay
}
