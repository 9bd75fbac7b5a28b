package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Calculate returns the wait before the given consecutive failure using
// exponential backoff with jitter. The first attempt (and invalid input)
// waits nothing. Used by the broker consumer to avoid hammering Kafka when
// fetches fail repeatedly.
func Calculate(attempt int, baseDelay time.Duration) time.Duration {
	if attempt <= 1 {
		return 0
	}
	if baseDelay <= 0 {
		return 0
	}

	// Base delay: 2^(attempt-1) * baseDelay
	backoff := math.Pow(2, float64(attempt-1))
	baseDelayCalc := time.Duration(backoff) * baseDelay

	// Jitter: +/- 50% of the base delay
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	jitterRange := float64(baseDelayCalc) * 0.5
	jitter := time.Duration(rng.Float64()*2*jitterRange - jitterRange) // [-50%, +50%]

	finalDelay := baseDelayCalc + jitter
	if finalDelay < 0 {
		finalDelay = 0
	}
	return finalDelay
}
