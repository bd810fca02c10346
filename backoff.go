package respkit

import (
	"math"
	"math/rand"
	"time"
)

// nextBackoffDelay returns the retry delay for attempt N (1-based).
func nextBackoffDelay(cfg Backoff, attempt int, rng *rand.Rand) time.Duration {
	initial := ms(cfg.InitialDelayMS)
	if attempt <= 1 {
		return initial
	}
	if initial <= 0 {
		return 0
	}
	multiplier := cfg.Multiplier
	if multiplier < 1.0 {
		multiplier = 1.0
	}
	delay := float64(initial) * math.Pow(multiplier, float64(attempt-1))
	if maxDelay := ms(cfg.MaxDelayMS); maxDelay > 0 && delay > float64(maxDelay) {
		delay = float64(maxDelay)
	}
	if cfg.Jitter {
		f := 0.5
		if rng != nil {
			f = 0.5 + rng.Float64()
		}
		delay = delay * f
	}
	return time.Duration(delay)
}
