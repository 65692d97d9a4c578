package timeutil

import (
	"math"
	"math/rand"
	"time"
)

// ExponentialBackoffDelay returns the wait before retry number attempt (1-based):
// initial * multiplier^(attempt-1), capped at the max duration, plus a random
// jitter in [0, jitter) drawn from rng. The cap applies before jitter.
func ExponentialBackoffDelay(
	attempt int,
	jitter time.Duration,
	rng *rand.Rand,
	param BackoffParam,
) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	base := float64(param.InitialDuration()) * math.Pow(param.Multiplier(), float64(attempt-1))
	delay := param.MaxDuration()
	if base < float64(param.MaxDuration()) {
		delay = time.Duration(base)
	}

	if jitter > 0 && rng != nil {
		delay += time.Duration(rng.Int63n(int64(jitter)))
	}
	return delay
}

// MaxDuration returns the largest of durations, or zero for an empty slice.
func MaxDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	longest := durations[0]
	for _, d := range durations[1:] {
		if d > longest {
			longest = d
		}
	}
	return longest
}
