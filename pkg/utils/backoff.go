package utils

import (
	"math/rand"
	"time"
)

const maxBackoff = 30 * time.Second

// Backoff returns the exponential backoff delay for the given retry attempt,
// with random jitter of up to ±25%. Attempt 0 (the first try) returns zero.
func Backoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}
	backoff := baseDelay * time.Duration(1<<uint(attempt))
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	jitter := time.Duration(rand.Int63n(int64(backoff)/2)) - backoff/4
	return backoff + jitter
}
