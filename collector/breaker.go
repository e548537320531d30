package collector

import (
	"sync"
	"time"

	appconfig "github.com/Rendurdreams/CoinFetch/config"
)

// breaker suppresses a sub-pipeline whose ticks fail repeatedly. After the
// failure threshold is reached, ticks are skipped until the recovery timeout
// elapses; then a single probe tick is allowed. A probe failure re-opens the
// breaker for another recovery window, a success resets it.
type breaker struct {
	mu        sync.Mutex
	threshold int
	recovery  time.Duration
	failures  int
	openUntil time.Time
}

// newBreaker builds a breaker from config. A zero failure threshold disables
// it entirely.
func newBreaker(cfg appconfig.CircuitBreakerConfig) *breaker {
	return &breaker{
		threshold: cfg.FailureThreshold,
		recovery:  cfg.RecoveryTimeout,
	}
}

// Allow reports whether the sub-pipeline may run now.
func (b *breaker) Allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.threshold <= 0 {
		return true
	}
	if b.failures < b.threshold {
		return true
	}
	return !now.Before(b.openUntil)
}

// Record registers the outcome of one sub-pipeline run.
func (b *breaker) Record(now time.Time, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.threshold <= 0 {
		return
	}

	if ok {
		b.failures = 0
		b.openUntil = time.Time{}
		return
	}

	b.failures++
	if b.failures >= b.threshold {
		b.openUntil = now.Add(b.recovery)
	}
}
