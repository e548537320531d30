package collector

import (
	"context"
	"errors"
	"time"

	"github.com/jpillora/backoff"

	"github.com/Rendurdreams/CoinFetch/logger"
)

// retryableError is implemented by failure types that distinguish transient
// from permanent causes (FetchError, StoreError).
type retryableError interface {
	IsRetryable() bool
}

func isRetryable(err error) bool {
	var r retryableError
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	return false
}

// withRetry runs fn up to the configured number of attempts, sleeping with
// exponential backoff between attempts. Only retryable failures are retried;
// the last error is returned when the budget is exhausted.
func (c *Collector) withRetry(ctx context.Context, log *logger.Entry, operation string, fn func(context.Context) error) error {
	cfg := c.config.Collector.Retry

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	b := &backoff.Backoff{
		Min:    cfg.BaseDelay,
		Max:    cfg.MaxDelay,
		Factor: float64(cfg.BackoffMultiplier),
		Jitter: true,
	}
	if b.Min <= 0 {
		b.Min = time.Second
	}
	if b.Max < b.Min {
		b.Max = b.Min
	}
	if b.Factor < 1 {
		b.Factor = 2
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			if attempt > 1 {
				log.WithFields(logger.Fields{"operation": operation, "attempt": attempt}).Info("operation recovered after retry")
			}
			return nil
		}
		if !isRetryable(err) || attempt == attempts {
			return err
		}

		wait := b.Duration()
		log.WithError(err).WithFields(logger.Fields{
			"operation": operation,
			"attempt":   attempt,
			"backoff":   wait.String(),
		}).Warn("transient failure, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return err
}
