package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	appconfig "github.com/Rendurdreams/CoinFetch/config"
	"github.com/Rendurdreams/CoinFetch/logger"
	"github.com/Rendurdreams/CoinFetch/models"
	"github.com/Rendurdreams/CoinFetch/processor"
)

// Client is the market-data source consumed by the collector.
type Client interface {
	FetchGlobalMetrics(ctx context.Context, convert string) (*models.GlobalMetricsPayload, []byte, error)
	FetchTopListings(ctx context.Context, limit int, convert string) ([]models.CoinPayload, []byte, error)
	FetchQuotes(ctx context.Context, ids []int64, convert string) ([]models.CoinPayload, []byte, error)
}

// Store is the row-insert sink the collector writes to.
type Store interface {
	InsertGlobalSnapshot(ctx context.Context, snap *models.GlobalSnapshot) error
	InsertCoinSnapshots(ctx context.Context, snaps []models.CoinSnapshot) error
	FetchTrackedCoins(ctx context.Context) ([]models.TrackedCoin, error)
}

// Archiver persists raw API responses. It is optional and best-effort.
type Archiver interface {
	Archive(ctx context.Context, kind string, ts time.Time, payload []byte) error
}

// Collector drives the fixed-interval collection loop. Each tick runs the
// global and coin sub-pipelines independently: a failure in one never blocks
// the other, and no tick's failure propagates past the loop.
type Collector struct {
	config  *appconfig.Config
	client  Client
	store   Store
	archive Archiver
	log     *logger.Log

	mu      sync.RWMutex
	running bool

	// One breaker per sub-pipeline; each is touched only by its own
	// sub-pipeline, never shared across the two.
	globalBreaker *breaker
	coinBreaker   *breaker
}

// New creates a collector. archive may be nil when raw archiving is
// disabled.
func New(cfg *appconfig.Config, client Client, store Store, archive Archiver) *Collector {
	return &Collector{
		config:        cfg,
		client:        client,
		store:         store,
		archive:       archive,
		log:           logger.GetLogger(),
		globalBreaker: newBreaker(cfg.Collector.CircuitBreaker),
		coinBreaker:   newBreaker(cfg.Collector.CircuitBreaker),
	}
}

// Run executes the collection loop until the context is cancelled. The
// first tick starts immediately; afterwards the loop sleeps for whatever
// remains of the interval so slow ticks do not compound delay.
func (c *Collector) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("collector already running")
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	interval := c.config.Collector.Interval
	log := c.log.WithComponent("collector").WithFields(logger.Fields{
		"mode":     c.config.Collector.Mode,
		"interval": interval.String(),
	})
	log.Info("starting collection loop")

	for {
		if ctx.Err() != nil {
			log.Info("collection loop stopped due to context cancellation")
			return nil
		}

		start := time.Now()
		c.runTick(ctx, start)
		elapsed := time.Since(start)

		if elapsed >= interval {
			log.WithFields(logger.Fields{
				"elapsed":  elapsed.String(),
				"interval": interval.String(),
			}).Warn("tick took longer than interval, starting next tick immediately")
			continue
		}

		select {
		case <-ctx.Done():
			log.Info("collection loop stopped due to context cancellation")
			return nil
		case <-time.After(interval - elapsed):
		}
	}
}

// runTick runs one collection cycle. The two sub-pipelines execute as
// separate goroutines sharing no mutable state; each owns its own fetch and
// store calls.
func (c *Collector) runTick(ctx context.Context, collectedAt time.Time) {
	tickID := uuid.NewString()

	log := c.log.WithComponent("collector").WithFields(logger.Fields{"tick_id": tickID})
	log.Info("starting collection tick")

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.runGlobalPipeline(ctx, tickID, collectedAt)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.runCoinPipeline(ctx, tickID, collectedAt)
	}()

	wg.Wait()

	logger.IncrementTickComplete()
	logger.LogPerformanceEntry(log, "collector", "tick", time.Since(collectedAt), nil)
}

// runGlobalPipeline fetches, normalizes and stores the global metrics
// snapshot. On failure the tick is abandoned for this sub-pipeline only; the
// next tick retries naturally.
func (c *Collector) runGlobalPipeline(ctx context.Context, tickID string, collectedAt time.Time) {
	log := c.log.WithComponent("global_pipeline").WithFields(logger.Fields{"tick_id": tickID})

	if !c.globalBreaker.Allow(time.Now()) {
		log.Warn("circuit breaker open, skipping global metrics this tick")
		return
	}

	var payload *models.GlobalMetricsPayload
	var raw []byte
	err := c.withRetry(ctx, log, "fetch_global_metrics", func(ctx context.Context) error {
		var ferr error
		payload, raw, ferr = c.client.FetchGlobalMetrics(ctx, c.config.Collector.Convert)
		return ferr
	})
	if err != nil {
		c.globalBreaker.Record(time.Now(), false)
		log.WithError(err).Error("failed to fetch global metrics, abandoning sub-pipeline for this tick")
		return
	}
	logger.IncrementGlobalFetch()

	c.archiveRaw(ctx, log, "global-metrics", collectedAt, raw)

	snap := processor.NormalizeGlobal(payload, collectedAt)

	err = c.withRetry(ctx, log, "insert_global_snapshot", func(ctx context.Context) error {
		return c.store.InsertGlobalSnapshot(ctx, snap)
	})
	if err != nil {
		c.globalBreaker.Record(time.Now(), false)
		log.WithError(err).Error("failed to store global snapshot, data discarded for this tick")
		return
	}

	c.globalBreaker.Record(time.Now(), true)
	log.WithFields(logger.Fields{"timestamp": snap.Timestamp}).Info("global snapshot stored")
}

// runCoinPipeline fetches, normalizes and stores the per-coin snapshots for
// one tick. In top mode the ranked listing is used; in tracked mode the
// watch list from the storage backend decides which coins are quoted.
func (c *Collector) runCoinPipeline(ctx context.Context, tickID string, collectedAt time.Time) {
	log := c.log.WithComponent("coin_pipeline").WithFields(logger.Fields{"tick_id": tickID})

	if !c.coinBreaker.Allow(time.Now()) {
		log.Warn("circuit breaker open, skipping coin snapshots this tick")
		return
	}

	payloads, raw, err := c.fetchCoins(ctx, log)
	if err != nil {
		c.coinBreaker.Record(time.Now(), false)
		log.WithError(err).Error("failed to fetch coin data, abandoning sub-pipeline for this tick")
		return
	}
	if len(payloads) == 0 {
		log.Warn("no coins to collect this tick")
		return
	}
	logger.IncrementCoinFetch()

	c.archiveRaw(ctx, log, "coins", collectedAt, raw)

	snaps, dropped := processor.NormalizeCoinBatch(payloads, collectedAt)
	if dropped > 0 {
		log.WithFields(logger.Fields{"dropped": dropped, "kept": len(snaps)}).Warn("some records failed normalization and were dropped")
	}
	if len(snaps) == 0 {
		log.Error("no records survived normalization, nothing to store")
		return
	}

	err = c.withRetry(ctx, log, "insert_coin_snapshots", func(ctx context.Context) error {
		return c.store.InsertCoinSnapshots(ctx, snaps)
	})
	if err != nil {
		c.coinBreaker.Record(time.Now(), false)
		log.WithError(err).Error("failed to store coin snapshots, data discarded for this tick")
		return
	}

	c.coinBreaker.Record(time.Now(), true)
	log.WithFields(logger.Fields{"rows": len(snaps)}).Info("coin snapshots stored")
}

// fetchCoins selects the fetch strategy for the configured mode.
func (c *Collector) fetchCoins(ctx context.Context, log *logger.Entry) ([]models.CoinPayload, []byte, error) {
	convert := c.config.Collector.Convert

	if c.config.Collector.Mode == appconfig.ModeTracked {
		var tracked []models.TrackedCoin
		err := c.withRetry(ctx, log, "fetch_tracked_coins", func(ctx context.Context) error {
			var serr error
			tracked, serr = c.store.FetchTrackedCoins(ctx)
			return serr
		})
		if err != nil {
			return nil, nil, err
		}
		if len(tracked) == 0 {
			log.Warn("tracked_coins table is empty, waiting for next tick")
			return nil, nil, nil
		}

		ids := make([]int64, len(tracked))
		for i, tc := range tracked {
			ids[i] = tc.CMCID
		}
		log.WithFields(logger.Fields{"tracked": len(ids)}).Debug("fetching quotes for tracked coins")

		var payloads []models.CoinPayload
		var raw []byte
		err = c.withRetry(ctx, log, "fetch_quotes", func(ctx context.Context) error {
			var ferr error
			payloads, raw, ferr = c.client.FetchQuotes(ctx, ids, convert)
			return ferr
		})
		return payloads, raw, err
	}

	var payloads []models.CoinPayload
	var raw []byte
	err := c.withRetry(ctx, log, "fetch_listings", func(ctx context.Context) error {
		var ferr error
		payloads, raw, ferr = c.client.FetchTopListings(ctx, c.config.Collector.Limit, convert)
		return ferr
	})
	return payloads, raw, err
}

// archiveRaw stores the raw response when archiving is enabled. Failures are
// logged and never fail the tick.
func (c *Collector) archiveRaw(ctx context.Context, log *logger.Entry, kind string, ts time.Time, raw []byte) {
	if c.archive == nil || len(raw) == 0 {
		return
	}
	if err := c.archive.Archive(ctx, kind, ts, raw); err != nil {
		log.WithError(err).Warn("failed to archive raw payload")
	}
}
