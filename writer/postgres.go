package writer

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	appconfig "github.com/Rendurdreams/CoinFetch/config"
	"github.com/Rendurdreams/CoinFetch/logger"
	"github.com/Rendurdreams/CoinFetch/models"
)

// Table names in the storage backend. All writes are plain appends; reads
// are limited to the tracked-coins watch list.
const (
	globalTable  = "global_metrics"
	coinsTable   = "coins"
	trackedTable = "tracked_coins"
)

// Store appends snapshot rows to Postgres. It owns a connection pool for the
// lifetime of the process.
type Store struct {
	pool *pgxpool.Pool
	log  *logger.Log
}

// NewStore connects to the storage backend and verifies the connection. The
// endpoint comes from configuration, the credentials from the environment.
func NewStore(ctx context.Context, cfg *appconfig.Config, secrets *appconfig.Secrets) (*Store, error) {
	connStr, err := BuildConnString(secrets.DatabaseURL, secrets.DatabasePassword, cfg.Storage.Postgres.SSLMode)
	if err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	if cfg.Storage.Postgres.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.Storage.Postgres.MinConns)
	}
	if cfg.Storage.Postgres.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.Storage.Postgres.MaxConns)
	}
	if cfg.Storage.Postgres.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.Storage.Postgres.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log := logger.GetLogger()
	log.WithComponent("postgres_writer").WithFields(logger.Fields{
		"min_conns": poolCfg.MinConns,
		"max_conns": poolCfg.MaxConns,
	}).Info("connected to storage backend")

	return &Store{pool: pool, log: log}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// InsertGlobalSnapshot appends one global metrics row.
func (s *Store) InsertGlobalSnapshot(ctx context.Context, snap *models.GlobalSnapshot) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO global_metrics (
			timestamp,
			btc_dominance, eth_dominance,
			active_cryptocurrencies, active_exchanges, active_market_pairs,
			total_market_cap, total_volume_24h, total_volume_24h_reported,
			altcoin_market_cap, altcoin_volume_24h,
			defi_market_cap, defi_volume_24h, defi_24h_percentage_change,
			stablecoin_market_cap, stablecoin_volume_24h, stablecoin_24h_percentage_change,
			derivatives_volume_24h, derivatives_24h_percentage_change,
			total_market_cap_yesterday_percentage_change, total_volume_24h_yesterday_percentage_change,
			last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`,
		snap.Timestamp,
		snap.BTCDominance, snap.ETHDominance,
		snap.ActiveCryptocurrencies, snap.ActiveExchanges, snap.ActiveMarketPairs,
		snap.TotalMarketCap, snap.TotalVolume24h, snap.TotalVolume24hReported,
		snap.AltcoinMarketCap, snap.AltcoinVolume24h,
		snap.DefiMarketCap, snap.DefiVolume24h, snap.Defi24hPercentageChange,
		snap.StablecoinMarketCap, snap.StablecoinVolume24h, snap.Stablecoin24hChange,
		snap.DerivativesVolume24h, snap.Derivatives24hChange,
		snap.TotalMarketCapYesterdayChange, snap.TotalVolume24hYesterdayChange,
		snap.LastUpdated,
	)
	if err != nil {
		return storeErr(globalTable, err)
	}

	logger.IncrementGlobalRows(1)
	return nil
}

// InsertCoinSnapshots appends one tick's coin rows as a single batch.
func (s *Store) InsertCoinSnapshots(ctx context.Context, snaps []models.CoinSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	start := time.Now()

	batch := &pgx.Batch{}
	for i := range snaps {
		snap := &snaps[i]
		batch.Queue(`
			INSERT INTO coins (
				timestamp, cmc_id, name, symbol, slug, cmc_rank,
				circulating_supply, total_supply, max_supply, infinite_supply,
				tags, platform,
				price_usd, volume_24h,
				percent_change_1h, percent_change_24h, percent_change_7d, percent_change_30d,
				market_cap, market_cap_dominance, fully_diluted_market_cap,
				last_updated
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		`,
			snap.Timestamp, snap.CMCID, snap.Name, snap.Symbol, snap.Slug, snap.CMCRank,
			snap.CirculatingSupply, snap.TotalSupply, snap.MaxSupply, snap.InfiniteSupply,
			snap.Tags, snap.Platform,
			snap.PriceUSD, snap.Volume24h,
			snap.PercentChange1h, snap.PercentChange24h, snap.PercentChange7d, snap.PercentChange30d,
			snap.MarketCap, snap.MarketCapDominance, snap.FullyDilutedMarketCap,
			snap.LastUpdated,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range snaps {
		if _, err := results.Exec(); err != nil {
			return &StoreError{
				Table:     coinsTable,
				Retryable: storeErr(coinsTable, err).Retryable,
				Err:       fmt.Errorf("row %d (%s): %w", i, snaps[i].Symbol, err),
			}
		}
	}

	logger.IncrementCoinRows(len(snaps))
	logger.LogPerformanceEntry(s.log.WithComponent("postgres_writer"), "postgres_writer", "insert_coins", time.Since(start), logger.Fields{
		"rows": len(snaps),
	})

	return nil
}

// FetchTrackedCoins returns the explicit watch list used in tracked mode.
func (s *Store) FetchTrackedCoins(ctx context.Context) ([]models.TrackedCoin, error) {
	rows, err := s.pool.Query(ctx, `SELECT cmc_id, symbol, name FROM tracked_coins ORDER BY cmc_id`)
	if err != nil {
		return nil, storeErr(trackedTable, err)
	}
	defer rows.Close()

	var tracked []models.TrackedCoin
	for rows.Next() {
		var tc models.TrackedCoin
		if err := rows.Scan(&tc.CMCID, &tc.Symbol, &tc.Name); err != nil {
			return nil, storeErr(trackedTable, err)
		}
		tracked = append(tracked, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(trackedTable, err)
	}

	return tracked, nil
}

// AddTrackedCoin inserts one coin into the watch list. Adding a coin that is
// already tracked is not an error.
func (s *Store) AddTrackedCoin(ctx context.Context, tc models.TrackedCoin) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tracked_coins (cmc_id, symbol, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (cmc_id) DO NOTHING
	`, tc.CMCID, tc.Symbol, tc.Name)
	if err != nil {
		return storeErr(trackedTable, err)
	}
	return nil
}
