package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GlobalMetricsPayload is the data section of the CMC
// /v1/global-metrics/quotes/latest response. Numeric fields are pointers so a
// value absent from the payload stays distinguishable from a reported zero.
type GlobalMetricsPayload struct {
	ActiveCryptocurrencies *decimal.Decimal `json:"active_cryptocurrencies"`
	ActiveExchanges        *decimal.Decimal `json:"active_exchanges"`
	ActiveMarketPairs      *decimal.Decimal `json:"active_market_pairs"`
	BTCDominance           *decimal.Decimal `json:"btc_dominance"`
	ETHDominance           *decimal.Decimal `json:"eth_dominance"`

	DefiMarketCap           *decimal.Decimal `json:"defi_market_cap"`
	DefiVolume24h           *decimal.Decimal `json:"defi_volume_24h"`
	Defi24hPercentageChange *decimal.Decimal `json:"defi_24h_percentage_change"`
	StablecoinMarketCap     *decimal.Decimal `json:"stablecoin_market_cap"`
	StablecoinVolume24h     *decimal.Decimal `json:"stablecoin_volume_24h"`
	Stablecoin24hChange     *decimal.Decimal `json:"stablecoin_24h_percentage_change"`
	DerivativesVolume24h    *decimal.Decimal `json:"derivatives_volume_24h"`
	Derivatives24hChange    *decimal.Decimal `json:"derivatives_24h_percentage_change"`

	LastUpdated *time.Time                     `json:"last_updated"`
	Quote       map[string]*GlobalQuotePayload `json:"quote"`
}

// GlobalQuotePayload is one fiat conversion inside the global metrics quote
// map. The collector only reads the USD entry.
type GlobalQuotePayload struct {
	TotalMarketCap                *decimal.Decimal `json:"total_market_cap"`
	TotalVolume24h                *decimal.Decimal `json:"total_volume_24h"`
	TotalVolume24hReported        *decimal.Decimal `json:"total_volume_24h_reported"`
	AltcoinMarketCap              *decimal.Decimal `json:"altcoin_market_cap"`
	AltcoinVolume24h              *decimal.Decimal `json:"altcoin_volume_24h"`
	TotalMarketCapYesterdayChange *decimal.Decimal `json:"total_market_cap_yesterday_percentage_change"`
	TotalVolume24hYesterdayChange *decimal.Decimal `json:"total_volume_24h_yesterday_percentage_change"`
}

// GlobalSnapshot is one row of the global_metrics table: the market-wide
// aggregates captured at a single collection tick. Rows are append-only and
// never updated; Timestamp is the collection time, LastUpdated the freshness
// reported by the source.
type GlobalSnapshot struct {
	Timestamp time.Time `json:"timestamp"`

	BTCDominance           *decimal.Decimal `json:"btc_dominance"`
	ETHDominance           *decimal.Decimal `json:"eth_dominance"`
	ActiveCryptocurrencies *decimal.Decimal `json:"active_cryptocurrencies"`
	ActiveExchanges        *decimal.Decimal `json:"active_exchanges"`
	ActiveMarketPairs      *decimal.Decimal `json:"active_market_pairs"`

	TotalMarketCap         *decimal.Decimal `json:"total_market_cap"`
	TotalVolume24h         *decimal.Decimal `json:"total_volume_24h"`
	TotalVolume24hReported *decimal.Decimal `json:"total_volume_24h_reported"`
	AltcoinMarketCap       *decimal.Decimal `json:"altcoin_market_cap"`
	AltcoinVolume24h       *decimal.Decimal `json:"altcoin_volume_24h"`

	DefiMarketCap           *decimal.Decimal `json:"defi_market_cap"`
	DefiVolume24h           *decimal.Decimal `json:"defi_volume_24h"`
	Defi24hPercentageChange *decimal.Decimal `json:"defi_24h_percentage_change"`

	StablecoinMarketCap *decimal.Decimal `json:"stablecoin_market_cap"`
	StablecoinVolume24h *decimal.Decimal `json:"stablecoin_volume_24h"`
	Stablecoin24hChange *decimal.Decimal `json:"stablecoin_24h_percentage_change"`

	DerivativesVolume24h *decimal.Decimal `json:"derivatives_volume_24h"`
	Derivatives24hChange *decimal.Decimal `json:"derivatives_24h_percentage_change"`

	TotalMarketCapYesterdayChange *decimal.Decimal `json:"total_market_cap_yesterday_percentage_change"`
	TotalVolume24hYesterdayChange *decimal.Decimal `json:"total_volume_24h_yesterday_percentage_change"`

	LastUpdated *time.Time `json:"last_updated"`
}
