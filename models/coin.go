package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CoinPayload is a single cryptocurrency object as returned by the CMC
// /v1/cryptocurrency/listings/latest and /v2/cryptocurrency/quotes/latest
// endpoints. Optional fields are pointers so "missing" survives decoding.
type CoinPayload struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Slug   string `json:"slug"`

	CMCRank           *int64           `json:"cmc_rank"`
	NumMarketPairs    *int64           `json:"num_market_pairs"`
	CirculatingSupply *decimal.Decimal `json:"circulating_supply"`
	TotalSupply       *decimal.Decimal `json:"total_supply"`
	MaxSupply         *decimal.Decimal `json:"max_supply"`
	InfiniteSupply    *bool            `json:"infinite_supply"`

	Tags     []string         `json:"tags"`
	Platform *PlatformPayload `json:"platform"`

	DateAdded   *time.Time `json:"date_added"`
	LastUpdated *time.Time `json:"last_updated"`

	Quote map[string]*CoinQuotePayload `json:"quote"`
}

// PlatformPayload identifies the parent chain of a token listing. It is null
// for native coins.
type PlatformPayload struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	Slug         string `json:"slug"`
	TokenAddress string `json:"token_address"`
}

// CoinQuotePayload is one fiat conversion of a coin quote. The collector only
// reads the USD entry.
type CoinQuotePayload struct {
	Price                 *decimal.Decimal `json:"price"`
	Volume24h             *decimal.Decimal `json:"volume_24h"`
	VolumeChange24h       *decimal.Decimal `json:"volume_change_24h"`
	PercentChange1h       *decimal.Decimal `json:"percent_change_1h"`
	PercentChange24h      *decimal.Decimal `json:"percent_change_24h"`
	PercentChange7d       *decimal.Decimal `json:"percent_change_7d"`
	PercentChange30d      *decimal.Decimal `json:"percent_change_30d"`
	MarketCap             *decimal.Decimal `json:"market_cap"`
	MarketCapDominance    *decimal.Decimal `json:"market_cap_dominance"`
	FullyDilutedMarketCap *decimal.Decimal `json:"fully_diluted_market_cap"`
	LastUpdated           *time.Time       `json:"last_updated"`
}

// CoinSnapshot is one row of the coins table: a single coin's market state at
// one collection tick. CMCID repeats across ticks because history is
// retained; rows sharing a Timestamp form one tick's cross-section.
type CoinSnapshot struct {
	Timestamp time.Time `json:"timestamp"`

	CMCID   int64  `json:"cmc_id"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	Slug    string `json:"slug"`
	CMCRank *int64 `json:"cmc_rank"`

	CirculatingSupply *decimal.Decimal `json:"circulating_supply"`
	TotalSupply       *decimal.Decimal `json:"total_supply"`
	MaxSupply         *decimal.Decimal `json:"max_supply"`
	InfiniteSupply    *bool            `json:"infinite_supply"`

	Tags     []string `json:"tags"`
	Platform *string  `json:"platform"`

	PriceUSD              *decimal.Decimal `json:"price_usd"`
	Volume24h             *decimal.Decimal `json:"volume_24h"`
	PercentChange1h       *decimal.Decimal `json:"percent_change_1h"`
	PercentChange24h      *decimal.Decimal `json:"percent_change_24h"`
	PercentChange7d       *decimal.Decimal `json:"percent_change_7d"`
	PercentChange30d      *decimal.Decimal `json:"percent_change_30d"`
	MarketCap             *decimal.Decimal `json:"market_cap"`
	MarketCapDominance    *decimal.Decimal `json:"market_cap_dominance"`
	FullyDilutedMarketCap *decimal.Decimal `json:"fully_diluted_market_cap"`

	LastUpdated *time.Time `json:"last_updated"`
}

// TrackedCoin is one row of the tracked_coins table, the explicit watch list
// used when the collector runs in tracked mode.
type TrackedCoin struct {
	CMCID  int64  `json:"cmc_id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// MapEntry is a single result from /v1/cryptocurrency/map, used by the
// trackcoin tool to resolve a ticker symbol to CMC IDs.
type MapEntry struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Slug     string `json:"slug"`
	IsActive int    `json:"is_active"`
	Rank     *int64 `json:"rank"`
}
