package processor

import (
	"time"

	"github.com/Rendurdreams/CoinFetch/logger"
	"github.com/Rendurdreams/CoinFetch/models"
)

// quoteCurrency is the fiat conversion the collector persists. The API is
// asked for the same currency, so other entries in the quote map are dropped.
const quoteCurrency = "USD"

// NormalizeGlobal maps a raw global metrics payload onto a flat snapshot row.
// It is pure: fields absent from the payload stay nil in the row, nothing is
// defaulted to zero, and the payload is never modified.
func NormalizeGlobal(payload *models.GlobalMetricsPayload, collectedAt time.Time) *models.GlobalSnapshot {
	snap := &models.GlobalSnapshot{
		Timestamp:              collectedAt.UTC(),
		BTCDominance:           payload.BTCDominance,
		ETHDominance:           payload.ETHDominance,
		ActiveCryptocurrencies: payload.ActiveCryptocurrencies,
		ActiveExchanges:        payload.ActiveExchanges,
		ActiveMarketPairs:      payload.ActiveMarketPairs,

		DefiMarketCap:           payload.DefiMarketCap,
		DefiVolume24h:           payload.DefiVolume24h,
		Defi24hPercentageChange: payload.Defi24hPercentageChange,

		StablecoinMarketCap: payload.StablecoinMarketCap,
		StablecoinVolume24h: payload.StablecoinVolume24h,
		Stablecoin24hChange: payload.Stablecoin24hChange,

		DerivativesVolume24h: payload.DerivativesVolume24h,
		Derivatives24hChange: payload.Derivatives24hChange,

		LastUpdated: payload.LastUpdated,
	}

	if quote, ok := payload.Quote[quoteCurrency]; ok && quote != nil {
		snap.TotalMarketCap = quote.TotalMarketCap
		snap.TotalVolume24h = quote.TotalVolume24h
		snap.TotalVolume24hReported = quote.TotalVolume24hReported
		snap.AltcoinMarketCap = quote.AltcoinMarketCap
		snap.AltcoinVolume24h = quote.AltcoinVolume24h
		snap.TotalMarketCapYesterdayChange = quote.TotalMarketCapYesterdayChange
		snap.TotalVolume24hYesterdayChange = quote.TotalVolume24hYesterdayChange
	}

	return snap
}

// NormalizeCoin maps one raw coin payload onto a flat snapshot row. It fails
// only when a structurally required field is missing; every optional field
// that is absent or null stays nil in the row.
func NormalizeCoin(payload *models.CoinPayload, collectedAt time.Time) (*models.CoinSnapshot, error) {
	if payload.ID == 0 {
		return nil, &NormalizationError{Symbol: payload.Symbol, Field: "id"}
	}
	if payload.Name == "" {
		return nil, &NormalizationError{CMCID: payload.ID, Symbol: payload.Symbol, Field: "name"}
	}
	if payload.Symbol == "" {
		return nil, &NormalizationError{CMCID: payload.ID, Field: "symbol"}
	}
	if payload.Slug == "" {
		return nil, &NormalizationError{CMCID: payload.ID, Symbol: payload.Symbol, Field: "slug"}
	}

	quote, ok := payload.Quote[quoteCurrency]
	if !ok || quote == nil {
		return nil, &NormalizationError{CMCID: payload.ID, Symbol: payload.Symbol, Field: "quote." + quoteCurrency}
	}

	snap := &models.CoinSnapshot{
		Timestamp: collectedAt.UTC(),

		CMCID:   payload.ID,
		Name:    payload.Name,
		Symbol:  payload.Symbol,
		Slug:    payload.Slug,
		CMCRank: payload.CMCRank,

		CirculatingSupply: payload.CirculatingSupply,
		TotalSupply:       payload.TotalSupply,
		MaxSupply:         payload.MaxSupply,
		InfiniteSupply:    payload.InfiniteSupply,

		PriceUSD:              quote.Price,
		Volume24h:             quote.Volume24h,
		PercentChange1h:       quote.PercentChange1h,
		PercentChange24h:      quote.PercentChange24h,
		PercentChange7d:       quote.PercentChange7d,
		PercentChange30d:      quote.PercentChange30d,
		MarketCap:             quote.MarketCap,
		MarketCapDominance:    quote.MarketCapDominance,
		FullyDilutedMarketCap: quote.FullyDilutedMarketCap,

		LastUpdated: payload.LastUpdated,
	}

	if len(payload.Tags) > 0 {
		snap.Tags = append([]string(nil), payload.Tags...)
	}

	if payload.Platform != nil {
		name := payload.Platform.Name
		snap.Platform = &name
	}

	return snap, nil
}

// NormalizeCoinBatch normalizes a full per-tick batch. A record failing
// normalization is logged and dropped; the remaining records are returned.
// The number of dropped records is reported so callers can account for them.
func NormalizeCoinBatch(payloads []models.CoinPayload, collectedAt time.Time) ([]models.CoinSnapshot, int) {
	log := logger.GetLogger().WithComponent("coin_normalizer")

	snapshots := make([]models.CoinSnapshot, 0, len(payloads))
	dropped := 0
	for i := range payloads {
		snap, err := NormalizeCoin(&payloads[i], collectedAt)
		if err != nil {
			dropped++
			log.WithError(err).WithFields(logger.Fields{
				"cmc_id": payloads[i].ID,
				"symbol": payloads[i].Symbol,
			}).Warn("dropping record that failed normalization")
			continue
		}
		snapshots = append(snapshots, *snap)
	}

	if dropped > 0 {
		logger.IncrementDroppedCoins(dropped)
	}

	return snapshots, dropped
}
