package processor

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Rendurdreams/CoinFetch/models"
)

func dec(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return &d
}

func validCoinPayload(t *testing.T) models.CoinPayload {
	t.Helper()
	return models.CoinPayload{
		ID:     1,
		Name:   "Bitcoin",
		Symbol: "BTC",
		Slug:   "bitcoin",
		Tags:   []string{"mineable"},
		Quote: map[string]*models.CoinQuotePayload{
			"USD": {
				Price:     dec(t, "67234.12"),
				MarketCap: dec(t, "1324567890123.45"),
			},
		},
	}
}

func TestNormalizeGlobal(t *testing.T) {
	collectedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	payload := &models.GlobalMetricsPayload{
		BTCDominance: dec(t, "54.321"),
		Quote: map[string]*models.GlobalQuotePayload{
			"USD": {TotalMarketCap: dec(t, "2456789012345.67")},
		},
	}

	snap := NormalizeGlobal(payload, collectedAt)

	if !snap.Timestamp.Equal(collectedAt) {
		t.Errorf("unexpected timestamp: %s", snap.Timestamp)
	}
	if snap.BTCDominance == nil || snap.BTCDominance.String() != "54.321" {
		t.Errorf("btc dominance not carried over: %v", snap.BTCDominance)
	}
	if snap.TotalMarketCap == nil || snap.TotalMarketCap.String() != "2456789012345.67" {
		t.Errorf("quote field not carried over: %v", snap.TotalMarketCap)
	}
	// Absent source fields stay nil in the row.
	if snap.ETHDominance != nil {
		t.Errorf("absent field should stay nil, got %s", snap.ETHDominance)
	}
	if snap.TotalVolume24h != nil {
		t.Errorf("absent quote field should stay nil, got %s", snap.TotalVolume24h)
	}
}

func TestNormalizeGlobalMissingQuote(t *testing.T) {
	collectedAt := time.Now()
	payload := &models.GlobalMetricsPayload{BTCDominance: dec(t, "54")}

	snap := NormalizeGlobal(payload, collectedAt)
	if snap == nil {
		t.Fatal("a missing quote map must not fail normalization")
	}
	if snap.TotalMarketCap != nil {
		t.Errorf("quote fields should be nil without a USD quote, got %s", snap.TotalMarketCap)
	}
}

func TestNormalizeCoin(t *testing.T) {
	collectedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	payload := validCoinPayload(t)

	snap, err := NormalizeCoin(&payload, collectedAt)
	if err != nil {
		t.Fatalf("NormalizeCoin failed: %v", err)
	}
	if snap.CMCID != 1 || snap.Symbol != "BTC" || snap.Slug != "bitcoin" {
		t.Errorf("identity fields not carried over: %+v", snap)
	}
	if snap.PriceUSD == nil || snap.PriceUSD.String() != "67234.12" {
		t.Errorf("price not carried over: %v", snap.PriceUSD)
	}
	if snap.Volume24h != nil {
		t.Errorf("absent field should stay nil, got %s", snap.Volume24h)
	}
	if snap.Platform != nil {
		t.Errorf("nil platform should stay nil, got %s", *snap.Platform)
	}
}

func TestNormalizeCoinRequiredFields(t *testing.T) {
	collectedAt := time.Now()
	cases := []struct {
		name   string
		mutate func(*models.CoinPayload)
	}{
		{"missing id", func(p *models.CoinPayload) { p.ID = 0 }},
		{"missing name", func(p *models.CoinPayload) { p.Name = "" }},
		{"missing symbol", func(p *models.CoinPayload) { p.Symbol = "" }},
		{"missing slug", func(p *models.CoinPayload) { p.Slug = "" }},
		{"missing quote map", func(p *models.CoinPayload) { p.Quote = nil }},
		{"missing usd quote", func(p *models.CoinPayload) {
			p.Quote = map[string]*models.CoinQuotePayload{"EUR": {}}
		}},
	}
	for _, c := range cases {
		payload := validCoinPayload(t)
		c.mutate(&payload)
		if _, err := NormalizeCoin(&payload, collectedAt); err == nil {
			t.Errorf("%s: expected normalization error", c.name)
		}
	}
}

func TestNormalizeCoinCopiesTags(t *testing.T) {
	payload := validCoinPayload(t)
	snap, err := NormalizeCoin(&payload, time.Now())
	if err != nil {
		t.Fatalf("NormalizeCoin failed: %v", err)
	}

	payload.Tags[0] = "mutated"
	if snap.Tags[0] != "mineable" {
		t.Error("snapshot tags must not alias the payload slice")
	}
}

func TestNormalizeCoinPlatform(t *testing.T) {
	payload := validCoinPayload(t)
	payload.Platform = &models.PlatformPayload{ID: 1027, Name: "Ethereum", Symbol: "ETH"}

	snap, err := NormalizeCoin(&payload, time.Now())
	if err != nil {
		t.Fatalf("NormalizeCoin failed: %v", err)
	}
	if snap.Platform == nil || *snap.Platform != "Ethereum" {
		t.Errorf("platform name not carried over: %v", snap.Platform)
	}
}

func TestNormalizeCoinBatchDropsBadRecords(t *testing.T) {
	collectedAt := time.Now()

	good1 := validCoinPayload(t)
	good2 := validCoinPayload(t)
	good2.ID = 1027
	good2.Name = "Ethereum"
	good2.Symbol = "ETH"
	good2.Slug = "ethereum"
	bad := validCoinPayload(t)
	bad.Slug = ""

	snaps, dropped := NormalizeCoinBatch([]models.CoinPayload{good1, bad, good2}, collectedAt)

	if dropped != 1 {
		t.Errorf("expected 1 dropped record, got %d", dropped)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 surviving records, got %d", len(snaps))
	}
	if snaps[0].Symbol != "BTC" || snaps[1].Symbol != "ETH" {
		t.Errorf("surviving records out of order: %s, %s", snaps[0].Symbol, snaps[1].Symbol)
	}
}

func TestNormalizeCoinBatchDeterministic(t *testing.T) {
	collectedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	payloads := []models.CoinPayload{validCoinPayload(t)}

	first, _ := NormalizeCoinBatch(payloads, collectedAt)
	second, _ := NormalizeCoinBatch(payloads, collectedAt)

	if !first[0].Timestamp.Equal(second[0].Timestamp) || first[0].PriceUSD.String() != second[0].PriceUSD.String() {
		t.Error("same input must normalize to the same row")
	}
}
