package cmc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appconfig "github.com/Rendurdreams/CoinFetch/config"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &appconfig.Config{
		Source: appconfig.SourceConfig{
			CMC: appconfig.CMCSourceConfig{
				BaseURL: srv.URL,
				Timeout: 5 * time.Second,
				RateLimit: appconfig.RateLimitConfig{
					RequestsPerMinute: 6000,
					BurstSize:         10,
				},
			},
		},
	}
	return NewClient(cfg, "test-api-key")
}

func TestFetchGlobalMetrics(t *testing.T) {
	var gotPath, gotKey string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-CMC_PRO_API_KEY")
		w.Write([]byte(`{
			"status": {"error_code": 0, "credit_count": 1},
			"data": {
				"btc_dominance": 54.32109876543210987,
				"quote": {"USD": {"total_market_cap": 2456789012345.67}}
			}
		}`))
	}))

	payload, raw, err := client.FetchGlobalMetrics(context.Background(), "USD")
	if err != nil {
		t.Fatalf("FetchGlobalMetrics failed: %v", err)
	}
	if gotPath != "/v1/global-metrics/quotes/latest" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotKey != "test-api-key" {
		t.Errorf("api key header not set: %q", gotKey)
	}
	if payload.BTCDominance.String() != "54.32109876543210987" {
		t.Errorf("btc dominance lost precision: %s", payload.BTCDominance)
	}
	if len(raw) == 0 {
		t.Error("raw data section should be returned for archiving")
	}
}

func TestFetchTopListings(t *testing.T) {
	var gotQuery string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{
			"status": {"error_code": 0},
			"data": [
				{"id": 1, "name": "Bitcoin", "symbol": "BTC", "slug": "bitcoin",
				 "max_supply": 21000000,
				 "quote": {"USD": {"price": 67234.12}}},
				{"id": 825, "name": "Tether", "symbol": "USDT", "slug": "tether",
				 "max_supply": null,
				 "quote": {"USD": {"price": 1.0002}}}
			]
		}`))
	}))

	payloads, _, err := client.FetchTopListings(context.Background(), 100, "USD")
	if err != nil {
		t.Fatalf("FetchTopListings failed: %v", err)
	}
	if len(payloads) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(payloads))
	}
	if payloads[0].Symbol != "BTC" || payloads[1].Symbol != "USDT" {
		t.Errorf("response order not preserved: %s, %s", payloads[0].Symbol, payloads[1].Symbol)
	}
	if payloads[1].MaxSupply != nil {
		t.Errorf("null max_supply should stay nil, got %s", payloads[1].MaxSupply)
	}

	if !strings.Contains(gotQuery, "limit=100") || !strings.Contains(gotQuery, "sort=market_cap") {
		t.Errorf("unexpected query: %s", gotQuery)
	}
}

func TestFetchQuotesOrder(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": {"error_code": 0},
			"data": {
				"1": {"id": 1, "name": "Bitcoin", "symbol": "BTC", "slug": "bitcoin", "quote": {"USD": {"price": 67234.12}}},
				"1027": {"id": 1027, "name": "Ethereum", "symbol": "ETH", "slug": "ethereum", "quote": {"USD": {"price": 3456.78}}}
			}
		}`))
	}))

	// 999 is absent from the response and must be skipped, not fail the call.
	payloads, _, err := client.FetchQuotes(context.Background(), []int64{1027, 999, 1}, "USD")
	if err != nil {
		t.Fatalf("FetchQuotes failed: %v", err)
	}
	if len(payloads) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(payloads))
	}
	if payloads[0].ID != 1027 || payloads[1].ID != 1 {
		t.Errorf("requested id order not preserved: %d, %d", payloads[0].ID, payloads[1].ID)
	}
}

func TestFetchQuotesNoIDs(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be made without ids")
	}))

	if _, _, err := client.FetchQuotes(context.Background(), nil, "USD"); err == nil {
		t.Fatal("expected error for empty id list")
	}
}

func TestFetchCoinMap(t *testing.T) {
	var gotSymbol string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSymbol = r.URL.Query().Get("symbol")
		w.Write([]byte(`{
			"status": {"error_code": 0},
			"data": [
				{"id": 1, "name": "Bitcoin", "symbol": "BTC", "slug": "bitcoin", "is_active": 1, "rank": 1},
				{"id": 31469, "name": "BTC Token", "symbol": "BTC", "slug": "btc-token", "is_active": 0}
			]
		}`))
	}))

	entries, err := client.FetchCoinMap(context.Background(), "btc")
	if err != nil {
		t.Fatalf("FetchCoinMap failed: %v", err)
	}
	if gotSymbol != "BTC" {
		t.Errorf("symbol should be upper-cased, got %q", gotSymbol)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].IsActive != 1 || entries[1].IsActive != 0 {
		t.Errorf("is_active not decoded: %+v", entries)
	}
}

func TestFetchErrorStatusClassification(t *testing.T) {
	cases := []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusForbidden, false},
	}
	for _, c := range cases {
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(c.status)
		}))

		_, _, err := client.FetchGlobalMetrics(context.Background(), "USD")
		if err == nil {
			t.Fatalf("status %d: expected error", c.status)
		}
		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("status %d: expected *FetchError, got %T", c.status, err)
		}
		if fe.IsRetryable() != c.retryable {
			t.Errorf("status %d: IsRetryable() = %v, want %v", c.status, fe.IsRetryable(), c.retryable)
		}
	}
}

func TestFetchAPIError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": {"error_code": 1002, "error_message": "API key missing."}, "data": null}`))
	}))

	_, _, err := client.FetchGlobalMetrics(context.Background(), "USD")
	if err == nil {
		t.Fatal("expected error for non-zero api error code")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fe.IsRetryable() {
		t.Error("api-level errors must not be retryable")
	}
}

func TestFetchMalformedBody(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": {`))
	}))

	_, _, err := client.FetchGlobalMetrics(context.Background(), "USD")
	if err == nil {
		t.Fatal("expected error for malformed body")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
}
