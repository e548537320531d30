package cmc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	appconfig "github.com/Rendurdreams/CoinFetch/config"
	"github.com/Rendurdreams/CoinFetch/logger"
	"github.com/Rendurdreams/CoinFetch/models"
)

// Endpoint names used for error context and logging.
const (
	EndpointGlobalMetrics = "global-metrics"
	EndpointListings      = "listings"
	EndpointQuotes        = "quotes"
	EndpointMap           = "map"
)

const (
	globalMetricsPath = "/v1/global-metrics/quotes/latest"
	listingsPath      = "/v1/cryptocurrency/listings/latest"
	quotesPath        = "/v2/cryptocurrency/quotes/latest"
	mapPath           = "/v1/cryptocurrency/map"
)

// Client issues authenticated requests against the CoinMarketCap Pro API.
// It performs no retries itself; callers decide how a failed call is
// recovered.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logger.Log
}

// NewClient creates a CMC client from the source configuration. The API key
// is injected by the caller and attached to every request; outbound calls are
// paced by a shared rate limiter sized to the account's credit allowance.
func NewClient(cfg *appconfig.Config, apiKey string) *Client {
	pool := cfg.Source.CMC.ConnectionPool
	transport := &http.Transport{
		MaxIdleConns:        pool.MaxIdleConns,
		MaxIdleConnsPerHost: pool.MaxIdleConns,
		MaxConnsPerHost:     pool.MaxConnsPerHost,
		IdleConnTimeout:     pool.IdleConnTimeout,
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   cfg.Source.CMC.Timeout,
	}

	rl := cfg.Source.CMC.RateLimit
	rpm := rl.RequestsPerMinute
	if rpm <= 0 {
		rpm = 25
	}
	burst := rl.BurstSize
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)

	return &Client{
		baseURL:    cfg.Source.CMC.BaseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		limiter:    limiter,
		log:        logger.GetLogger(),
	}
}

// get performs one authenticated GET and returns the raw data section of the
// response envelope. Transport failures, non-2xx statuses and API-level error
// codes all surface as *FetchError.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &FetchError{Endpoint: endpoint, Err: err}
		}
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("X-CMC_PRO_API_KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// DNS, connect and timeout failures are worth retrying.
		return nil, &FetchError{Endpoint: endpoint, Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, StatusCode: resp.StatusCode, Retryable: true, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Retryable:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	var envelope models.Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &FetchError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode envelope: %w", err)}
	}

	if envelope.Status.ErrorCode != 0 {
		return nil, &FetchError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("api error %d: %s", envelope.Status.ErrorCode, envelope.Status.ErrorMessage),
		}
	}

	if len(envelope.Data) == 0 {
		return nil, &FetchError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("response has no data section")}
	}

	c.log.WithComponent("cmc_client").WithFields(logger.Fields{
		"endpoint":     endpoint,
		"credit_count": envelope.Status.CreditCount,
	}).Debug("request complete")

	return envelope.Data, nil
}
