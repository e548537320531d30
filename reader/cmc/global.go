package cmc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/Rendurdreams/CoinFetch/models"
)

// FetchGlobalMetrics pulls the latest aggregate market metrics. The raw data
// section is returned alongside the decoded payload so callers can archive
// the untouched response.
func (c *Client) FetchGlobalMetrics(ctx context.Context, convert string) (*models.GlobalMetricsPayload, []byte, error) {
	params := url.Values{}
	if convert != "" {
		params.Set("convert", convert)
	}

	raw, err := c.get(ctx, EndpointGlobalMetrics, globalMetricsPath, params)
	if err != nil {
		return nil, nil, err
	}

	var payload models.GlobalMetricsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, nil, &FetchError{Endpoint: EndpointGlobalMetrics, Err: fmt.Errorf("decode global metrics: %w", err)}
	}

	return &payload, raw, nil
}
