package cmc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Rendurdreams/CoinFetch/models"
)

// FetchTopListings pulls the top ranked coins by market cap. The raw data
// section is returned alongside the decoded payloads for archiving.
func (c *Client) FetchTopListings(ctx context.Context, limit int, convert string) ([]models.CoinPayload, []byte, error) {
	params := url.Values{}
	params.Set("start", "1")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("sort", "market_cap")
	params.Set("sort_dir", "desc")
	if convert != "" {
		params.Set("convert", convert)
	}

	raw, err := c.get(ctx, EndpointListings, listingsPath, params)
	if err != nil {
		return nil, nil, err
	}

	var payloads []models.CoinPayload
	if err := json.Unmarshal(raw, &payloads); err != nil {
		return nil, nil, &FetchError{Endpoint: EndpointListings, Err: fmt.Errorf("decode listings: %w", err)}
	}

	return payloads, raw, nil
}
