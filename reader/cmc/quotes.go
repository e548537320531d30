package cmc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Rendurdreams/CoinFetch/models"
)

// FetchQuotes pulls the latest quotes for an explicit set of CMC IDs. The
// response order follows the requested ID order; IDs absent from the response
// are skipped rather than failing the call.
func (c *Client) FetchQuotes(ctx context.Context, ids []int64, convert string) ([]models.CoinPayload, []byte, error) {
	if len(ids) == 0 {
		return nil, nil, &FetchError{Endpoint: EndpointQuotes, Err: fmt.Errorf("no coin ids provided")}
	}

	idStrs := make([]string, len(ids))
	for i, id := range ids {
		idStrs[i] = strconv.FormatInt(id, 10)
	}

	params := url.Values{}
	params.Set("id", strings.Join(idStrs, ","))
	if convert != "" {
		params.Set("convert", convert)
	}

	raw, err := c.get(ctx, EndpointQuotes, quotesPath, params)
	if err != nil {
		return nil, nil, err
	}

	var byID map[string]*models.CoinPayload
	if err := json.Unmarshal(raw, &byID); err != nil {
		return nil, nil, &FetchError{Endpoint: EndpointQuotes, Err: fmt.Errorf("decode quotes: %w", err)}
	}

	payloads := make([]models.CoinPayload, 0, len(ids))
	for _, idStr := range idStrs {
		if p, ok := byID[idStr]; ok && p != nil {
			payloads = append(payloads, *p)
		}
	}

	return payloads, raw, nil
}

// FetchCoinMap resolves a ticker symbol to its CMC ID candidates via the
// cryptocurrency map endpoint. Inactive listings are included; callers filter
// on IsActive.
func (c *Client) FetchCoinMap(ctx context.Context, symbol string) ([]models.MapEntry, error) {
	params := url.Values{}
	params.Set("symbol", strings.ToUpper(symbol))

	raw, err := c.get(ctx, EndpointMap, mapPath, params)
	if err != nil {
		return nil, err
	}

	var entries []models.MapEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, &FetchError{Endpoint: EndpointMap, Err: fmt.Errorf("decode map: %w", err)}
	}

	return entries, nil
}
