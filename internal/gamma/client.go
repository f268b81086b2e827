// Package gamma fetches market state from a Polymarket Gamma style REST API
// and converts it into the snapshot shape the pipeline consumes. Gamma's
// wire format is quirky: outcome names and prices are JSON-encoded strings
// inside the JSON document, and volume/liquidity arrive as strings.
package gamma

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"marketcast/internal/market"
)

// Client provides read access to a Gamma-compatible markets API.
type Client struct {
	base string
	rest *resty.Client
}

// NewClient creates a client for the given base URL.
func NewClient(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	return &Client{base: base, rest: r}
}

// apiMarket mirrors the Gamma market document.
type apiMarket struct {
	ID            string `json:"id"`
	Question      string `json:"question"`
	Outcomes      string `json:"outcomes"`
	OutcomePrices string `json:"outcomePrices"`
	Volume        string `json:"volume"`
	Liquidity     string `json:"liquidity"`
	EndDate       string `json:"endDate"`
}

// FetchSnapshot retrieves one market by ID and converts it to a snapshot.
func (c *Client) FetchSnapshot(marketID string) (*market.Snapshot, error) {
	var m apiMarket
	resp, err := c.rest.R().
		SetResult(&m).
		Get(c.base + "/markets/" + marketID)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("gamma API error: status %d, body: %s", resp.StatusCode(), resp.String())
	}

	return m.toSnapshot()
}

// toSnapshot decodes Gamma's string-encoded arrays into a snapshot. Outcome
// names are best-effort; prices must at least be a decodable array.
func (m *apiMarket) toSnapshot() (*market.Snapshot, error) {
	var names []string
	if m.Outcomes != "" {
		// A malformed names array costs display names, not the forecast.
		_ = json.Unmarshal([]byte(m.Outcomes), &names)
	}

	var priceStrs []string
	if m.OutcomePrices != "" {
		if err := json.Unmarshal([]byte(m.OutcomePrices), &priceStrs); err != nil {
			return nil, fmt.Errorf("malformed outcomePrices for market %s: %w", m.ID, err)
		}
	}

	prices := make([]market.Scalar, len(priceStrs))
	for i, s := range priceStrs {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			prices[i] = market.Num(v)
		}
	}

	outcomes := make([]market.Outcome, len(names))
	for i, n := range names {
		outcomes[i] = market.Outcome{Name: n}
	}

	return &market.Snapshot{
		ID:             m.ID,
		TotalVolume:    market.Num(parseFloatOrZero(m.Volume)),
		TotalLiquidity: market.Num(parseFloatOrZero(m.Liquidity)),
		ResolutionTime: m.EndDate,
		Prices:         prices,
		OutcomeCount:   len(names),
		Outcomes:       outcomes,
	}, nil
}

func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
