package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"finanzas/internal/core"
)

const (
	defaultTimeout = 10 * time.Second
	// currency 3 is EUR on the marketplace
	currencyEUR = "3"
)

// ErrNoListing is returned when the marketplace knows the item but has no
// current price for it.
var ErrNoListing = errors.New("no price listed for item")

// Client fetches current marketplace prices for inventory items.
type Client struct {
	httpClient *http.Client
	baseURL    string
	appID      int
}

func NewClient(baseURL string, appID int) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: baseURL,
		appID:   appID,
	}
}

// priceOverview is the marketplace's price summary. Prices arrive as
// locale-formatted strings, e.g. "2,50€".
type priceOverview struct {
	Success     bool   `json:"success"`
	LowestPrice string `json:"lowest_price"`
	MedianPrice string `json:"median_price"`
}

// Quote holds both marketplace price points for an item.
type Quote struct {
	Lowest core.Money
	Median core.Money
}

// Fetch returns the current quote for an item by its marketplace name.
// Lowest is the price a buyer pays now; Median smooths recent sales. When
// only one of the two is listed, the other falls back to it.
func (c *Client) Fetch(ctx context.Context, itemName string) (Quote, error) {
	q := url.Values{}
	q.Set("appid", fmt.Sprint(c.appID))
	q.Set("currency", currencyEUR)
	q.Set("market_hash_name", itemName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Quote{}, fmt.Errorf("create price request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("fetch price: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("price endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Quote{}, fmt.Errorf("read price response: %w", err)
	}

	var overview priceOverview
	if err := json.Unmarshal(body, &overview); err != nil {
		return Quote{}, fmt.Errorf("decode price response: %w", err)
	}
	if !overview.Success {
		return Quote{}, fmt.Errorf("%w: %q", ErrNoListing, itemName)
	}

	return quoteFromOverview(overview, itemName)
}

func quoteFromOverview(overview priceOverview, itemName string) (Quote, error) {
	if overview.LowestPrice == "" && overview.MedianPrice == "" {
		return Quote{}, fmt.Errorf("%w: %q", ErrNoListing, itemName)
	}

	var quote Quote
	var err error

	if overview.LowestPrice != "" {
		quote.Lowest, err = core.ParsePriceToCents(overview.LowestPrice)
		if err != nil {
			return Quote{}, fmt.Errorf("parse lowest price %q: %w", overview.LowestPrice, err)
		}
	}
	if overview.MedianPrice != "" {
		quote.Median, err = core.ParsePriceToCents(overview.MedianPrice)
		if err != nil {
			return Quote{}, fmt.Errorf("parse median price %q: %w", overview.MedianPrice, err)
		}
	}

	if overview.LowestPrice == "" {
		quote.Lowest = quote.Median
	}
	if overview.MedianPrice == "" {
		quote.Median = quote.Lowest
	}
	return quote, nil
}
