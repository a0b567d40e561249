/**
 * @description
 * Client for the token price-lookup service. The badge engine uses it to
 * convert a donation from its token denomination into the reference currency
 * before checking the milestone threshold. A failed lookup is a typed error
 * that fails only the milestone rule, never the donation itself.
 */
package priceclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnknownToken is returned when the price service has no quote for the
// requested symbol.
var ErrUnknownToken = errors.New("unknown token symbol")

// Lookup is the interface implemented by types that can resolve token prices.
type Lookup interface {
	GetPrice(ctx context.Context, tokenSymbol string) (decimal.Decimal, error)
}

// Client is a client for the price-lookup service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new price service client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type priceResponse struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

// GetPrice resolves the reference-currency price for one token symbol.
func (c *Client) GetPrice(ctx context.Context, tokenSymbol string) (decimal.Decimal, error) {
	if c.baseURL == "" {
		return decimal.Zero, fmt.Errorf("price service base URL is not configured")
	}

	endpoint := fmt.Sprintf("%s/prices/%s", c.baseURL, url.PathEscape(tokenSymbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to execute request to price service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return decimal.Zero, ErrUnknownToken
	}
	if resp.StatusCode >= 400 {
		return decimal.Zero, fmt.Errorf("price service returned error status %d", resp.StatusCode)
	}

	var quote priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode price response: %w", err)
	}
	return quote.Price, nil
}
