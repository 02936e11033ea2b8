// Package coinmarketcap is a REST client for the CoinMarketCap quotes API.
package coinmarketcap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

const source = "coinmarketcap"

// Client is the REST client for the CoinMarketCap API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new CoinMarketCap client.
//
// baseURL is the API root, e.g. "https://pro-api.coinmarketcap.com".
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type quotesResponse struct {
	Status struct {
		ErrorCode    json.Number `json:"error_code"`
		ErrorMessage *string     `json:"error_message"`
	} `json:"status"`
	Data map[string]json.RawMessage `json:"data"`
}

type quote struct {
	Quote map[string]struct {
		Price *decimal.Decimal `json:"price"`
	} `json:"quote"`
}

// GetPrice returns the latest price of one unit of symbol in convert.
func (c *Client) GetPrice(ctx context.Context, symbol, convert string) (decimal.Decimal, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("convert", convert)

	body, err := c.doGet(ctx, "/v1/cryptocurrency/quotes/latest?"+params.Encode())
	if err != nil {
		return decimal.Zero, err
	}

	var resp quotesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, &domain.ClientError{Source: source, Message: "decode quotes", Err: err}
	}
	if resp.Status.ErrorMessage != nil && *resp.Status.ErrorMessage != "" {
		return decimal.Zero, &domain.ClientError{
			Source:  source,
			Code:    resp.Status.ErrorCode.String(),
			Message: *resp.Status.ErrorMessage,
		}
	}
	if len(resp.Data) == 0 {
		return decimal.Zero, &domain.ClientError{Source: source, Message: "response has no data"}
	}

	q, err := firstQuote(resp.Data[symbol])
	if err != nil {
		return decimal.Zero, &domain.ClientError{Source: source, Message: "quote for " + symbol, Err: err}
	}
	entry, ok := q.Quote[convert]
	if !ok || entry.Price == nil {
		return decimal.Zero, &domain.ClientError{Source: source, Message: fmt.Sprintf("no %s price for %s", convert, symbol)}
	}
	return *entry.Price, nil
}

// firstQuote accepts both the object form (v1) and the array form (v2) of a
// symbol entry and returns its first quote.
func firstQuote(raw json.RawMessage) (quote, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return quote{}, fmt.Errorf("missing")
	}
	if raw[0] == '[' {
		var list []quote
		if err := json.Unmarshal(raw, &list); err != nil {
			return quote{}, err
		}
		if len(list) == 0 {
			return quote{}, fmt.Errorf("empty")
		}
		return list[0], nil
	}
	var q quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return quote{}, err
	}
	return q, nil
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &domain.ClientError{Source: source, Message: "create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-CMC_PRO_API_KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.ClientError{Source: source, Message: "http request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ClientError{Source: source, Message: "read response", Err: err}
	}

	if err := checkStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// checkStatus maps non-200 responses to a ClientError carrying the HTTP
// status, preferring the API's own error message when present.
func checkStatus(statusCode int, body []byte) error {
	if statusCode == http.StatusOK {
		return nil
	}
	var resp quotesResponse
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &resp) == nil && resp.Status.ErrorMessage != nil {
		msg = *resp.Status.ErrorMessage
	}
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return &domain.ClientError{Source: source, Code: strconv.Itoa(statusCode), Message: msg}
}
