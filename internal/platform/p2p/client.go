// Package p2p is the REST gateway shared by the Noones and Paxful
// marketplaces. Both expose the same oauth2 token endpoint and the same
// form-encoded offer API under a per-marketplace path prefix.
package p2p

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

// DefaultPageSize is the offer/all page size used when none is configured.
const DefaultPageSize = 300

// maxPages bounds offer/all pagination against a server that never reports
// an empty page.
const maxPages = 1000

// TokenFunc returns the bearer token for the next API call.
type TokenFunc func(ctx context.Context) (string, error)

// AuthClient calls the oauth2 token endpoint.
type AuthClient struct {
	source       string
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewAuthClient creates a token endpoint client. source names the
// marketplace in errors and logs.
func NewAuthClient(source, baseURL, clientID, clientSecret string) *AuthClient {
	return &AuthClient{
		source:       source,
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateToken requests a new client-credentials token.
func (a *AuthClient) CreateToken(ctx context.Context) (TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", a.clientID)
	form.Set("client_secret", a.clientSecret)

	body, err := postForm(ctx, a.httpClient, a.source, joinURL(a.baseURL, "oauth2/token"), "", form)
	if err != nil {
		return TokenResponse{}, err
	}

	var resp TokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return TokenResponse{}, &domain.DataValidationError{Source: a.source, Reason: "token response is not valid JSON: " + err.Error()}
	}
	return resp, nil
}

// APIClient calls the marketplace offer API.
type APIClient struct {
	source     string
	baseURL    string
	prefix     string
	pageSize   int
	token      TokenFunc
	httpClient *http.Client
	logger     *slog.Logger
}

// NewAPIClient creates an offer API client. prefix is the marketplace path
// prefix, e.g. "noones/v1". pageSize <= 0 uses DefaultPageSize.
func NewAPIClient(source, baseURL, prefix string, pageSize int, token TokenFunc, logger *slog.Logger) *APIClient {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &APIClient{
		source:     source,
		baseURL:    baseURL,
		prefix:     strings.Trim(prefix, "/"),
		pageSize:   pageSize,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// GetOffer returns the raw offer record for offerHash.
func (c *APIClient) GetOffer(ctx context.Context, offerHash string) (json.RawMessage, error) {
	form := url.Values{}
	form.Set("offer_hash", offerHash)
	return c.call(ctx, "offer/get", form)
}

// GetAllOffers walks offer/all with offset pagination and returns every raw
// offer in arrival order. It stops after the first page that reports a zero
// count.
func (c *APIClient) GetAllOffers(ctx context.Context, req SearchRequest) ([]json.RawMessage, error) {
	form := url.Values{}
	form.Set("type", req.Type)
	form.Set("currency_code", req.CurrencyCode)
	form.Set("crypto_currency_code", req.CryptoCurrencyCode)
	form.Set("user_country", req.UserCountry)
	if req.PaymentMethod != "" {
		form.Set("payment_method", req.PaymentMethod)
	}
	if req.FiatFixedPriceMin != nil {
		form.Set("fiat_fixed_price_min", req.FiatFixedPriceMin.String())
	}
	if req.FiatFixedPriceMax != nil {
		form.Set("fiat_fixed_price_max", req.FiatFixedPriceMax.String())
	}
	form.Set("limit", strconv.Itoa(c.pageSize))

	var offers []json.RawMessage
	for page, offset := 0, 0; ; page, offset = page+1, offset+c.pageSize {
		if page == maxPages {
			return nil, &domain.ClientError{Source: c.source, Message: fmt.Sprintf("offer/all did not finish after %d pages", maxPages)}
		}
		form.Set("offset", strconv.Itoa(offset))

		data, err := c.call(ctx, "offer/all", form)
		if err != nil {
			return nil, err
		}

		var p offersPage
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, &domain.DataValidationError{Source: c.source, Field: "offers", Reason: err.Error()}
		}
		offers = append(offers, p.Offers...)

		count, err := pageCount(p.Count)
		if err != nil {
			return nil, &domain.DataValidationError{Source: c.source, Field: "count", Reason: err.Error()}
		}
		if count == 0 {
			break
		}
	}

	c.logger.DebugContext(ctx, "fetched offers",
		slog.String("source", c.source),
		slog.Int("count", len(offers)),
	)
	return offers, nil
}

// UpdateOfferPrice sets the fixed price of offerHash and returns the raw
// result body.
func (c *APIClient) UpdateOfferPrice(ctx context.Context, offerHash string, price string) (UpdatePriceResult, error) {
	form := url.Values{}
	form.Set("offer_hash", offerHash)
	form.Set("fixed_price", price)

	data, err := c.call(ctx, "offer/update-price", form)
	if err != nil {
		return UpdatePriceResult{}, err
	}

	var res UpdatePriceResult
	if err := json.Unmarshal(data, &res); err != nil {
		return UpdatePriceResult{}, &domain.DataValidationError{Source: c.source, Field: "success", Reason: err.Error()}
	}
	return res, nil
}

// call posts form to the prefixed endpoint and returns the envelope data.
func (c *APIClient) call(ctx context.Context, endpoint string, form url.Values) (json.RawMessage, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: bearer token: %w", c.source, err)
	}

	body, err := postForm(ctx, c.httpClient, c.source, joinURL(c.baseURL, c.prefix+"/"+endpoint), token, form)
	if err != nil {
		return nil, err
	}
	return c.checkEnvelope(body)
}

// checkEnvelope maps a non-success envelope to a ClientError and returns the
// data member.
func (c *APIClient) checkEnvelope(body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &domain.ClientError{Source: c.source, Message: "decode response envelope", Err: err}
	}
	if env.Status != statusSuccess {
		ce := &domain.ClientError{Source: c.source, Message: "status " + env.Status}
		if env.Error != nil {
			ce.Code = env.Error.code()
			ce.Message = env.Error.Message
		}
		return nil, ce
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, &domain.ClientError{Source: c.source, Message: "response has no data"}
	}
	return env.Data, nil
}

// postForm sends a form-encoded POST and returns the body of a 200 response.
// Any other status or transport failure becomes a *domain.ClientError.
func postForm(ctx context.Context, hc *http.Client, source, fullURL, bearer string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, &domain.ClientError{Source: source, Message: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, &domain.ClientError{Source: source, Message: "http request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ClientError{Source: source, Message: "read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.ClientError{
			Source:  source,
			Code:    strconv.Itoa(resp.StatusCode),
			Message: truncate(string(body), 512),
		}
	}
	return body, nil
}

// pageCount reads the offer/all count. An absent count counts as zero.
func pageCount(n json.Number) (int64, error) {
	if n == "" {
		return 0, nil
	}
	return n.Int64()
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
