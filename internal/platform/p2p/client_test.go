package p2p

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

func staticToken(tok string) TokenFunc {
	return func(context.Context) (string, error) { return tok, nil }
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetAllOffersPagination(t *testing.T) {
	var offsets []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/noones/v1/offer/all" {
			t.Errorf("path = %q, want /noones/v1/offer/all", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer tok")
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if got := r.PostForm.Get("limit"); got != "2" {
			t.Errorf("limit = %q, want 2", got)
		}
		if got := r.PostForm.Get("fiat_fixed_price_min"); got != "95.5" {
			t.Errorf("fiat_fixed_price_min = %q, want 95.5", got)
		}
		if _, ok := r.PostForm["payment_method"]; ok {
			t.Error("payment_method sent although empty")
		}
		offset := r.PostForm.Get("offset")
		offsets = append(offsets, offset)

		switch offset {
		case "0":
			fmt.Fprint(w, `{"status":"success","data":{"offers":[{"offer_id":"a"},{"offer_id":"b"}],"count":2}}`)
		case "2":
			fmt.Fprint(w, `{"status":"success","data":{"offers":[{"offer_id":"c"}],"count":1}}`)
		default:
			fmt.Fprint(w, `{"status":"success","data":{"offers":[],"count":0}}`)
		}
	}))
	defer srv.Close()

	lo := decimal.RequireFromString("95.5")
	c := NewAPIClient("noones", srv.URL+"/", "noones/v1", 2, staticToken("tok"), discardLogger())
	offers, err := c.GetAllOffers(context.Background(), SearchRequest{
		Type:               "sell",
		CurrencyCode:       "USD",
		CryptoCurrencyCode: "BTC",
		UserCountry:        "WORLDWIDE",
		FiatFixedPriceMin:  &lo,
	})
	if err != nil {
		t.Fatalf("GetAllOffers: %v", err)
	}
	if len(offers) != 3 {
		t.Errorf("got %d offers, want 3", len(offers))
	}
	if want := []string{"0", "2", "4"}; fmt.Sprint(offsets) != fmt.Sprint(want) {
		t.Errorf("offsets = %v, want %v", offsets, want)
	}
}

func TestEnvelopeErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
	}{
		{"api error", 200, `{"status":"error","error":{"code":1001,"message":"bad hash"}}`, "1001"},
		{"string code", 200, `{"status":"error","error":{"code":"E_AUTH","message":"expired"}}`, "E_AUTH"},
		{"http status", 503, `upstream down`, "503"},
		{"no data", 200, `{"status":"success"}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			c := NewAPIClient("paxful", srv.URL, "paxful/v1", 0, staticToken("tok"), discardLogger())
			_, err := c.GetOffer(context.Background(), "hash")

			var ce *domain.ClientError
			if !errors.As(err, &ce) {
				t.Fatalf("GetOffer error = %v, want *domain.ClientError", err)
			}
			if ce.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", ce.Code, tt.wantCode)
			}
		})
	}
}

func TestUpdateOfferPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if got := r.PostForm.Get("fixed_price"); got != "101.25" {
			t.Errorf("fixed_price = %q, want 101.25", got)
		}
		if got := r.PostForm.Get("offer_hash"); got != "h1" {
			t.Errorf("offer_hash = %q, want h1", got)
		}
		fmt.Fprint(w, `{"status":"success","data":{"success":false}}`)
	}))
	defer srv.Close()

	c := NewAPIClient("noones", srv.URL, "noones/v1", 0, staticToken("tok"), discardLogger())
	res, err := c.UpdateOfferPrice(context.Background(), "h1", "101.25")
	if err != nil {
		t.Fatalf("UpdateOfferPrice: %v", err)
	}
	if res.Success {
		t.Error("Success = true, want false")
	}
}

func TestTokenFuncError(t *testing.T) {
	c := NewAPIClient("noones", "http://127.0.0.1:0", "noones/v1", 0,
		func(context.Context) (string, error) { return "", domain.ErrNoActiveToken }, discardLogger())

	_, err := c.GetOffer(context.Background(), "h1")
	if !errors.Is(err, domain.ErrNoActiveToken) {
		t.Errorf("GetOffer error = %v, want ErrNoActiveToken", err)
	}
}

func TestCreateToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth2/token" {
			t.Errorf("path = %q, want /oauth2/token", r.URL.Path)
		}
		_ = r.ParseForm()
		if got := r.PostForm.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.PostForm.Get("client_id"); got != "id" {
			t.Errorf("client_id = %q", got)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("token request carries an Authorization header")
		}
		fmt.Fprint(w, `{"access_token":"abc","expires_in":3600,"token_type":"Bearer"}`)
	}))
	defer srv.Close()

	a := NewAuthClient("noones", srv.URL, "id", "secret")
	resp, err := a.CreateToken(context.Background())
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	if resp.AccessToken == nil || *resp.AccessToken != "abc" {
		t.Errorf("AccessToken = %v, want abc", resp.AccessToken)
	}
	if resp.ExpiresIn == nil || *resp.ExpiresIn != 3600 {
		t.Errorf("ExpiresIn = %v, want 3600", resp.ExpiresIn)
	}
}
