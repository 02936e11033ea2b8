package coinmarketcap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

func TestGetPrice(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{
			name: "array form",
			body: `{"status":{"error_code":0,"error_message":null},"data":{"BTC":[{"quote":{"USD":{"price":64123.456789}}}]}}`,
			want: "64123.456789",
		},
		{
			name: "object form",
			body: `{"status":{"error_code":0},"data":{"BTC":{"quote":{"USD":{"price":"64000.1"}}}}}`,
			want: "64000.1",
		},
		{
			name:    "api error",
			body:    `{"status":{"error_code":1002,"error_message":"API key missing."}}`,
			wantErr: true,
		},
		{
			name:    "missing convert",
			body:    `{"status":{},"data":{"BTC":[{"quote":{"EUR":{"price":1}}}]}}`,
			wantErr: true,
		},
		{
			name:    "http 401",
			status:  http.StatusUnauthorized,
			body:    `{"status":{"error_code":1001,"error_message":"This API Key is invalid."}}`,
			wantErr: true,
		},
		{
			name:    "empty data",
			body:    `{"status":{},"data":{}}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/cryptocurrency/quotes/latest" {
					t.Errorf("path = %q", r.URL.Path)
				}
				if got := r.URL.Query().Get("symbol"); got != "BTC" {
					t.Errorf("symbol = %q, want BTC", got)
				}
				if got := r.Header.Get("X-CMC_PRO_API_KEY"); got != "key" {
					t.Errorf("api key header = %q, want key", got)
				}
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			price, err := NewClient(srv.URL, "key").GetPrice(context.Background(), "BTC", "USD")
			if tt.wantErr {
				var ce *domain.ClientError
				if !errors.As(err, &ce) {
					t.Fatalf("GetPrice error = %v, want *domain.ClientError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetPrice: %v", err)
			}
			if price.String() != tt.want {
				t.Errorf("GetPrice = %s, want %s", price, tt.want)
			}
		})
	}
}
