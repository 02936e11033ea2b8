// Package metrics exposes Prometheus counters for repricing, token upkeep,
// market prices and the HTTP API. All Record methods are safe on a nil
// *Metrics so components can run without instrumentation.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Metrics holds every collector the engine reports.
type Metrics struct {
	gatherer prometheus.Gatherer

	RepricesTotal       *prometheus.CounterVec
	RepriceErrorsTotal  *prometheus.CounterVec
	BatchDuration       *prometheus.HistogramVec
	TokenMaintainTotal  *prometheus.CounterVec
	MarketPrice         *prometheus.GaugeVec
	PriceLookupsTotal   *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	ArchivedRecordTotal prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: g,

		RepricesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "offerbot_reprice_outcomes_total",
				Help: "Offers processed by the repricer, by outcome",
			},
			[]string{"provider", "outcome"},
		),
		RepriceErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "offerbot_reprice_errors_total",
				Help: "Offers whose reprice failed with an error",
			},
			[]string{"provider"},
		),
		BatchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "offerbot_reprice_batch_duration_seconds",
				Help:    "Duration of one improve-all-offers batch",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			},
			[]string{"provider"},
		),
		TokenMaintainTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "offerbot_token_maintain_total",
				Help: "Token maintenance runs, by action taken",
			},
			[]string{"provider", "action"},
		),
		MarketPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "offerbot_market_price",
				Help: "Last market price fetched from the price oracle",
			},
			[]string{"crypto", "fiat"},
		),
		PriceLookupsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "offerbot_price_lookups_total",
				Help: "Market price lookups, by cache result",
			},
			[]string{"result"},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "offerbot_http_requests_total",
				Help: "HTTP API requests, by method and status code",
			},
			[]string{"method", "status"},
		),
		ArchivedRecordTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "offerbot_history_archived_total",
				Help: "Offer history records exported to object storage",
			},
		),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordReprice counts one processed offer.
func (m *Metrics) RecordReprice(provider, outcome string) {
	if m == nil {
		return
	}
	m.RepricesTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordRepriceError counts one failed offer.
func (m *Metrics) RecordRepriceError(provider string) {
	if m == nil {
		return
	}
	m.RepriceErrorsTotal.WithLabelValues(provider).Inc()
}

// ObserveBatch records the duration of a batch in seconds.
func (m *Metrics) ObserveBatch(provider string, seconds float64) {
	if m == nil {
		return
	}
	m.BatchDuration.WithLabelValues(provider).Observe(seconds)
}

// RecordTokenMaintain counts one maintenance decision.
func (m *Metrics) RecordTokenMaintain(provider, action string) {
	if m == nil {
		return
	}
	m.TokenMaintainTotal.WithLabelValues(provider, action).Inc()
}

// SetMarketPrice publishes the latest oracle price.
func (m *Metrics) SetMarketPrice(crypto, fiat string, price decimal.Decimal) {
	if m == nil {
		return
	}
	m.MarketPrice.WithLabelValues(crypto, fiat).Set(price.InexactFloat64())
}

// RecordPriceLookup counts a price lookup as "hit" or "miss".
func (m *Metrics) RecordPriceLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.PriceLookupsTotal.WithLabelValues(result).Inc()
}

// RecordHTTPRequest counts one API request.
func (m *Metrics) RecordHTTPRequest(method string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// AddArchived counts exported history records.
func (m *Metrics) AddArchived(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.ArchivedRecordTotal.Add(float64(n))
}
