package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/offerbot/internal/domain"
	"github.com/alanyoungcy/offerbot/internal/provider"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// --- stores ---

type memOfferStore struct {
	mu      sync.Mutex
	offers  []domain.Offer
	nextID  int64
	listErr error
}

func (s *memOfferStore) Create(_ context.Context, o domain.Offer) (domain.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.offers {
		if e.Provider == o.Provider && e.OfferID == o.OfferID {
			return domain.Offer{}, domain.ErrAlreadyExists
		}
	}
	s.nextID++
	o.ID = s.nextID
	s.offers = append(s.offers, o)
	return o, nil
}

func (s *memOfferStore) Get(_ context.Context, p domain.Provider, offerID string) (domain.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.offers {
		if e.Provider == p && e.OfferID == offerID {
			return e, nil
		}
	}
	return domain.Offer{}, domain.ErrNotFound
}

func (s *memOfferStore) Exists(ctx context.Context, p domain.Provider, offerID string) (bool, error) {
	_, err := s.Get(ctx, p, offerID)
	return err == nil, nil
}

func (s *memOfferStore) List(_ context.Context, f domain.OfferFilter) ([]domain.Offer, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Offer
	for _, e := range s.offers {
		if f.OwnerType != "" && e.OwnerType != f.OwnerType {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.Provider != "" && e.Provider != f.Provider {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memOfferStore) UpdateStatus(_ context.Context, p domain.Provider, offerID string, st domain.OfferStatus) (domain.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.offers {
		if e.Provider == p && e.OfferID == offerID {
			s.offers[i].Status = st
			return s.offers[i], nil
		}
	}
	return domain.Offer{}, domain.ErrNotFound
}

func (s *memOfferStore) seed(o domain.Offer) domain.Offer {
	o, _ = s.Create(context.Background(), o)
	return o
}

type memHistoryStore struct {
	mu      sync.Mutex
	records []domain.OfferHistory
}

func (s *memHistoryStore) Create(_ context.Context, h domain.OfferHistory) (domain.OfferHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h.ID = int64(len(s.records) + 1)
	s.records = append(s.records, h)
	return h, nil
}

func (s *memHistoryStore) ListByOffer(_ context.Context, offerID int64, _ domain.ListOpts) ([]domain.OfferHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.OfferHistory
	for _, h := range s.records {
		if h.OfferID == offerID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *memHistoryStore) ListBefore(context.Context, time.Time, int) ([]domain.OfferHistory, error) {
	return nil, nil
}

func (s *memHistoryStore) MarkArchived(context.Context, []int64) (int64, error) {
	return 0, nil
}

type memTokenStore struct {
	tokens []domain.AuthenticationToken
}

func (s *memTokenStore) Create(_ context.Context, t domain.AuthenticationToken) (domain.AuthenticationToken, error) {
	t.ID = int64(len(s.tokens) + 1)
	s.tokens = append(s.tokens, t)
	return t, nil
}

func (s *memTokenStore) LatestActive(_ context.Context, p domain.Provider) (domain.AuthenticationToken, error) {
	for i := len(s.tokens) - 1; i >= 0; i-- {
		t := s.tokens[i]
		if t.Provider == p && t.Status == domain.TokenStatusActive {
			return t, nil
		}
	}
	return domain.AuthenticationToken{}, domain.ErrNotFound
}

func (s *memTokenStore) Deactivate(_ context.Context, id int64) error {
	for i := range s.tokens {
		if s.tokens[i].ID == id {
			s.tokens[i].Status = domain.TokenStatusInactive
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *memTokenStore) active(p domain.Provider) int {
	n := 0
	for _, t := range s.tokens {
		if t.Provider == p && t.Status == domain.TokenStatusActive {
			n++
		}
	}
	return n
}

type memConfigStore struct {
	configs map[string]domain.CurrencyConfig
}

func configKey(p domain.Provider, c domain.CryptoCurrency, name string) string {
	return fmt.Sprintf("%s/%s/%s", p, c, name)
}

func (s *memConfigStore) Upsert(_ context.Context, cfg domain.CurrencyConfig) (domain.CurrencyConfig, error) {
	if s.configs == nil {
		s.configs = make(map[string]domain.CurrencyConfig)
	}
	k := configKey(cfg.Provider, cfg.Currency, cfg.Name)
	if prev, ok := s.configs[k]; ok {
		cfg.ID = prev.ID
	} else {
		cfg.ID = int64(len(s.configs) + 1)
	}
	s.configs[k] = cfg
	return cfg, nil
}

func (s *memConfigStore) Get(_ context.Context, p domain.Provider, c domain.CryptoCurrency, name string) (domain.CurrencyConfig, error) {
	cfg, ok := s.configs[configKey(p, c, name)]
	if !ok {
		return domain.CurrencyConfig{}, domain.ErrNotFound
	}
	return cfg, nil
}

func (s *memConfigStore) List(context.Context) ([]domain.CurrencyConfig, error) {
	out := make([]domain.CurrencyConfig, 0, len(s.configs))
	for _, c := range s.configs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memAudit struct {
	events []string
}

func (a *memAudit) Log(_ context.Context, event string, _ map[string]any) error {
	a.events = append(a.events, event)
	return nil
}

func (a *memAudit) List(context.Context, domain.AuditFilter) ([]domain.AuditEntry, error) {
	return nil, nil
}

// --- caches ---

type memTokenCache struct {
	tokens map[domain.Provider]string
	sets   int
}

func (c *memTokenCache) SetToken(_ context.Context, p domain.Provider, tok string) error {
	if c.tokens == nil {
		c.tokens = make(map[domain.Provider]string)
	}
	c.tokens[p] = tok
	c.sets++
	return nil
}

func (c *memTokenCache) GetToken(_ context.Context, p domain.Provider) (string, error) {
	tok, ok := c.tokens[p]
	if !ok {
		return "", domain.ErrNotFound
	}
	return tok, nil
}

type memPriceCache struct {
	prices map[string]decimal.Decimal
}

func (c *memPriceCache) SetPrice(_ context.Context, cr domain.CryptoCurrency, f domain.FiatCurrency, p decimal.Decimal) error {
	if c.prices == nil {
		c.prices = make(map[string]decimal.Decimal)
	}
	c.prices[string(cr)+"/"+string(f)] = p
	return nil
}

func (c *memPriceCache) GetPrice(_ context.Context, cr domain.CryptoCurrency, f domain.FiatCurrency) (decimal.Decimal, error) {
	p, ok := c.prices[string(cr)+"/"+string(f)]
	if !ok {
		return decimal.Zero, domain.ErrNotFound
	}
	return p, nil
}

type memConfigCache struct {
	values map[string]string
}

func (c *memConfigCache) SetConfig(_ context.Context, p domain.Provider, cr domain.CryptoCurrency, name, value string) error {
	if c.values == nil {
		c.values = make(map[string]string)
	}
	c.values[configKey(p, cr, name)] = value
	return nil
}

func (c *memConfigCache) GetConfig(_ context.Context, p domain.Provider, cr domain.CryptoCurrency, name string) (string, error) {
	v, ok := c.values[configKey(p, cr, name)]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

type fakeLocks struct {
	held map[string]bool
}

func (l *fakeLocks) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	if l.held == nil {
		l.held = make(map[string]bool)
	}
	if l.held[key] {
		return nil, domain.ErrLockHeld
	}
	l.held[key] = true
	return func() { delete(l.held, key) }, nil
}

// --- providers ---

type priceUpdate struct {
	offerID string
	price   decimal.Decimal
}

type fakeClient struct {
	provider  domain.Provider
	offers    map[string]domain.MarketOffer
	getErr    map[string]error
	search    []domain.MarketOffer
	searchErr error
	confirm   bool
	params    []domain.OfferSearchParameters
	updates   []priceUpdate
}

func (c *fakeClient) GetOffer(_ context.Context, offerID string) (domain.MarketOffer, error) {
	if err := c.getErr[offerID]; err != nil {
		return domain.MarketOffer{}, err
	}
	o, ok := c.offers[offerID]
	if !ok {
		return domain.MarketOffer{}, &domain.ClientError{Source: "fake", Code: "404", Message: "offer not found"}
	}
	return o, nil
}

func (c *fakeClient) GetAllOffers(_ context.Context, p domain.OfferSearchParameters) ([]domain.MarketOffer, error) {
	c.params = append(c.params, p)
	return c.search, c.searchErr
}

func (c *fakeClient) UpdateOfferPrice(_ context.Context, offerID string, price decimal.Decimal) (bool, error) {
	c.updates = append(c.updates, priceUpdate{offerID: offerID, price: price})
	return c.confirm, nil
}

func (c *fakeClient) Provider() domain.Provider { return c.provider }

type fakeIssuer struct {
	provider domain.Provider
	token    domain.IssuedToken
	err      error
	calls    int
}

func (i *fakeIssuer) IssueToken(context.Context) (domain.IssuedToken, error) {
	i.calls++
	return i.token, i.err
}

func (i *fakeIssuer) Provider() domain.Provider { return i.provider }

var (
	_ provider.Client      = (*fakeClient)(nil)
	_ provider.TokenIssuer = (*fakeIssuer)(nil)
)

// --- collaborators ---

type fakeOracle struct {
	price decimal.Decimal
	err   error
}

func (o fakeOracle) GetPrice(context.Context, domain.CryptoCurrency, domain.FiatCurrency) (decimal.Decimal, error) {
	return o.price, o.err
}

type fakeConfigs map[string]decimal.Decimal

func (f fakeConfigs) GetDecimal(_ context.Context, _ domain.Provider, _ domain.CryptoCurrency, name string) (decimal.Decimal, error) {
	v, ok := f[name]
	if !ok {
		return decimal.Zero, domain.ErrConfigNotFound
	}
	return v, nil
}

type sentNote struct {
	event, title, message string
}

type fakeNotifier struct {
	sent []sentNote
}

func (n *fakeNotifier) Notify(_ context.Context, event, title, message string) error {
	n.sent = append(n.sent, sentNote{event, title, message})
	return nil
}

func (n *fakeNotifier) count(event string) int {
	c := 0
	for _, s := range n.sent {
		if s.event == event {
			c++
		}
	}
	return c
}

type fakeQuoter struct {
	price decimal.Decimal
	err   error
	calls int
}

func (q *fakeQuoter) GetPrice(context.Context, string, string) (decimal.Decimal, error) {
	q.calls++
	return q.price, q.err
}
