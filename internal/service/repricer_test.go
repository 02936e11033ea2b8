package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alanyoungcy/offerbot/internal/domain"
	"github.com/alanyoungcy/offerbot/internal/notify"
	"github.com/alanyoungcy/offerbot/internal/provider"
)

type repricerFixture struct {
	offers   *memOfferStore
	history  *memHistoryStore
	client   *fakeClient
	notifier *fakeNotifier
	audit    *memAudit
	repricer *Repricer
}

func newRepricerFixture(t *testing.T, cfg RepricerConfig) *repricerFixture {
	t.Helper()
	f := &repricerFixture{
		offers:  &memOfferStore{},
		history: &memHistoryStore{},
		client: &fakeClient{
			provider: domain.ProviderNoones,
			offers:   map[string]domain.MarketOffer{},
			confirm:  true,
		},
		notifier: &fakeNotifier{},
		audit:    &memAudit{},
	}
	reg := provider.NewRegistry()
	reg.Register(f.client)

	configs := fakeConfigs{
		domain.ConfigAmountToIncreaseOffer:  dec("0.5"),
		domain.ConfigSearchPriceLowerMargin: dec("5"),
		domain.ConfigSearchPriceUpperMargin: dec("10"),
		domain.ConfigOwnerLastSeenMaxTime:   dec("30"),
	}
	f.repricer = NewRepricer(reg, f.offers, f.history, fakeOracle{price: dec("100")}, configs,
		f.notifier, f.audit, cfg, nil, testLogger())
	f.repricer.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func (f *repricerFixture) addInternal(id, price string) domain.Offer {
	live := domain.MarketOffer{
		OfferID:            id,
		Type:               domain.OfferTypeSell,
		Currency:           domain.CryptoBTC,
		ConversionCurrency: domain.FiatUSD,
		Price:              dec(price),
		PaymentMethod:      domain.PaymentBankTransfer,
	}
	f.client.offers[id] = live
	return f.offers.seed(live.ToOffer(domain.ProviderNoones, domain.OwnerInternal))
}

func TestImproveOfferUpdated(t *testing.T) {
	f := newRepricerFixture(t, RepricerConfig{})
	o := f.addInternal("own", "90")
	f.client.search = []domain.MarketOffer{mo("own", "90"), mo("x", "95"), mo("y", "98"), mo("z", "105")}

	got, err := f.repricer.ImproveOffer(context.Background(), o)
	if err != nil {
		t.Fatalf("ImproveOffer: %v", err)
	}
	if got != OutcomeUpdated {
		t.Fatalf("outcome = %q, want %q", got, OutcomeUpdated)
	}

	if len(f.client.updates) != 1 || !f.client.updates[0].price.Equal(dec("98.5")) {
		t.Fatalf("updates = %+v, want one at 98.5", f.client.updates)
	}

	p := f.client.params[0]
	if !p.MinPrice.Equal(dec("95")) || !p.MaxPrice.Equal(dec("110")) {
		t.Errorf("band = [%s, %s], want [95, 110]", p.MinPrice, p.MaxPrice)
	}
	if p.PaymentMethod != domain.PaymentBankTransfer {
		t.Errorf("payment method = %q, want %q", p.PaymentMethod, domain.PaymentBankTransfer)
	}

	comp, err := f.offers.Get(context.Background(), domain.ProviderNoones, "y")
	if err != nil {
		t.Fatalf("competitor not persisted: %v", err)
	}
	if comp.OwnerType != domain.OwnerCompetitor {
		t.Errorf("competitor owner = %q", comp.OwnerType)
	}

	if len(f.history.records) != 1 {
		t.Fatalf("history records = %d, want 1", len(f.history.records))
	}
	h := f.history.records[0]
	if h.OfferID != o.ID || h.CompetitorOfferID != comp.ID {
		t.Errorf("history refs = (%d, %d), want (%d, %d)", h.OfferID, h.CompetitorOfferID, o.ID, comp.ID)
	}
	if !h.OriginalPrice.Equal(dec("90")) || !h.UpdatedPrice.Equal(dec("98.5")) || !h.CompetitorPrice.Equal(dec("98")) {
		t.Errorf("history prices = %s/%s/%s", h.OriginalPrice, h.UpdatedPrice, h.CompetitorPrice)
	}
	if f.notifier.count(notify.EventOfferRepriced) != 1 {
		t.Errorf("repriced notifications = %d, want 1", f.notifier.count(notify.EventOfferRepriced))
	}
}

func TestImproveOfferReusesTrackedCompetitor(t *testing.T) {
	f := newRepricerFixture(t, RepricerConfig{})
	o := f.addInternal("own", "90")
	existing := f.offers.seed(mo("y", "98").ToOffer(domain.ProviderNoones, domain.OwnerCompetitor))
	f.client.search = []domain.MarketOffer{mo("y", "98")}

	if _, err := f.repricer.ImproveOffer(context.Background(), o); err != nil {
		t.Fatalf("ImproveOffer: %v", err)
	}
	if got := f.history.records[0].CompetitorOfferID; got != existing.ID {
		t.Errorf("competitor id = %d, want %d", got, existing.ID)
	}
}

func TestImproveOfferUnchanged(t *testing.T) {
	f := newRepricerFixture(t, RepricerConfig{})
	o := f.addInternal("own", "98.5")
	f.client.search = []domain.MarketOffer{mo("y", "98")}

	got, err := f.repricer.ImproveOffer(context.Background(), o)
	if err != nil {
		t.Fatalf("ImproveOffer: %v", err)
	}
	if got != OutcomeUnchanged {
		t.Errorf("outcome = %q, want %q", got, OutcomeUnchanged)
	}
	if len(f.client.updates) != 0 || len(f.history.records) != 0 {
		t.Errorf("updates=%d history=%d, want none", len(f.client.updates), len(f.history.records))
	}
}

func TestImproveOfferNotConfirmed(t *testing.T) {
	f := newRepricerFixture(t, RepricerConfig{})
	o := f.addInternal("own", "90")
	f.client.search = []domain.MarketOffer{mo("y", "98")}
	f.client.confirm = false

	got, err := f.repricer.ImproveOffer(context.Background(), o)
	if err != nil {
		t.Fatalf("ImproveOffer: %v", err)
	}
	if got != OutcomeNotConfirmed {
		t.Errorf("outcome = %q, want %q", got, OutcomeNotConfirmed)
	}
	if len(f.history.records) != 0 {
		t.Errorf("history records = %d, want 0", len(f.history.records))
	}
	if _, err := f.offers.Get(context.Background(), domain.ProviderNoones, "y"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("competitor persisted on unconfirmed update")
	}
}

func TestImproveOfferNoCompetitor(t *testing.T) {
	f := newRepricerFixture(t, RepricerConfig{})
	o := f.addInternal("own", "90")
	f.client.search = []domain.MarketOffer{mo("own", "90")}

	got, err := f.repricer.ImproveOffer(context.Background(), o)
	if err != nil {
		t.Fatalf("ImproveOffer: %v", err)
	}
	if got != OutcomeNoCompetitor {
		t.Errorf("outcome = %q, want %q", got, OutcomeNoCompetitor)
	}
	if len(f.client.updates) != 0 {
		t.Errorf("updates = %d, want 0", len(f.client.updates))
	}
}

func TestImproveOfferBankRelaxation(t *testing.T) {
	f := newRepricerFixture(t, RepricerConfig{SearchAllBankPaymentMethods: true})
	o := f.addInternal("own", "90")
	paypal := mo("pp", "99")
	paypal.PaymentMethod = "paypal"
	f.client.search = []domain.MarketOffer{paypal, mo("bank", "97")}

	if _, err := f.repricer.ImproveOffer(context.Background(), o); err != nil {
		t.Fatalf("ImproveOffer: %v", err)
	}
	if f.client.params[0].PaymentMethod != "" {
		t.Errorf("payment method filter = %q, want empty", f.client.params[0].PaymentMethod)
	}
	if !f.client.updates[0].price.Equal(dec("97.5")) {
		t.Errorf("price = %s, want 97.5", f.client.updates[0].price)
	}
}

func TestImproveOfferMissingConfig(t *testing.T) {
	f := newRepricerFixture(t, RepricerConfig{})
	f.repricer.configs = fakeConfigs{}
	o := f.addInternal("own", "90")

	_, err := f.repricer.ImproveOffer(context.Background(), o)
	if !errors.Is(err, domain.ErrConfigNotFound) {
		t.Fatalf("err = %v, want ErrConfigNotFound", err)
	}
}

func TestImproveAllActiveOffersContinuesAfterFailure(t *testing.T) {
	f := newRepricerFixture(t, RepricerConfig{})
	f.addInternal("a", "90")
	f.addInternal("b", "90")
	f.addInternal("c", "90")
	f.client.getErr = map[string]error{"b": &domain.ClientError{Source: "fake", Code: "500", Message: "boom"}}
	f.client.search = []domain.MarketOffer{mo("y", "98")}

	inactive := f.addInternal("d", "90")
	if _, err := f.offers.UpdateStatus(context.Background(), inactive.Provider, inactive.OfferID, domain.OfferStatusInactive); err != nil {
		t.Fatal(err)
	}

	if err := f.repricer.ImproveAllActiveOffers(context.Background(), domain.ProviderNoones); err != nil {
		t.Fatalf("ImproveAllActiveOffers: %v", err)
	}

	if len(f.client.updates) != 2 {
		t.Fatalf("updates = %d, want 2", len(f.client.updates))
	}
	if f.client.updates[0].offerID != "a" || f.client.updates[1].offerID != "c" {
		t.Errorf("update order = %q, %q; want a, c", f.client.updates[0].offerID, f.client.updates[1].offerID)
	}
	if n := f.notifier.count(notify.EventRepricerError); n != 1 {
		t.Errorf("error notifications = %d, want 1", n)
	}
	if len(f.history.records) != 2 {
		t.Errorf("history records = %d, want 2", len(f.history.records))
	}
}

func TestImproveAllActiveOffersListError(t *testing.T) {
	f := newRepricerFixture(t, RepricerConfig{})
	f.offers.listErr = errors.New("db down")

	if err := f.repricer.ImproveAllActiveOffers(context.Background(), domain.ProviderNoones); err == nil {
		t.Fatal("expected list error")
	}
}

func TestImproveOfferUnknownProvider(t *testing.T) {
	f := newRepricerFixture(t, RepricerConfig{})
	o := domain.Offer{OfferID: "x", Provider: domain.ProviderPaxful}

	if _, err := f.repricer.ImproveOffer(context.Background(), o); !errors.Is(err, domain.ErrNotSupported) {
		t.Fatalf("err = %v, want ErrNotSupported", err)
	}
}
