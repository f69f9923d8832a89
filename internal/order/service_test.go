package order

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/paypal"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/pricing"
)

type fakeProvider struct {
	createFn  func(paypal.CreateOrderRequest) (paypal.Order, error)
	captureFn func(string) (paypal.CaptureResponse, error)

	created  []paypal.CreateOrderRequest
	captured []string
}

func (f *fakeProvider) CreateOrder(_ context.Context, req paypal.CreateOrderRequest) (paypal.Order, error) {
	f.created = append(f.created, req)
	if f.createFn != nil {
		return f.createFn(req)
	}
	return paypal.Order{ID: "ORDER1", Status: paypal.StatusCreated}, nil
}

func (f *fakeProvider) CaptureOrder(_ context.Context, id string) (paypal.CaptureResponse, error) {
	f.captured = append(f.captured, id)
	if f.captureFn != nil {
		return f.captureFn(id)
	}
	var resp paypal.CaptureResponse
	resp.ID = id
	resp.Status = paypal.StatusCompleted
	resp.Payer.Name.GivenName = "Ada"
	return resp, nil
}

type fakePublisher struct {
	quoted   []events.OrderQuotedPayload
	captured []events.OrderCapturedPayload
	err      error
}

func (f *fakePublisher) PublishOrderQuoted(_ context.Context, _ events.EventMeta, p events.OrderQuotedPayload) error {
	f.quoted = append(f.quoted, p)
	return f.err
}

func (f *fakePublisher) PublishOrderCaptured(_ context.Context, _ events.EventMeta, p events.OrderCapturedPayload) error {
	f.captured = append(f.captured, p)
	return f.err
}

func newService(p *fakeProvider, pub *fakePublisher) *Service {
	return NewService(Deps{
		Provider:  p,
		Publisher: pub,
		Catalog:   DefaultCatalog(),
		Policy:    pricing.DefaultPolicy(),
	})
}

func line(name string, qty int, price string) cart.LineItem {
	return cart.LineItem{ProductName: name, Color: "Black", UnitPrice: decimal.RequireFromString(price), Quantity: qty}
}

func TestQuote_BelowThreshold(t *testing.T) {
	p, pub := &fakeProvider{}, &fakePublisher{}
	q, err := newService(p, pub).Quote(context.Background(), []cart.LineItem{line("Square Stamp", 3, "14.99")})
	require.NoError(t, err)

	assert.Equal(t, Quote{
		OrderID:       "ORDER1",
		Subtotal:      "44.97",
		Discount:      "0.00",
		Total:         "44.97",
		Currency:      "GBP",
		TotalQuantity: 3,
	}, q)

	require.Len(t, p.created, 1)
	unit := p.created[0].PurchaseUnits[0]
	assert.Equal(t, paypal.IntentCapture, p.created[0].Intent)
	assert.Equal(t, Description, unit.Description)
	assert.Equal(t, "44.97", unit.Amount.Value)
	assert.Nil(t, unit.Amount.Breakdown.Discount)
	require.Len(t, unit.Items, 1)
	assert.Equal(t, "Square Stamp (Black)", unit.Items[0].Name)
	assert.Equal(t, "3", unit.Items[0].Quantity)

	require.Len(t, pub.quoted, 1)
	assert.Equal(t, "ORDER1", pub.quoted[0].OrderID)
}

func TestQuote_DiscountBreakdownReconciles(t *testing.T) {
	p := &fakeProvider{}
	q, err := newService(p, &fakePublisher{}).Quote(context.Background(), []cart.LineItem{line("Square Stamp", 5, "14.99")})
	require.NoError(t, err)

	assert.True(t, q.DiscountApplied)
	assert.Equal(t, "74.95", q.Subtotal)
	assert.Equal(t, "7.49", q.Discount)
	assert.Equal(t, "67.46", q.Total)

	bd := p.created[0].PurchaseUnits[0].Amount.Breakdown
	assert.Equal(t, "74.95", bd.ItemTotal.Value)
	require.NotNil(t, bd.Discount)
	assert.Equal(t, "7.49", bd.Discount.Value)
}

func TestQuote_ChargesCatalogPriceNotDeclaredPrice(t *testing.T) {
	p := &fakeProvider{}
	q, err := newService(p, &fakePublisher{}).Quote(context.Background(), []cart.LineItem{line("Square Stamp", 2, "0.01")})
	require.NoError(t, err)

	assert.Equal(t, "29.98", q.Total)
	assert.Equal(t, "14.99", p.created[0].PurchaseUnits[0].Items[0].UnitAmount.Value)
}

func TestQuote_CatalogOverride(t *testing.T) {
	cat, err := ParseCatalog("", "round stamp=10.00")
	require.NoError(t, err)
	svc := NewService(Deps{Provider: &fakeProvider{}, Catalog: cat, Policy: pricing.DefaultPolicy()})

	q, err := svc.Quote(context.Background(), []cart.LineItem{line("Round Stamp", 1, "14.99"), line("Square Stamp", 1, "14.99")})
	require.NoError(t, err)
	assert.Equal(t, "24.99", q.Total)
}

func TestQuote_InvalidItemsNeverReachProvider(t *testing.T) {
	p := &fakeProvider{}
	_, err := newService(p, &fakePublisher{}).Quote(context.Background(), []cart.LineItem{
		line("Good", 1, "14.99"),
		line("Bad", 0, "14.99"),
		line("", 1, "14.99"),
	})

	require.ErrorIs(t, err, cart.ErrValidation)
	var cerr *CartError
	require.ErrorAs(t, err, &cerr)
	require.Len(t, cerr.Items, 2)
	assert.Equal(t, ItemError{Index: 1, Field: "quantity", Reason: "must be between 1 and 999, got 0"}, cerr.Items[0])
	assert.Equal(t, 2, cerr.Items[1].Index)
	assert.Equal(t, "productName", cerr.Items[1].Field)
	assert.Empty(t, p.created)
}

func TestQuote_EmptyCart(t *testing.T) {
	p := &fakeProvider{}
	_, err := newService(p, &fakePublisher{}).Quote(context.Background(), nil)
	require.ErrorIs(t, err, cart.ErrEmptyCart)
	require.ErrorIs(t, err, cart.ErrValidation)
	assert.Empty(t, p.created)
}

func TestQuote_ProviderFailure(t *testing.T) {
	boom := &paypal.APIError{StatusCode: 500, Name: "INTERNAL_SERVER_ERROR"}
	p := &fakeProvider{createFn: func(paypal.CreateOrderRequest) (paypal.Order, error) { return paypal.Order{}, boom }}
	pub := &fakePublisher{}

	_, err := newService(p, pub).Quote(context.Background(), []cart.LineItem{line("Bob", 1, "14.99")})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, pub.quoted)
}

func TestQuote_PublishFailureDoesNotFailQuote(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	q, err := newService(&fakeProvider{}, pub).Quote(context.Background(), []cart.LineItem{line("Bob", 1, "14.99")})
	require.NoError(t, err)
	assert.Equal(t, "ORDER1", q.OrderID)
}

func TestCapture(t *testing.T) {
	p, pub := &fakeProvider{}, &fakePublisher{}
	res, err := newService(p, pub).Capture(context.Background(), "ORDER1")
	require.NoError(t, err)

	assert.Equal(t, CaptureResult{OrderID: "ORDER1", Status: "COMPLETED", PayerName: "Ada"}, res)
	assert.Equal(t, "Transaction completed by Ada!", res.Message())
	assert.Equal(t, []string{"ORDER1"}, p.captured)
	require.Len(t, pub.captured, 1)
}

func TestCapture_Incomplete(t *testing.T) {
	p := &fakeProvider{captureFn: func(id string) (paypal.CaptureResponse, error) {
		return paypal.CaptureResponse{ID: id, Status: "PENDING"}, nil
	}}
	pub := &fakePublisher{}

	res, err := newService(p, pub).Capture(context.Background(), "ORDER1")
	require.ErrorIs(t, err, ErrCaptureIncomplete)
	assert.Equal(t, "PENDING", res.Status)
	assert.Empty(t, pub.captured)
}

func TestCapture_InvalidOrderID(t *testing.T) {
	p := &fakeProvider{}
	_, err := newService(p, &fakePublisher{}).Capture(context.Background(), "../x")
	require.ErrorIs(t, err, ErrInvalidOrderID)
	assert.Empty(t, p.captured)
}

func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog("12.00", "Round Stamp=9.99, Mini=5")
	require.NoError(t, err)
	assert.Equal(t, "12.00", c.Price("unknown").StringFixed(2))
	assert.Equal(t, "9.99", c.Price("ROUND STAMP").StringFixed(2))
	assert.Equal(t, "5.00", c.Price("mini").StringFixed(2))

	for _, bad := range []string{"Round", "=1", "X=0", "X=1.005", "X=abc"} {
		_, err := ParseCatalog("", bad)
		assert.Error(t, err, bad)
	}
	_, err = ParseCatalog("-1", "")
	assert.Error(t, err)
}
