package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/paypal"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/pricing"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/projection"
)

// Provider is the payment provider as the service uses it.
type Provider interface {
	CreateOrder(ctx context.Context, req paypal.CreateOrderRequest) (paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string) (paypal.CaptureResponse, error)
}

// Service quotes and captures orders. It keeps no state between requests.
type Service struct {
	provider  Provider
	publisher events.Publisher
	catalog   Catalog
	policy    pricing.Policy
	logger    *zap.Logger
	now       func() time.Time
}

type Deps struct {
	Provider  Provider
	Publisher events.Publisher
	Catalog   Catalog
	Policy    pricing.Policy
	Logger    *zap.Logger
}

func NewService(d Deps) *Service {
	s := &Service{
		provider:  d.Provider,
		publisher: d.Publisher,
		catalog:   d.Catalog,
		policy:    d.Policy,
		logger:    d.Logger,
		now:       time.Now,
	}
	if s.publisher == nil {
		s.publisher = events.NoopPublisher{Logger: d.Logger}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.catalog.Default.IsZero() {
		s.catalog.Default = DefaultUnitPrice
	}
	return s
}

func (s *Service) Policy() pricing.Policy { return s.policy }

func (s *Service) Catalog() Catalog { return s.catalog }

// Quote validates a submitted cart, reprices it from the catalog and opens a
// provider order for the server total. The declared prices are never charged.
func (s *Service) Quote(ctx context.Context, items []cart.LineItem) (Quote, error) {
	priced, err := s.validateAndReprice(items)
	if err != nil {
		return Quote{}, err
	}

	sum := pricing.Calculate(cart.PricingLines(priced), s.policy)
	bd := sum.ProviderBreakdown()

	po, err := s.provider.CreateOrder(ctx, s.providerOrder(priced, bd))
	if err != nil {
		return Quote{}, fmt.Errorf("create provider order: %w", err)
	}

	q := Quote{
		OrderID:         po.ID,
		Subtotal:        pricing.Amount(bd.ItemTotal),
		Discount:        pricing.Amount(bd.Discount),
		Total:           pricing.Amount(bd.Total),
		Currency:        s.policy.Currency,
		TotalQuantity:   sum.TotalQuantity,
		DiscountApplied: sum.DiscountApplied,
		ApproveURL:      po.ApproveURL(),
	}

	s.logger.Info("order quoted",
		zap.String("order_id", q.OrderID),
		zap.String("total", q.Total),
		zap.Int("quantity", q.TotalQuantity),
		zap.String("correlation_id", middleware.GetCorrelationID(ctx)),
	)
	s.publishQuoted(ctx, q, priced)
	return q, nil
}

func (s *Service) validateAndReprice(items []cart.LineItem) ([]cart.LineItem, error) {
	if len(items) == 0 {
		return nil, &CartError{Empty: true}
	}

	var (
		cerr   CartError
		priced = make([]cart.LineItem, 0, len(items))
	)
	for i, it := range items {
		it = cart.Normalize(it)
		if err := cart.Validate(it); err != nil {
			var ve *cart.ValidationError
			if errors.As(err, &ve) {
				cerr.Items = append(cerr.Items, ItemError{Index: i, Field: ve.Field, Reason: ve.Reason})
				continue
			}
			return nil, err
		}

		catalogPrice := s.catalog.Price(it.ProductName)
		if !it.UnitPrice.Equal(catalogPrice) {
			s.logger.Warn("declared price differs from catalog",
				zap.Int("index", i),
				zap.String("product", it.ProductName),
				zap.String("declared", it.UnitPrice.String()),
				zap.String("catalog", catalogPrice.String()),
			)
		}
		it.UnitPrice = catalogPrice
		priced = append(priced, it)
	}
	if len(cerr.Items) > 0 {
		return nil, &cerr
	}
	return priced, nil
}

const maxProviderText = 127

func (s *Service) providerOrder(items []cart.LineItem, bd pricing.Breakdown) paypal.CreateOrderRequest {
	currency := s.policy.Currency
	money := func(v string) paypal.Money { return paypal.Money{CurrencyCode: currency, Value: v} }

	unit := paypal.PurchaseUnit{
		Description: Description,
		Amount: paypal.Amount{
			CurrencyCode: currency,
			Value:        pricing.Amount(bd.Total),
			Breakdown: &paypal.AmountBreakdown{
				ItemTotal: money(pricing.Amount(bd.ItemTotal)),
			},
		},
	}
	if bd.Discount.IsPositive() {
		d := money(pricing.Amount(bd.Discount))
		unit.Amount.Breakdown.Discount = &d
	}

	for _, it := range items {
		item := paypal.Item{
			Name:       truncate(fmt.Sprintf("%s (%s)", it.ProductName, it.Color), maxProviderText),
			UnitAmount: money(pricing.Amount(it.UnitPrice)),
			Quantity:   strconv.Itoa(it.Quantity),
			Category:   "PHYSICAL_GOODS",
		}
		if p := projection.PersonalizationSummary(it); p != projection.NoPersonalization {
			item.Description = truncate(p, maxProviderText)
		}
		unit.Items = append(unit.Items, item)
	}

	return paypal.CreateOrderRequest{
		Intent:        paypal.IntentCapture,
		PurchaseUnits: []paypal.PurchaseUnit{unit},
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// Capture finalises an approved order. It is never retried here; a failed
// capture is reported to the client, whose cart stays intact.
func (s *Service) Capture(ctx context.Context, orderID string) (CaptureResult, error) {
	if !paypal.ValidOrderID(orderID) {
		return CaptureResult{}, ErrInvalidOrderID
	}

	resp, err := s.provider.CaptureOrder(ctx, orderID)
	if err != nil {
		return CaptureResult{}, fmt.Errorf("capture provider order: %w", err)
	}

	res := CaptureResult{
		OrderID:   resp.ID,
		Status:    resp.Status,
		PayerName: resp.Payer.Name.GivenName,
	}
	if res.OrderID == "" {
		res.OrderID = orderID
	}
	capture, ok := resp.FirstCapture()
	if ok {
		res.CaptureID = capture.ID
	}
	if res.Status != paypal.StatusCompleted {
		s.logger.Warn("capture not completed", zap.String("order_id", orderID), zap.String("status", res.Status))
		return res, fmt.Errorf("%w: status %s", ErrCaptureIncomplete, res.Status)
	}

	s.logger.Info("order captured", zap.String("order_id", res.OrderID), zap.String("capture_id", res.CaptureID))
	meta := events.EventMeta{CorrelationID: middleware.GetCorrelationID(ctx), PartitionKey: res.OrderID}
	if err := s.publisher.PublishOrderCaptured(ctx, meta, events.OrderCapturedPayload{
		OrderID:   res.OrderID,
		CaptureID: res.CaptureID,
		Status:    res.Status,
		Amount:    capture.Amount.Value,
		Currency:  capture.Amount.CurrencyCode,
		Timestamp: s.now().UTC(),
	}); err != nil {
		s.logger.Warn("publish OrderCaptured failed", zap.String("order_id", res.OrderID), zap.Error(err))
	}
	return res, nil
}

// publishQuoted is best effort; the provider order already exists.
func (s *Service) publishQuoted(ctx context.Context, q Quote, items []cart.LineItem) {
	payload := events.OrderQuotedPayload{
		OrderID:         q.OrderID,
		TotalQuantity:   q.TotalQuantity,
		Subtotal:        q.Subtotal,
		Discount:        q.Discount,
		Total:           q.Total,
		Currency:        q.Currency,
		DiscountApplied: q.DiscountApplied,
		Timestamp:       s.now().UTC(),
	}
	for _, it := range items {
		payload.Lines = append(payload.Lines, events.QuotedLine{
			ProductName: it.ProductName,
			Color:       it.Color,
			Quantity:    it.Quantity,
			UnitPrice:   pricing.Amount(it.UnitPrice),
		})
	}
	meta := events.EventMeta{CorrelationID: middleware.GetCorrelationID(ctx), PartitionKey: q.OrderID}
	if err := s.publisher.PublishOrderQuoted(ctx, meta, payload); err != nil {
		s.logger.Warn("publish OrderQuoted failed", zap.String("order_id", q.OrderID), zap.Error(err))
	}
}
