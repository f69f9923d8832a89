package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/paypal"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/pricing"
)

const maxBodyBytes = 1 << 20

// OrderService is the server-side checkout the handlers expose.
type OrderService interface {
	Quote(ctx context.Context, items []cart.LineItem) (order.Quote, error)
	Capture(ctx context.Context, orderID string) (order.CaptureResult, error)
	Policy() pricing.Policy
	Catalog() order.Catalog
}

type Handler struct {
	orders  OrderService
	logger  *zap.Logger
	timeout time.Duration
}

func NewHandler(orders OrderService, logger *zap.Logger, timeout time.Duration) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Handler{orders: orders, logger: logger, timeout: timeout}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) PricingPolicy(w http.ResponseWriter, r *http.Request) {
	p := h.orders.Policy()
	writeJSON(w, http.StatusOK, pricingPolicyResponse{
		DiscountThresholdQuantity: p.DiscountThreshold,
		DiscountRate:              p.DiscountRate.String(),
		DiscountPercent:           p.DiscountPercent(),
		CurrencyCode:              p.Currency,
		DefaultUnitPrice:          pricing.Amount(h.orders.Catalog().Default),
	})
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	items, itemErrs := toLineItems(req.Cart)
	if len(itemErrs) > 0 {
		h.writeError(w, r, http.StatusBadRequest, "invalid cart", itemErrs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q, err := h.orders.Quote(ctx, items)
	if err != nil {
		h.fail(w, r, "create order", err)
		return
	}
	writeJSON(w, http.StatusOK, createOrderResponse{OrderID: q.OrderID, Quote: q})
}

func (h *Handler) CaptureOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.orders.Capture(ctx, orderID)
	if errors.Is(err, order.ErrCaptureIncomplete) {
		writeJSON(w, http.StatusUnprocessableEntity, res)
		return
	}
	if err != nil {
		h.fail(w, r, "capture order", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// fail maps service errors onto HTTP statuses.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		cerr   *order.CartError
		apiErr *paypal.APIError
	)
	fromProvider := errors.As(err, &apiErr)
	switch {
	case errors.As(err, &cerr):
		msg := "invalid cart"
		if cerr.Empty {
			msg = "cart is empty"
		}
		h.writeError(w, r, http.StatusBadRequest, msg, cerr.Items)
		return
	case errors.Is(err, order.ErrInvalidOrderID):
		h.writeError(w, r, http.StatusBadRequest, "invalid order id", nil)
		return
	case paypal.IsTimeout(err):
		h.logger.Warn(op+" timed out", zap.Error(err), zap.String("correlation_id", middleware.GetCorrelationID(r.Context())))
		h.writeError(w, r, http.StatusGatewayTimeout, "payment provider timed out", nil)
		return
	case fromProvider && apiErr.StatusCode == http.StatusUnprocessableEntity:
		h.logger.Warn(op+" rejected by provider", zap.Error(err))
		h.writeError(w, r, http.StatusUnprocessableEntity, "payment was not accepted", nil)
		return
	case fromProvider, paypal.IsUnavailable(err), isTransport(err):
		h.logger.Error(op+" failed at provider", zap.Error(err), zap.String("correlation_id", middleware.GetCorrelationID(r.Context())))
		h.writeError(w, r, http.StatusBadGateway, "payment provider error", nil)
		return
	}

	h.logger.Error(op+" failed", zap.Error(err), zap.String("correlation_id", middleware.GetCorrelationID(r.Context())))
	h.writeError(w, r, http.StatusInternalServerError, "internal error", nil)
}

func isTransport(err error) bool {
	var te *paypal.TransportError
	return errors.As(err, &te)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, msg string, details []order.ItemError) {
	writeJSON(w, status, errorResponse{
		Error:         msg,
		Details:       details,
		CorrelationID: middleware.GetCorrelationID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
