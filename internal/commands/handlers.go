// Package commands holds the explicit UI command handlers. Surfaces call
// these with raw user input; the handlers parse it and drive the cart store.
package commands

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
)

// InvalidQuantityMessage is shown when a quantity field cannot be used.
const InvalidQuantityMessage = "Please enter a valid quantity (1–999)."

// ErrInvalidQuantityInput is returned for quantity text that is not a whole
// number in range.
var ErrInvalidQuantityInput = errors.New(InvalidQuantityMessage)

// CartStore is the subset of *cart.Store the handlers drive.
type CartStore interface {
	Add(ctx context.Context, item cart.LineItem) (cart.Snapshot, error)
	AdjustQuantity(ctx context.Context, key cart.IdentityKey, delta int) (cart.Snapshot, error)
	SetQuantity(ctx context.Context, key cart.IdentityKey, value int) (cart.Snapshot, error)
	Remove(ctx context.Context, key cart.IdentityKey) (cart.Snapshot, error)
	Clear(ctx context.Context) (cart.Snapshot, error)
}

// AddForm is the product configuration form as the user filled it in.
type AddForm struct {
	ProductName string
	Color       string
	TopLine     string
	BottomLine  string
	Dedication  string
	Quantity    string
}

type Handlers struct {
	store     CartStore
	unitPrice decimal.Decimal
	logger    *zap.Logger
}

// New returns handlers that price new items at unitPrice.
func New(store CartStore, unitPrice decimal.Decimal, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{store: store, unitPrice: unitPrice, logger: logger}
}

// OnAdd adds the configured product. An empty quantity field means 1.
func (h *Handlers) OnAdd(ctx context.Context, form AddForm) (cart.Snapshot, error) {
	qty := 1
	if strings.TrimSpace(form.Quantity) != "" {
		q, err := ParseQuantity(form.Quantity)
		if err != nil {
			return cart.Snapshot{}, err
		}
		qty = q
	}

	snap, err := h.store.Add(ctx, cart.LineItem{
		ProductName: form.ProductName,
		Color:       form.Color,
		TopLine:     form.TopLine,
		BottomLine:  form.BottomLine,
		Dedication:  form.Dedication,
		UnitPrice:   h.unitPrice,
		Quantity:    qty,
	})
	h.log("add", err)
	return snap, err
}

// OnAdjust applies a +/- button press.
func (h *Handlers) OnAdjust(ctx context.Context, key cart.IdentityKey, delta int) (cart.Snapshot, error) {
	snap, err := h.store.AdjustQuantity(ctx, key, delta)
	h.log("adjust", err)
	return snap, err
}

// OnSetQuantity applies a typed quantity. Unparseable text never reaches the
// store, so the previous quantity stays visible.
func (h *Handlers) OnSetQuantity(ctx context.Context, key cart.IdentityKey, input string) (cart.Snapshot, error) {
	q, err := ParseQuantity(input)
	if err != nil {
		return cart.Snapshot{}, err
	}
	snap, err := h.store.SetQuantity(ctx, key, q)
	h.log("set", err)
	return snap, err
}

func (h *Handlers) OnRemove(ctx context.Context, key cart.IdentityKey) (cart.Snapshot, error) {
	snap, err := h.store.Remove(ctx, key)
	h.log("remove", err)
	return snap, err
}

func (h *Handlers) OnClear(ctx context.Context) (cart.Snapshot, error) {
	snap, err := h.store.Clear(ctx)
	h.log("clear", err)
	return snap, err
}

func (h *Handlers) log(cmd string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, cart.ErrValidation) || errors.Is(err, cart.ErrItemNotFound) {
		h.logger.Debug("command rejected", zap.String("command", cmd), zap.Error(err))
		return
	}
	h.logger.Error("command failed", zap.String("command", cmd), zap.Error(err))
}

// ParseQuantity accepts a whole number in [cart.MinQuantity, cart.MaxQuantity].
func ParseQuantity(input string) (int, error) {
	q, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || q < cart.MinQuantity || q > cart.MaxQuantity {
		return 0, ErrInvalidQuantityInput
	}
	return q, nil
}

// UserMessage turns a handler error into text for the user.
func UserMessage(err error) string {
	var ve *cart.ValidationError
	var pe *cart.PersistenceError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidQuantityInput):
		return InvalidQuantityMessage
	case errors.As(err, &ve) && ve.Field == "quantity":
		return InvalidQuantityMessage
	case errors.As(err, &ve):
		return ve.Error()
	case errors.Is(err, cart.ErrItemNotFound):
		return "That item is no longer in your cart."
	case errors.As(err, &pe):
		return "Your cart could not be saved. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
