package order

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
)

// Description is the purchase-unit description shown to the payer.
const Description = "Custom Ravioli Stamps"

// Quote is the server-computed, chargeable price of one checkout attempt.
// Amounts are two-decimal strings that reconcile exactly:
// Subtotal - Discount == Total.
type Quote struct {
	OrderID         string `json:"orderID"`
	Subtotal        string `json:"subtotal"`
	Discount        string `json:"discount"`
	Total           string `json:"total"`
	Currency        string `json:"currency"`
	TotalQuantity   int    `json:"totalQuantity"`
	DiscountApplied bool   `json:"discountApplied"`
	ApproveURL      string `json:"approveUrl,omitempty"`
}

type CaptureResult struct {
	OrderID   string `json:"orderID"`
	Status    string `json:"status"`
	PayerName string `json:"payerName,omitempty"`
	CaptureID string `json:"captureID,omitempty"`
}

// Message is the confirmation shown after a completed capture.
func (r CaptureResult) Message() string {
	if r.PayerName == "" {
		return "Transaction completed!"
	}
	return fmt.Sprintf("Transaction completed by %s!", r.PayerName)
}

var (
	// ErrCaptureIncomplete means PayPal answered but did not complete the payment.
	ErrCaptureIncomplete = errors.New("capture not completed")
	ErrInvalidOrderID    = errors.New("invalid order id")
)

// ItemError is a validation failure on one submitted cart entry.
type ItemError struct {
	Index  int    `json:"index"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// CartError lists every invalid item in a submitted cart. It matches
// cart.ErrValidation, and cart.ErrEmptyCart when the cart had no items.
type CartError struct {
	Empty bool
	Items []ItemError
}

func (e *CartError) Error() string {
	if e.Empty {
		return cart.ErrEmptyCart.Error()
	}
	parts := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		parts = append(parts, fmt.Sprintf("item %d %s: %s", it.Index, it.Field, it.Reason))
	}
	return "invalid cart: " + strings.Join(parts, "; ")
}

func (e *CartError) Is(target error) bool {
	if target == cart.ErrValidation {
		return true
	}
	return e.Empty && target == cart.ErrEmptyCart
}
