package events

import "time"

type QuotedLine struct {
	ProductName string `json:"productName"`
	Color       string `json:"color"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
}

// OrderQuotedPayload records a provider order opened for a server-priced cart.
type OrderQuotedPayload struct {
	OrderID         string       `json:"orderId"`
	Lines           []QuotedLine `json:"lines"`
	TotalQuantity   int          `json:"totalQuantity"`
	Subtotal        string       `json:"subtotal"`
	Discount        string       `json:"discount"`
	Total           string       `json:"total"`
	Currency        string       `json:"currency"`
	DiscountApplied bool         `json:"discountApplied"`
	Timestamp       time.Time    `json:"timestamp"`
}

// OrderCapturedPayload records a completed payment capture.
type OrderCapturedPayload struct {
	OrderID   string    `json:"orderId"`
	CaptureID string    `json:"captureId,omitempty"`
	Status    string    `json:"status"`
	Amount    string    `json:"amount,omitempty"`
	Currency  string    `json:"currency,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	orderQuotedSchema   = "storefront/order-quoted/v1"
	orderCapturedSchema = "storefront/order-captured/v1"
)
