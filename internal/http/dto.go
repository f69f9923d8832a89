package httpapi

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
)

type createOrderRequest struct {
	Cart []cartItemDTO `json:"cart"`
}

// cartItemDTO keeps price and quantity raw so a wrong type becomes a
// per-item validation error instead of failing the whole body.
type cartItemDTO struct {
	ProductName string          `json:"productName"`
	Name        string          `json:"name"` // legacy alias of productName
	Color       string          `json:"color"`
	TopLine     string          `json:"topLine"`
	BottomLine  string          `json:"bottomLine"`
	Dedication  string          `json:"dedication"`
	Price       json.RawMessage `json:"price"`
	Quantity    json.RawMessage `json:"quantity"`
}

type createOrderResponse struct {
	OrderID string      `json:"orderID"`
	Quote   order.Quote `json:"quote"`
}

type errorResponse struct {
	Error         string            `json:"error"`
	Details       []order.ItemError `json:"details,omitempty"`
	CorrelationID string            `json:"correlationId,omitempty"`
}

type pricingPolicyResponse struct {
	DiscountThresholdQuantity int    `json:"discountThresholdQuantity"`
	DiscountRate              string `json:"discountRate"`
	DiscountPercent           string `json:"discountPercent"`
	CurrencyCode              string `json:"currencyCode"`
	DefaultUnitPrice          string `json:"defaultUnitPrice"`
}

// toLineItems converts the wire cart. Type problems in price or quantity are
// reported per item; field constraints are left to the order service.
func toLineItems(in []cartItemDTO) ([]cart.LineItem, []order.ItemError) {
	var (
		items = make([]cart.LineItem, 0, len(in))
		errs  []order.ItemError
	)
	for i, d := range in {
		name := d.ProductName
		if strings.TrimSpace(name) == "" {
			name = d.Name
		}

		price, ok := parseDecimal(d.Price, true)
		if !ok {
			errs = append(errs, order.ItemError{Index: i, Field: "price", Reason: "must be a number"})
			continue
		}
		qty, ok := parseQuantity(d.Quantity)
		if !ok {
			errs = append(errs, order.ItemError{Index: i, Field: "quantity", Reason: "must be a whole number"})
			continue
		}

		items = append(items, cart.LineItem{
			ProductName: name,
			Color:       d.Color,
			TopLine:     d.TopLine,
			BottomLine:  d.BottomLine,
			Dedication:  d.Dedication,
			UnitPrice:   price,
			Quantity:    qty,
		})
	}
	return items, errs
}

// parseDecimal accepts a JSON number and, when allowString is set, a numeric
// string.
func parseDecimal(raw json.RawMessage, allowString bool) (decimal.Decimal, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Decimal{}, false
	}
	if raw[0] == '"' {
		if !allowString {
			return decimal.Decimal{}, false
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Decimal{}, false
		}
		raw = []byte(strings.TrimSpace(s))
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

var quantityLimit = decimal.NewFromInt(1_000_000_000)

// parseQuantity accepts only JSON numbers with an integral value. Huge
// values are clamped; range validation rejects them either way.
func parseQuantity(raw json.RawMessage) (int, bool) {
	d, ok := parseDecimal(raw, false)
	if !ok || !d.IsInteger() {
		return 0, false
	}
	switch {
	case d.GreaterThan(quantityLimit):
		d = quantityLimit
	case d.LessThan(quantityLimit.Neg()):
		d = quantityLimit.Neg()
	}
	return int(d.IntPart()), true
}
