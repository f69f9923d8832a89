package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Line is the pricing-relevant projection of a cart entry.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Summary is the unrounded result of a pricing pass. Amounts keep full
// precision; callers round only when formatting for display or the provider.
type Summary struct {
	Subtotal        decimal.Decimal
	TotalQuantity   int
	DiscountApplied bool
	DiscountAmount  decimal.Decimal
	Total           decimal.Decimal
	Currency        string
}

// Calculate prices lines under policy. It has no side effects, so the
// client estimate and the server quote agree for the same input.
func Calculate(lines []Line, policy Policy) Summary {
	subtotal := decimal.Zero
	totalQty := 0
	for _, ln := range lines {
		subtotal = subtotal.Add(ln.UnitPrice.Mul(decimal.NewFromInt(int64(ln.Quantity))))
		totalQty += ln.Quantity
	}

	s := Summary{
		Subtotal:       subtotal,
		TotalQuantity:  totalQty,
		DiscountAmount: decimal.Zero,
		Currency:       policy.Currency,
	}

	if totalQty > 0 && totalQty >= policy.DiscountThreshold {
		s.DiscountApplied = true
		s.DiscountAmount = subtotal.Mul(policy.DiscountRate)
	}
	s.Total = subtotal.Sub(s.DiscountAmount)

	return s
}

// Breakdown is a two-decimal split of a Summary that satisfies
// ItemTotal - Discount == Total exactly, as payment providers require.
type Breakdown struct {
	ItemTotal decimal.Decimal
	Discount  decimal.Decimal
	Total     decimal.Decimal
}

// ProviderBreakdown rounds subtotal and total independently and derives the
// discount from them, so the rounded figures always reconcile.
func (s Summary) ProviderBreakdown() Breakdown {
	itemTotal := s.Subtotal.Round(2)
	total := s.Total.Round(2)
	return Breakdown{
		ItemTotal: itemTotal,
		Discount:  itemTotal.Sub(total),
		Total:     total,
	}
}

// Amount renders d with exactly two decimal places.
func Amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatMoney renders d for display in currency, e.g. "£67.46".
func FormatMoney(d decimal.Decimal, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	switch code {
	case "GBP":
		return "£" + Amount(d)
	case "USD":
		return "$" + Amount(d)
	case "EUR":
		return "€" + Amount(d)
	case "":
		return Amount(d)
	default:
		return code + " " + Amount(d)
	}
}
