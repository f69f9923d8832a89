// Package projection derives every cart surface from one snapshot so the
// badge, dropdown and order table always agree.
package projection

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/pricing"
)

const (
	NoPersonalization = "N/A"
	EmptyCartMessage  = "Your cart is empty."

	personalizationSeparator = " | "
)

type Badge struct {
	Count int    `json:"count"`
	Total string `json:"total"`
}

type DropdownLine struct {
	Label     string `json:"label"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"lineTotal"`
}

type Dropdown struct {
	Count        int            `json:"count"`
	Lines        []DropdownLine `json:"lines"`
	Total        string         `json:"total"`
	DiscountNote string         `json:"discountNote"`
}

type Row struct {
	Key                    cart.IdentityKey `json:"key"`
	ProductName            string           `json:"productName"`
	Color                  string           `json:"color"`
	PersonalizationSummary string           `json:"personalizationSummary"`
	Quantity               int              `json:"quantity"`
	UnitPrice              string           `json:"unitPrice"`
	LineTotal              string           `json:"lineTotal"`
}

// PricingSummary is the formatted form of a pricing.Summary.
type PricingSummary struct {
	Subtotal        string `json:"subtotal"`
	TotalQuantity   int    `json:"totalQuantity"`
	DiscountApplied bool   `json:"discountApplied"`
	DiscountAmount  string `json:"discountAmount"`
	Total           string `json:"total"`
	DiscountNote    string `json:"discountNote"`
}

type Table struct {
	Rows    []Row          `json:"rows"`
	Summary PricingSummary `json:"summary"`
	Empty   string         `json:"empty,omitempty"`
}

// View is every surface for one cart version.
type View struct {
	Version  uint64          `json:"version"`
	Badge    Badge           `json:"badge"`
	Dropdown Dropdown        `json:"dropdown"`
	Table    Table           `json:"table"`
	Pricing  pricing.Summary `json:"-"`
}

// Project builds the view for snap. It runs the pricing engine exactly once.
func Project(snap cart.Snapshot, policy pricing.Policy) View {
	sum := pricing.Calculate(snap.PricingLines(), policy)
	money := func(d decimal.Decimal) string { return pricing.FormatMoney(d, sum.Currency) }
	note := DiscountNote(sum, policy)

	v := View{
		Version: snap.Version,
		Pricing: sum,
		Badge: Badge{
			Count: sum.TotalQuantity,
			Total: money(sum.Total),
		},
		Dropdown: Dropdown{
			Count:        sum.TotalQuantity,
			Lines:        make([]DropdownLine, 0, len(snap.Items)),
			Total:        money(sum.Total),
			DiscountNote: note,
		},
		Table: Table{
			Rows: make([]Row, 0, len(snap.Items)),
			Summary: PricingSummary{
				Subtotal:        money(sum.Subtotal),
				TotalQuantity:   sum.TotalQuantity,
				DiscountApplied: sum.DiscountApplied,
				DiscountAmount:  money(sum.DiscountAmount),
				Total:           money(sum.Total),
				DiscountNote:    note,
			},
		},
	}

	for _, it := range snap.Items {
		lineTotal := money(it.LineTotal())
		v.Dropdown.Lines = append(v.Dropdown.Lines, DropdownLine{
			Label:     fmt.Sprintf("%s (%s)", it.ProductName, it.Color),
			Quantity:  it.Quantity,
			LineTotal: lineTotal,
		})
		v.Table.Rows = append(v.Table.Rows, Row{
			Key:                    it.Key(),
			ProductName:            it.ProductName,
			Color:                  it.Color,
			PersonalizationSummary: PersonalizationSummary(it),
			Quantity:               it.Quantity,
			UnitPrice:              money(it.UnitPrice),
			LineTotal:              lineTotal,
		})
	}
	if len(snap.Items) == 0 {
		v.Table.Empty = EmptyCartMessage
	}
	return v
}

// PersonalizationSummary joins the non-empty personalisation fields in
// top, bottom, dedication order.
func PersonalizationSummary(it cart.LineItem) string {
	var parts []string
	if it.TopLine != "" {
		parts = append(parts, "Top: "+it.TopLine)
	}
	if it.BottomLine != "" {
		parts = append(parts, "Bottom: "+it.BottomLine)
	}
	if it.Dedication != "" {
		parts = append(parts, "Dedication: "+it.Dedication)
	}
	if len(parts) == 0 {
		return NoPersonalization
	}
	return strings.Join(parts, personalizationSeparator)
}

// DiscountNote is the promotional line under the totals. It is empty for an
// empty cart.
func DiscountNote(sum pricing.Summary, policy pricing.Policy) string {
	if sum.TotalQuantity == 0 {
		return ""
	}
	if sum.DiscountApplied {
		return fmt.Sprintf("%s discount applied! You saved %s!",
			policy.DiscountPercent(), pricing.FormatMoney(sum.DiscountAmount, sum.Currency))
	}
	return fmt.Sprintf("Buy %d or more items to get a %s discount!",
		policy.DiscountThreshold, policy.DiscountPercent())
}
