package cart

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/pricing"
)

const (
	MinQuantity = 1
	MaxQuantity = 999

	DefaultColor = "Black"

	MaxProductNameLen = 16
	MaxColorLen       = 32
	MaxLineLen        = 24
	MaxDedicationLen  = 120
)

// LineItem is one personalised product configuration plus its quantity.
// UnitPrice is captured when the item is created and never re-derived.
type LineItem struct {
	ProductName string          `json:"productName"`
	Color       string          `json:"color"`
	TopLine     string          `json:"topLine"`
	BottomLine  string          `json:"bottomLine"`
	Dedication  string          `json:"dedication"`
	UnitPrice   decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// Key returns the identity of the purchasable configuration.
func (it LineItem) Key() IdentityKey {
	return KeyOf(it)
}

func (it LineItem) LineTotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Normalize trims free-text fields and applies the default colour.
func Normalize(it LineItem) LineItem {
	it.ProductName = strings.TrimSpace(it.ProductName)
	it.Color = strings.TrimSpace(it.Color)
	it.TopLine = strings.TrimSpace(it.TopLine)
	it.BottomLine = strings.TrimSpace(it.BottomLine)
	it.Dedication = strings.TrimSpace(it.Dedication)
	if it.Color == "" {
		it.Color = DefaultColor
	}
	return it
}

// Snapshot is an immutable copy of the cart at one version.
type Snapshot struct {
	Version uint64
	Items   []LineItem
}

func (s Snapshot) Len() int { return len(s.Items) }

func (s Snapshot) Find(key IdentityKey) (LineItem, bool) {
	if i := indexOf(s.Items, key); i >= 0 {
		return s.Items[i], true
	}
	return LineItem{}, false
}

// PricingLines adapts the snapshot for the pricing engine.
func (s Snapshot) PricingLines() []pricing.Line {
	return PricingLines(s.Items)
}

func PricingLines(items []LineItem) []pricing.Line {
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity})
	}
	return lines
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
