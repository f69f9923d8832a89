package order

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultUnitPrice is the price of a stamp when the catalog names no override.
var DefaultUnitPrice = decimal.RequireFromString("14.99")

// Catalog is the server's price list. Clients may display their own prices
// but the server only ever charges these.
type Catalog struct {
	Default   decimal.Decimal
	Overrides map[string]decimal.Decimal
}

func DefaultCatalog() Catalog {
	return Catalog{Default: DefaultUnitPrice}
}

// Price returns the unit price for productName. Lookups ignore case.
func (c Catalog) Price(productName string) decimal.Decimal {
	if p, ok := c.Overrides[strings.ToLower(strings.TrimSpace(productName))]; ok {
		return p
	}
	return c.Default
}

// ParseCatalog builds a catalog from a default price and a comma separated
// "Name=price" list, e.g. "Round Stamp=12.50,Mini Stamp=9.99".
func ParseCatalog(defaultPrice, overrides string) (Catalog, error) {
	c := Catalog{Default: DefaultUnitPrice}
	if strings.TrimSpace(defaultPrice) != "" {
		p, err := parsePrice(defaultPrice)
		if err != nil {
			return Catalog{}, fmt.Errorf("default price: %w", err)
		}
		c.Default = p
	}

	for _, entry := range strings.Split(overrides, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, raw, ok := strings.Cut(entry, "=")
		name = strings.ToLower(strings.TrimSpace(name))
		if !ok || name == "" {
			return Catalog{}, fmt.Errorf("catalog entry %q: want Name=price", entry)
		}
		p, err := parsePrice(raw)
		if err != nil {
			return Catalog{}, fmt.Errorf("catalog entry %q: %w", entry, err)
		}
		if c.Overrides == nil {
			c.Overrides = make(map[string]decimal.Decimal)
		}
		c.Overrides[name] = p
	}
	return c, nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	p, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !p.IsPositive() || !p.Equal(p.Round(2)) {
		return decimal.Decimal{}, fmt.Errorf("price %s must be positive with at most two decimals", s)
	}
	return p, nil
}
