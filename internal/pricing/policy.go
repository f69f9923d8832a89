package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	DefaultDiscountThreshold = 5
	DefaultCurrency          = "GBP"
)

var DefaultDiscountRate = decimal.RequireFromString("0.10")

// Policy holds the process-wide discount configuration. It is loaded once
// at startup and never mutated afterwards.
type Policy struct {
	DiscountThreshold int             `json:"discountThresholdQuantity"`
	DiscountRate      decimal.Decimal `json:"discountRate"`
	Currency          string          `json:"currencyCode"`
}

func DefaultPolicy() Policy {
	return Policy{
		DiscountThreshold: DefaultDiscountThreshold,
		DiscountRate:      DefaultDiscountRate,
		Currency:          DefaultCurrency,
	}
}

func (p Policy) Validate() error {
	if p.DiscountThreshold < 1 {
		return fmt.Errorf("discount threshold must be at least 1, got %d", p.DiscountThreshold)
	}
	if p.DiscountRate.IsNegative() || p.DiscountRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("discount rate must be in [0,1), got %s", p.DiscountRate)
	}
	if len(strings.TrimSpace(p.Currency)) != 3 {
		return errors.New("currency must be a three letter ISO code")
	}
	return nil
}

// DiscountPercent renders the rate as a whole percentage ("10%").
func (p Policy) DiscountPercent() string {
	return p.DiscountRate.Mul(decimal.NewFromInt(100)).Round(0).String() + "%"
}
