package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "expected %s, got %s", want, got)
}

func TestCalculate_Empty(t *testing.T) {
	s := Calculate(nil, DefaultPolicy())

	requireDecimal(t, "0", s.Subtotal)
	requireDecimal(t, "0", s.DiscountAmount)
	requireDecimal(t, "0", s.Total)
	assert.Equal(t, 0, s.TotalQuantity)
	assert.False(t, s.DiscountApplied)
	assert.Equal(t, "GBP", s.Currency)
}

func TestCalculate_BelowThreshold(t *testing.T) {
	s := Calculate([]Line{{UnitPrice: dec("14.99"), Quantity: 3}}, DefaultPolicy())

	requireDecimal(t, "44.97", s.Subtotal)
	assert.Equal(t, 3, s.TotalQuantity)
	assert.False(t, s.DiscountApplied)
	requireDecimal(t, "44.97", s.Total)
}

func TestCalculate_AtThresholdKeepsFullPrecision(t *testing.T) {
	s := Calculate([]Line{
		{UnitPrice: dec("14.99"), Quantity: 2},
		{UnitPrice: dec("14.99"), Quantity: 3},
	}, DefaultPolicy())

	requireDecimal(t, "74.95", s.Subtotal)
	assert.True(t, s.DiscountApplied)
	requireDecimal(t, "7.495", s.DiscountAmount)
	requireDecimal(t, "67.455", s.Total)
	assert.Equal(t, "£67.46", FormatMoney(s.Total, s.Currency))
}

func TestCalculate_ThresholdCountsUnitsNotLines(t *testing.T) {
	lines := []Line{
		{UnitPrice: dec("1.00"), Quantity: 1},
		{UnitPrice: dec("1.00"), Quantity: 1},
		{UnitPrice: dec("1.00"), Quantity: 1},
		{UnitPrice: dec("1.00"), Quantity: 1},
	}
	assert.False(t, Calculate(lines, DefaultPolicy()).DiscountApplied)

	single := []Line{{UnitPrice: dec("1.00"), Quantity: 5}}
	assert.True(t, Calculate(single, DefaultPolicy()).DiscountApplied)
}

func TestCalculate_Properties(t *testing.T) {
	policy := DefaultPolicy()
	cases := [][]Line{
		{{UnitPrice: dec("0.01"), Quantity: 999}},
		{{UnitPrice: dec("14.99"), Quantity: 4}, {UnitPrice: dec("9.99"), Quantity: 1}},
		{{UnitPrice: dec("3.33"), Quantity: 3}, {UnitPrice: dec("3.33"), Quantity: 3}},
		{{UnitPrice: dec("100"), Quantity: 1}},
	}

	for _, lines := range cases {
		s := Calculate(lines, policy)
		assert.True(t, s.Total.Equal(s.Subtotal.Sub(s.DiscountAmount)))
		assert.Equal(t, s.TotalQuantity >= policy.DiscountThreshold, s.DiscountApplied)
		if !s.DiscountApplied {
			assert.True(t, s.DiscountAmount.IsZero())
		}
	}
}

func TestProviderBreakdownReconciles(t *testing.T) {
	s := Calculate([]Line{{UnitPrice: dec("14.99"), Quantity: 5}}, DefaultPolicy())
	b := s.ProviderBreakdown()

	requireDecimal(t, "74.95", b.ItemTotal)
	requireDecimal(t, "67.46", b.Total)
	requireDecimal(t, "7.49", b.Discount)
	assert.True(t, b.ItemTotal.Sub(b.Discount).Equal(b.Total))
}

func TestFormatMoney(t *testing.T) {
	tests := map[string]struct {
		amount   string
		currency string
		want     string
	}{
		"pounds":        {amount: "0", currency: "GBP", want: "£0.00"},
		"dollars":       {amount: "1.005", currency: "usd", want: "$1.01"},
		"euros":         {amount: "12.5", currency: "EUR", want: "€12.50"},
		"other iso":     {amount: "3", currency: "PLN", want: "PLN 3.00"},
		"no currency":   {amount: "2.345", currency: "", want: "2.35"},
		"half rounding": {amount: "67.455", currency: "GBP", want: "£67.46"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(dec(tt.amount), tt.currency))
		})
	}
}

func TestPolicyValidate(t *testing.T) {
	require.NoError(t, DefaultPolicy().Validate())

	bad := DefaultPolicy()
	bad.DiscountThreshold = 0
	require.Error(t, bad.Validate())

	bad = DefaultPolicy()
	bad.DiscountRate = dec("1")
	require.Error(t, bad.Validate())

	bad = DefaultPolicy()
	bad.Currency = "POUNDS"
	require.Error(t, bad.Validate())

	assert.Equal(t, "10%", DefaultPolicy().DiscountPercent())
}
