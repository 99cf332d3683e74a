package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(raw string) decimal.Decimal {
	return decimal.RequireFromString(raw)
}

func TestCurrentPrice(t *testing.T) {
	cases := []struct {
		name   string
		base   string
		pct    string
		amount string
		want   string
	}{
		{"no discount", "100", "0", "0", "100"},
		{"percentage", "100", "20", "0", "80"},
		{"percentage wins over amount", "100", "20", "50", "80"},
		{"amount", "100", "0", "30", "70"},
		{"amount larger than base", "20", "0", "30", "0"},
		{"percentage rounds to cents", "19.99", "15", "0", "16.99"},
		{"percentage above 100 clamps", "10", "150", "0", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CurrentPrice(d(tc.base), d(tc.pct), d(tc.amount))
			assert.True(t, got.Equal(d(tc.want)), "want %s got %s", tc.want, got)
			assert.False(t, got.IsNegative())
		})
	}
}

func TestVariantPrice(t *testing.T) {
	assert.True(t, VariantPrice(d("80"), d("5")).Equal(d("85")))
	assert.True(t, VariantPrice(d("80"), d("-10")).Equal(d("70")))
	assert.True(t, VariantPrice(d("5"), d("-10")).IsZero())
}

func TestSubtotalEqualsSumOfLines(t *testing.T) {
	lines := []Line{
		{UnitPrice: d("80"), Quantity: 2},
		{UnitPrice: d("12.50"), Quantity: 3},
		{UnitPrice: d("0.99"), Quantity: 1},
	}
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(LineTotal(l))
	}
	assert.True(t, Subtotal(lines).Equal(sum))
	assert.True(t, Subtotal(lines).Equal(d("198.49")))
}

func TestSummarizeAboveFreeShipping(t *testing.T) {
	s := Summarize([]Line{{UnitPrice: d("80"), Quantity: 2}}, decimal.Zero)
	require.True(t, s.Subtotal.Equal(d("160")))
	assert.True(t, s.Tax.Equal(d("16")))
	assert.True(t, s.Shipping.IsZero())
	assert.True(t, s.Total.Equal(d("176")))
}

func TestSummarizeBelowFreeShipping(t *testing.T) {
	s := Summarize([]Line{{UnitPrice: d("10"), Quantity: 1}}, decimal.Zero)
	assert.True(t, s.Shipping.Equal(d("5")))
	assert.True(t, s.Tax.Equal(d("1")))
	assert.True(t, s.Total.Equal(d("16")))
}

func TestShippingThresholdIsInclusive(t *testing.T) {
	assert.True(t, Shipping(d("50")).IsZero())
	assert.True(t, Shipping(d("49.99")).Equal(d("5")))
}

func TestTotalClampsAtZero(t *testing.T) {
	assert.True(t, Total(d("10"), d("1"), d("5"), d("100")).IsZero())
	s := Summarize([]Line{{UnitPrice: d("10"), Quantity: 1}}, d("-3"))
	assert.True(t, s.Discount.IsZero())
}

func TestLowStockAndSale(t *testing.T) {
	assert.True(t, IsLowStock(10, 10))
	assert.False(t, IsLowStock(11, 10))
	assert.True(t, IsOnSale(d("0"), d("1")))
	assert.False(t, IsOnSale(d("0"), d("0")))
	assert.True(t, Savings(d("100"), d("80")).Equal(d("20")))
}
