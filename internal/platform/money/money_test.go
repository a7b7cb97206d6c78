package money

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	got := Compute(90000, 0, 0.15)
	assert.Equal(t, 90000.0, got.SubTotal)
	assert.Equal(t, 13500.0, got.VATAmount)
	assert.Equal(t, 103500.0, got.GrandTotal)
}

func TestComputeClampsDiscount(t *testing.T) {
	got := Compute(100, 250, 0.15)
	assert.Equal(t, 100.0, got.Discount)
	assert.Equal(t, 0.0, got.VATAmount)
	assert.Equal(t, 0.0, got.GrandTotal)

	got = Compute(100, -50, 0.15)
	assert.Equal(t, 0.0, got.Discount)
	assert.InDelta(t, 115.0, got.GrandTotal, 0.001)
}

func TestComputeRounding(t *testing.T) {
	got := Compute(99.99, 10.50, 0.15)
	base := 99.99 - 10.50
	assert.InDelta(t, Round2(base*0.15), got.VATAmount, 0.001)
	assert.InDelta(t, Round2(base+base*0.15), got.GrandTotal, 0.01)
}

func TestLineTotal(t *testing.T) {
	assert.Equal(t, 450.0, LineTotal(3, 150))
	assert.Equal(t, 0.34, LineTotal(3, 0.113))
}

func TestFormat(t *testing.T) {
	assert.Contains(t, Format(103500, "ZAR"), "103,500.00")
	// Unknown codes fall back to USD rather than failing.
	assert.Contains(t, Format(5, "???"), "5.00")
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "07 Mar 2025", FormatDate(d))
}
