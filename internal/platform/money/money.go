// Package money holds the pure formatting and arithmetic helpers shared by
// quotations, invoices, receipts and statements. Functions here have no side
// effects and never touch storage.
package money

import (
	"math"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultVATRate applies when a company has not configured its own rate.
const DefaultVATRate = 0.15

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Totals is the computed money block common to quotations and invoices.
type Totals struct {
	SubTotal   float64 `json:"sub_total"`
	Discount   float64 `json:"discount"`
	VATAmount  float64 `json:"vat_amount"`
	GrandTotal float64 `json:"grand_total"`
}

// Compute derives VAT and grand total from a subtotal and discount. The
// discount is clamped to [0, subTotal] so a stale form value can never push
// the taxable base negative.
func Compute(subTotal, discount, vatRate float64) Totals {
	if discount < 0 {
		discount = 0
	}
	if discount > subTotal {
		discount = subTotal
	}
	base := subTotal - discount
	vat := Round2(base * vatRate)
	return Totals{
		SubTotal:   Round2(subTotal),
		Discount:   Round2(discount),
		VATAmount:  vat,
		GrandTotal: Round2(base + vat),
	}
}

// LineTotal computes a document line total.
func LineTotal(quantity float64, unitPrice float64) float64 {
	return Round2(quantity * unitPrice)
}

// Format renders an amount with its currency symbol, e.g. "ZAR 103,500.00".
func Format(amount float64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.USD
	}
	p := message.NewPrinter(language.English)
	return p.Sprintf("%v%.2f", currency.Symbol(unit), amount)
}

// FormatDate renders dates the way documents display them.
func FormatDate(t time.Time) string {
	return t.Format("02 Jan 2006")
}
