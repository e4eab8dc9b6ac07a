package invoicing

import (
	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the flat rate applied to every invoice subtotal
const DefaultTaxRate = 0.19

// MaxAmount is the largest value a decimal(10,2) money column holds
var MaxAmount = decimal.RequireFromString("99999999.99")

// FitsAmount reports whether d can be stored in a money column
func FitsAmount(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(MaxAmount)
}

// TaxCalculator computes invoice amounts for a flat rate
type TaxCalculator struct {
	Rate decimal.Decimal
}

// NewTaxCalculator returns a calculator for rate (0.19 means 19%)
func NewTaxCalculator(rate float64) TaxCalculator {
	return TaxCalculator{Rate: decimal.NewFromFloat(rate)}
}

// Tax returns subtotal × rate rounded to cents
func (c TaxCalculator) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(c.Rate).Round(2)
}

// Totals returns the tax and grand total for subtotal
func (c TaxCalculator) Totals(subtotal decimal.Decimal) (tax, total decimal.Decimal) {
	tax = c.Tax(subtotal)
	return tax, subtotal.Add(tax)
}

// Line is anything that contributes price × quantity to an order total
type Line interface {
	LineTotal() decimal.Decimal
}

// OrderTotal sums the line totals
func OrderTotal[L Line](lines []L) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal())
	}
	return total
}
