package cart

import (
	"github.com/mgiulio/photo-market/core/photo"
	"github.com/shopspring/decimal"
)

// LineTotal prices one cart entry: the license price if licensed, plus
// print price times quantity. Results are rounded to two decimal
// places with banker's rounding (round half to even).
func LineTotal(it Item, p photo.Photo) decimal.Decimal {
	total := decimal.Zero

	if it.License {
		total = total.Add(p.PriceLicense)
	}
	if it.PrintQty > 0 {
		total = total.Add(p.PricePrint.Mul(decimal.NewFromInt(int64(it.PrintQty))))
	}

	return total.RoundBank(2)
}

// Total sums the line totals of a priced cart.
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal)
	}
	return total.RoundBank(2)
}
