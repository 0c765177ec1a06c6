package utils

import (
	"github.com/shopspring/decimal"
)

// NormalizeDiscount maps stored discount values onto a 0-1 fraction.
// Legacy rows store tenths (9 means 10% off); zero or invalid means no
// discount.
func NormalizeDiscount(discount float64) float64 {
	if discount <= 0 {
		return 1.0
	}
	if discount > 1 {
		return discount / 10
	}
	return discount
}

// CalcOrderAmounts computes the total and payable amount for an order from
// the unit price, quantity and normalized discount. Amounts are computed
// once at order creation and never recomputed during reconciliation.
func CalcOrderAmounts(unitPrice float64, quantity int, discount float64) (total float64, pay float64) {
	price := decimal.NewFromFloat(unitPrice)
	qty := decimal.NewFromInt(int64(quantity))
	disc := decimal.NewFromFloat(NormalizeDiscount(discount))

	totalDec := price.Mul(qty).Round(2)
	payDec := price.Mul(qty).Mul(disc).Round(2)

	total, _ = totalDec.Float64()
	pay, _ = payDec.Float64()
	return total, pay
}

// FormatAmount renders an amount the way the gateway expects: two decimal
// places, never below 0.01.
func FormatAmount(amount float64) string {
	d := decimal.NewFromFloat(amount)
	if d.LessThan(decimal.NewFromFloat(0.01)) {
		d = decimal.NewFromFloat(0.01)
	}
	return d.StringFixed(2)
}
