package utils

import (
	"github.com/shopspring/decimal"
)

// CalculateExclusiveTax returns the tax charged on top of a line's base
// amount: (base / 100) * tax1Rate + (base / 100) * tax2Rate.
// Inclusive lines carry no separate tax amount (tax is embedded in the rate).
func CalculateExclusiveTax(baseAmount, tax1Rate, tax2Rate decimal.Decimal) decimal.Decimal {
	hundredth := baseAmount.DivRound(decimal.NewFromFloat(100), 4)
	return hundredth.Mul(tax1Rate).Add(hundredth.Mul(tax2Rate))
}

// CalculatePurchaseLineValues computes a purchase line's stored amount and
// tax amount. Exclusive lines fold the tax into the amount; inclusive lines
// keep amount = quantity * rate with zero separate tax.
func CalculatePurchaseLineValues(quantity, rate, tax1Rate, tax2Rate decimal.Decimal, isTaxExclusive bool) (decimal.Decimal, decimal.Decimal) {
	amount := quantity.Mul(rate)
	taxAmount := decimal.Zero
	if isTaxExclusive {
		taxAmount = CalculateExclusiveTax(amount, tax1Rate, tax2Rate)
		amount = amount.Add(taxAmount)
	}
	return amount, taxAmount
}

func CalculateDiscountAmount(subTotal decimal.Decimal, discount decimal.Decimal, discountType string) decimal.Decimal {

	var discountAmount decimal.Decimal

	decimalOneHundred := decimal.NewFromFloat(100)

	if discount.GreaterThan(decimal.NewFromFloat(0.0)) {
		if discountType == "P" {
			discountAmount = subTotal.Mul(discount).DivRound(decimalOneHundred, 4)
		} else {
			discountAmount = discount
		}
	} else {
		discountAmount = decimal.NewFromFloat(0.0)
	}

	return discountAmount
}
