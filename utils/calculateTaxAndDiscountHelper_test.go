package utils_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"bitbucket.org/truebittech/retail_backend/utils"
)

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func TestCalculateExclusiveTax(t *testing.T) {
	assert.True(t, utils.CalculateExclusiveTax(d("400"), d("5"), d("0")).Equal(d("20")))
	assert.True(t, utils.CalculateExclusiveTax(d("1000"), d("9"), d("9")).Equal(d("180")))
	assert.True(t, utils.CalculateExclusiveTax(d("0"), d("18"), d("0")).Equal(d("0")))
}

func TestCalculatePurchaseLineValues(t *testing.T) {
	// Inclusive lines keep amount = quantity * rate with no separate tax.
	amount, tax := utils.CalculatePurchaseLineValues(d("10"), d("100"), d("5"), d("0"), false)
	assert.True(t, amount.Equal(d("1000")))
	assert.True(t, tax.Equal(d("0")))

	// Exclusive lines fold the tax into the amount.
	amount, tax = utils.CalculatePurchaseLineValues(d("10"), d("100"), d("5"), d("0"), true)
	assert.True(t, amount.Equal(d("1050")))
	assert.True(t, tax.Equal(d("50")))

	amount, tax = utils.CalculatePurchaseLineValues(d("2"), d("250"), d("9"), d("9"), true)
	assert.True(t, amount.Equal(d("590")))
	assert.True(t, tax.Equal(d("90")))
}

func TestCalculateDiscountAmount(t *testing.T) {
	// Percentage discounts compute off the subtotal.
	assert.True(t, utils.CalculateDiscountAmount(d("1000"), d("10"), "P").Equal(d("100")))
	// Flat discounts pass through.
	assert.True(t, utils.CalculateDiscountAmount(d("1000"), d("75"), "F").Equal(d("75")))
	// No discount, no amount.
	assert.True(t, utils.CalculateDiscountAmount(d("1000"), d("0"), "P").Equal(d("0")))
	assert.True(t, utils.CalculateDiscountAmount(d("1000"), d("-5"), "P").Equal(d("0")))
}
