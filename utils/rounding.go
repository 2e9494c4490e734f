package utils

import "github.com/shopspring/decimal"

var (
	decimalCent       = decimal.New(1, -2)
	decimalTenth      = decimal.New(1, -1)
	decimalOne        = decimal.New(1, 0)
	decimalOneHundred = decimal.New(1, 2)
)

// OneHundred is the shared percent divisor.
func OneHundred() decimal.Decimal {
	return decimalOneHundred
}

// RoundAmount renders a monetary value at the smallest number of decimal
// places that still represents it exactly, capped at maxDecimals.
// Precision selection, first match wins:
//  1. sub-cent fraction -> maxDecimals places
//  2. whole number      -> 0 places
//  3. exact tenths      -> 1 place
//  4. otherwise         -> 2 places
func RoundAmount(value decimal.Decimal, maxDecimals int32) decimal.Decimal {
	switch {
	case !value.Mod(decimalCent).IsZero():
		return value.Round(maxDecimals)
	case value.Mod(decimalOne).IsZero():
		return value.Round(0)
	case value.Mod(decimalTenth).IsZero():
		return value.Round(1)
	default:
		return value.Round(2)
	}
}

// RoundMoney is the general policy used for line totals, VAT and
// intermediate sums: RoundAmount capped at 3 places.
func RoundMoney(value decimal.Decimal) decimal.Decimal {
	return RoundAmount(value, 3)
}

// RoundGrandTotal caps an invoice grand total at cent precision. Kept as a
// separately named call: the grand total is the one amount that ends up on
// payment instructions and must never carry sub-cent digits.
func RoundGrandTotal(value decimal.Decimal) decimal.Decimal {
	return RoundAmount(value, 2)
}

// RoundDiscount rounds a discount adjustment to whole currency units.
func RoundDiscount(value decimal.Decimal) decimal.Decimal {
	return value.Round(0)
}
