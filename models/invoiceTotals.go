package models

import (
	"context"

	"github.com/WeblateOrg/website-sub000/utils"
	"github.com/shopspring/decimal"
)

// Monetary derivations. All of these are pure functions of the loaded
// aggregate (items, discount, vat rate); they are recomputed on access, which
// is safe because issued invoices are effectively immutable.

// TotalItemsAmount is the sum of all line totals.
func (inv *Invoice) TotalItemsAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range inv.Items {
		total = total.Add(inv.Items[i].TotalAmount())
	}
	return total
}

// TotalPlusItemsAmount sums only positive-priced lines. Credit lines
// (price <= 0) are excluded from the discount base.
func (inv *Invoice) TotalPlusItemsAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range inv.Items {
		if inv.Items[i].UnitPrice.IsPositive() {
			total = total.Add(inv.Items[i].TotalAmount())
		}
	}
	return total
}

// TotalDiscount is the negative whole-unit discount adjustment, zero without
// a discount reference.
func (inv *Invoice) TotalDiscount() decimal.Decimal {
	if inv.Discount == nil {
		return decimal.Zero
	}
	percent := decimal.NewFromInt(int64(inv.Discount.Percent))
	return utils.RoundDiscount(inv.TotalPlusItemsAmount().Mul(percent).Div(utils.OneHundred()).Neg())
}

// TotalAmountNoVat is the taxable base: items plus discount.
func (inv *Invoice) TotalAmountNoVat() decimal.Decimal {
	return utils.RoundMoney(inv.TotalItemsAmount().Add(inv.TotalDiscount()))
}

// TotalVat is the VAT portion, zero when the invoice carries no VAT rate.
func (inv *Invoice) TotalVat() decimal.Decimal {
	if inv.VatRate <= 0 {
		return decimal.Zero
	}
	rate := decimal.NewFromInt(int64(inv.VatRate))
	return utils.RoundMoney(inv.TotalAmountNoVat().Mul(rate).Div(utils.OneHundred()))
}

// TotalAmount is the grand total, always capped at cent precision.
func (inv *Invoice) TotalAmount() decimal.Decimal {
	return utils.RoundGrandTotal(inv.TotalAmountNoVat().Add(inv.TotalVat()))
}

// ExchangeRateCZK is the CZK price of one unit of the invoice currency on the
// tax date.
func (inv *Invoice) ExchangeRateCZK(ctx context.Context, rp RateProvider) (decimal.Decimal, error) {
	return rp.Rate(ctx, string(inv.Currency), inv.rateDate())
}

// ExchangeRateEUR is the EUR cross rate on the tax date, derived through CZK.
func (inv *Invoice) ExchangeRateEUR(ctx context.Context, rp RateProvider) (decimal.Decimal, error) {
	return rp.CrossRate(ctx, string(inv.Currency), string(CurrencyEUR), inv.rateDate())
}

// CZK-equivalent totals for the fixed-currency bookkeeping export.

func (inv *Invoice) TotalAmountNoVatCZK(ctx context.Context, rp RateProvider) (decimal.Decimal, error) {
	rate, err := inv.ExchangeRateCZK(ctx, rp)
	if err != nil {
		return decimal.Zero, err
	}
	return utils.RoundMoney(inv.TotalAmountNoVat().Mul(rate)), nil
}

func (inv *Invoice) TotalVatCZK(ctx context.Context, rp RateProvider) (decimal.Decimal, error) {
	rate, err := inv.ExchangeRateCZK(ctx, rp)
	if err != nil {
		return decimal.Zero, err
	}
	return utils.RoundMoney(inv.TotalVat().Mul(rate)), nil
}

func (inv *Invoice) TotalAmountCZK(ctx context.Context, rp RateProvider) (decimal.Decimal, error) {
	rate, err := inv.ExchangeRateCZK(ctx, rp)
	if err != nil {
		return decimal.Zero, err
	}
	return utils.RoundGrandTotal(inv.TotalAmount().Mul(rate)), nil
}
