package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTotals_NoDiscountNoVat(t *testing.T) {
	inv := &Invoice{
		Currency: CurrencyEUR,
		Items: []InvoiceItem{
			{Quantity: 2, UnitPrice: money("10.5")},
			{Quantity: 1, UnitPrice: money("4.25")},
		},
	}
	if got := inv.TotalItemsAmount(); !got.Equal(money("25.25")) {
		t.Fatalf("TotalItemsAmount expected 25.25, got %s", got)
	}
	if got := inv.TotalDiscount(); !got.IsZero() {
		t.Fatalf("TotalDiscount expected 0, got %s", got)
	}
	if got := inv.TotalVat(); !got.IsZero() {
		t.Fatalf("TotalVat expected 0, got %s", got)
	}
	if got := inv.TotalAmount(); !got.Equal(inv.TotalItemsAmount()) {
		t.Fatalf("TotalAmount expected %s, got %s", inv.TotalItemsAmount(), got)
	}
}

func TestTotals_VatLayering(t *testing.T) {
	inv := &Invoice{
		Currency: CurrencyCZK,
		VatRate:  21,
		Items: []InvoiceItem{
			{Quantity: 1, UnitPrice: money("100")},
		},
	}
	if got := inv.TotalAmountNoVat(); !got.Equal(money("100")) {
		t.Fatalf("TotalAmountNoVat expected 100, got %s", got)
	}
	if got := inv.TotalVat(); !got.Equal(money("21")) {
		t.Fatalf("TotalVat expected 21, got %s", got)
	}
	if got := inv.TotalAmount(); !got.Equal(money("121")) {
		t.Fatalf("TotalAmount expected 121, got %s", got)
	}
}

func TestTotals_DiscountOnPositiveLinesOnly(t *testing.T) {
	inv := &Invoice{
		Currency: CurrencyEUR,
		VatRate:  21,
		Discount: &Discount{Percent: 50},
		Items: []InvoiceItem{
			{Quantity: 1, UnitPrice: money("100")},
			{Quantity: 1, UnitPrice: money("-40")},
		},
	}
	// the credit line reduces the item total but not the discount base
	if got := inv.TotalItemsAmount(); !got.Equal(money("60")) {
		t.Fatalf("TotalItemsAmount expected 60, got %s", got)
	}
	if got := inv.TotalPlusItemsAmount(); !got.Equal(money("100")) {
		t.Fatalf("TotalPlusItemsAmount expected 100, got %s", got)
	}
	if got := inv.TotalDiscount(); !got.Equal(money("-50")) {
		t.Fatalf("TotalDiscount expected -50, got %s", got)
	}
	if got := inv.TotalAmountNoVat(); !got.Equal(money("10")) {
		t.Fatalf("TotalAmountNoVat expected 10, got %s", got)
	}
	if got := inv.TotalVat(); !got.Equal(money("2.1")) {
		t.Fatalf("TotalVat expected 2.1, got %s", got)
	}
	if got := inv.TotalAmount(); !got.Equal(money("12.1")) {
		t.Fatalf("TotalAmount expected 12.1, got %s", got)
	}
}

func TestTotals_DiscountRoundsToWholeUnits(t *testing.T) {
	inv := &Invoice{
		Currency: CurrencyEUR,
		Discount: &Discount{Percent: 15},
		Items: []InvoiceItem{
			{Quantity: 1, UnitPrice: money("99.99")},
		},
	}
	// 15% of 99.99 is 14.9985, discount applies in whole units
	if got := inv.TotalDiscount(); !got.Equal(money("-15")) {
		t.Fatalf("TotalDiscount expected -15, got %s", got)
	}
	if got := inv.TotalAmountNoVat(); !got.Equal(money("84.99")) {
		t.Fatalf("TotalAmountNoVat expected 84.99, got %s", got)
	}
}

func TestItemTotal_SubCentPrecision(t *testing.T) {
	item := InvoiceItem{Quantity: 3, UnitPrice: money("7.1429")}
	if got := item.TotalAmount(); !got.Equal(money("21.429")) {
		t.Fatalf("TotalAmount expected 21.429, got %s", got)
	}
}
