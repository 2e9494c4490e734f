package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/WeblateOrg/website-sub000/utils"
	"github.com/shopspring/decimal"
)

type InvoiceItem struct {
	ID           int             `gorm:"primary_key" json:"id"`
	InvoiceId    string          `gorm:"type:char(36);index;not null" json:"invoice_id"`
	Description  string          `gorm:"size:200" json:"description"`
	Quantity     int             `gorm:"not null;default:1" json:"quantity"`
	QuantityUnit QuantityUnit    `gorm:"size:10" json:"quantity_unit"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	StartDate    *time.Time      `json:"start_date"`
	EndDate      *time.Time      `json:"end_date"`
	PackageId    *int            `gorm:"index" json:"package_id"`
	Package      *Package        `json:"package"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewInvoiceItem struct {
	Description  string          `json:"description"`
	Quantity     int             `json:"quantity" binding:"required,min=1,max=50"`
	QuantityUnit QuantityUnit    `json:"quantity_unit"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	StartDate    *time.Time      `json:"start_date"`
	EndDate      *time.Time      `json:"end_date"`
	PackageId    *int            `json:"package_id"`
}

// Validate enforces the completeness rule: an item needs a description or a
// package to derive one from, and a non-zero price or a package to derive
// one from. Run after ApplyDefaults so package-backed items pass.
func (item *InvoiceItem) Validate() error {
	if item.Description == "" && item.PackageId == nil {
		return errors.New("item description or package is required")
	}
	if item.UnitPrice.IsZero() && item.PackageId == nil {
		return errors.New("item unit price or package is required")
	}
	if item.Quantity < 1 || item.Quantity > 50 {
		return errors.New("item quantity must be between 1 and 50")
	}
	if !item.QuantityUnit.Valid() {
		return fmt.Errorf("unknown quantity unit %q", string(item.QuantityUnit))
	}
	return nil
}

// ApplyDefaults fills description, unit price and covered date range from the
// linked package. This is an explicit step the caller runs before handing the
// row to the storage layer; persistence itself never mutates business fields.
func (item *InvoiceItem) ApplyDefaults(ctx context.Context, inv *Invoice, rp RateProvider) error {
	if item.PackageId == nil {
		return nil
	}
	pkg := item.Package
	if pkg == nil {
		loaded, err := GetPackage(ctx, *item.PackageId)
		if err != nil {
			return err
		}
		pkg = loaded
		item.Package = pkg
	}

	if item.UnitPrice.IsZero() {
		price := pkg.Price
		if pkg.Currency != inv.Currency {
			converted, err := rp.Convert(ctx, pkg.Price, string(pkg.Currency), string(inv.Currency), inv.rateDate())
			if err != nil {
				return err
			}
			price = converted
		}
		item.UnitPrice = utils.RoundMoney(price)
	}

	if item.Description == "" {
		item.Description = pkg.DisplayName
		if start, ok := inv.StartDate(); ok && pkg.Recurrence != PeriodNone {
			end := pkg.Recurrence.PeriodEnd(start)
			item.StartDate = &start
			item.EndDate = &end
		}
	}
	return nil
}

// TotalAmount is the rounded line total.
func (item *InvoiceItem) TotalAmount() decimal.Decimal {
	return utils.RoundMoney(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
}

// DisplayUnit returns the quantity unit label, singular for quantity 1.
func (item *InvoiceItem) DisplayUnit() string {
	return item.QuantityUnit.Display(item.Quantity)
}
