package models

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/WeblateOrg/website-sub000/config"
	"github.com/WeblateOrg/website-sub000/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const extraStartDateKey = "start_date"

type Invoice struct {
	ID                string            `gorm:"type:char(36);primary_key" json:"id"`
	Kind              InvoiceKind       `gorm:"not null;uniqueIndex:uniq_invoice_kind_year_seq,priority:1" json:"kind"`
	FiscalYear        int               `gorm:"not null;uniqueIndex:uniq_invoice_kind_year_seq,priority:2" json:"fiscal_year"`
	Sequence          int               `gorm:"not null;uniqueIndex:uniq_invoice_kind_year_seq,priority:3" json:"sequence"`
	Number            string            `gorm:"size:10;not null;uniqueIndex" json:"number"`
	CustomerId        int               `gorm:"index;not null" json:"customer_id"`
	Customer          *Customer         `json:"customer"`
	DiscountId        *int              `gorm:"index" json:"discount_id"`
	Discount          *Discount         `json:"discount"`
	ParentId          *string           `gorm:"type:char(36);index" json:"parent_id"`
	Category          InvoiceCategory   `gorm:"size:20;not null" json:"category"`
	IssueDate         time.Time         `gorm:"not null" json:"issue_date"`
	DueDate           time.Time         `gorm:"not null" json:"due_date"`
	TaxDate           time.Time         `gorm:"not null" json:"tax_date"`
	VatRate           int               `gorm:"not null;default:0" json:"vat_rate"`
	Currency          CurrencyCode      `gorm:"size:3;not null" json:"currency"`
	Prepaid           bool              `gorm:"not null;default:false" json:"prepaid"`
	CustomerReference string            `gorm:"size:100" json:"customer_reference"`
	CustomerNote      string            `gorm:"type:text" json:"customer_note"`
	Extra             map[string]string `gorm:"serializer:json" json:"extra"`
	Items             []InvoiceItem     `gorm:"foreignKey:InvoiceId;constraint:OnDelete:CASCADE" json:"items"`
	PaidPayment       *Payment          `gorm:"foreignKey:PaidInvoiceId" json:"paid_payment"`
	CreatedAt         time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewInvoice struct {
	Kind              InvoiceKind       `json:"kind"`
	CustomerId        int               `json:"customer_id" binding:"required"`
	Category          InvoiceCategory   `json:"category" binding:"required"`
	IssueDate         time.Time         `json:"issue_date"`
	DueDate           *time.Time        `json:"due_date"`
	TaxDate           *time.Time        `json:"tax_date"`
	VatRate           int               `json:"vat_rate" binding:"min=0,max=100"`
	Currency          CurrencyCode      `json:"currency" binding:"required"`
	DiscountId        *int              `json:"discount_id"`
	Prepaid           bool              `json:"prepaid"`
	CustomerReference string            `json:"customer_reference"`
	CustomerNote      string            `json:"customer_note"`
	Extra             map[string]string `json:"extra"`
	Items             []NewInvoiceItem  `json:"items" binding:"dive"`
}

func (input *NewInvoice) validate(ctx context.Context) error {
	if err := utils.ValidateInput(input); err != nil {
		return err
	}
	if !input.Kind.Valid() {
		return errors.New("invalid invoice kind")
	}
	if !input.Category.Valid() {
		return errors.New("invalid invoice category")
	}
	if !input.Currency.Valid() {
		return errors.New("unsupported currency")
	}
	// exists customer
	if err := utils.ValidateResourceId[Customer](ctx, input.CustomerId); err != nil {
		return errors.New("customer not found")
	}
	// exists discount
	if input.DiscountId != nil {
		if err := utils.ValidateResourceId[Discount](ctx, *input.DiscountId); err != nil {
			return errors.New("discount not found")
		}
	}
	// items must be complete, or completable from a package
	for i := range input.Items {
		item := &input.Items[i]
		if item.Description == "" && item.PackageId == nil {
			return errors.New("item description or package is required")
		}
		if item.UnitPrice.IsZero() && item.PackageId == nil {
			return errors.New("item unit price or package is required")
		}
		if item.PackageId != nil {
			if err := utils.ValidateResourceId[Package](ctx, *item.PackageId); err != nil {
				return errors.New("package not found")
			}
		}
	}
	return nil
}

// defaultDueDays is the payment term when no explicit due date is supplied:
// prepaid invoices are due immediately, pre-final documents get 30 days,
// payable forms 14.
func defaultDueDays(kind InvoiceKind, prepaid bool) int {
	if prepaid {
		return 0
	}
	if kind.IsDraft() {
		return 30
	}
	return 14
}

// applyDateDefaults derives the blank date fields. Explicit values always win.
func (inv *Invoice) applyDateDefaults() {
	if inv.IssueDate.IsZero() {
		now := time.Now()
		inv.IssueDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	if inv.TaxDate.IsZero() {
		inv.TaxDate = inv.IssueDate
	}
	if inv.DueDate.IsZero() {
		inv.DueDate = inv.IssueDate.AddDate(0, 0, defaultDueDays(inv.Kind, inv.Prepaid))
	}
}

// rateDate is the day used for exchange-rate lookups.
func (inv *Invoice) rateDate() time.Time {
	if !inv.TaxDate.IsZero() {
		return inv.TaxDate
	}
	return inv.IssueDate
}

// StartDate returns the service period start carried in the extra parameters.
func (inv *Invoice) StartDate() (time.Time, bool) {
	raw, ok := inv.Extra[extraStartDateKey]
	if !ok {
		return time.Time{}, false
	}
	start, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return start, true
}

func CreateInvoice(ctx context.Context, input *NewInvoice, rp RateProvider) (*Invoice, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	invoice := &Invoice{
		ID:                uuid.NewString(),
		Kind:              input.Kind,
		CustomerId:        input.CustomerId,
		Category:          input.Category,
		IssueDate:         input.IssueDate,
		VatRate:           input.VatRate,
		Currency:          input.Currency,
		DiscountId:        input.DiscountId,
		Prepaid:           input.Prepaid,
		CustomerReference: input.CustomerReference,
		CustomerNote:      input.CustomerNote,
		Extra:             input.Extra,
	}
	if input.DueDate != nil {
		invoice.DueDate = *input.DueDate
	}
	if input.TaxDate != nil {
		invoice.TaxDate = *input.TaxDate
	}
	invoice.applyDateDefaults()

	for _, item := range input.Items {
		invoice.Items = append(invoice.Items, InvoiceItem{
			Description:  item.Description,
			Quantity:     item.Quantity,
			QuantityUnit: item.QuantityUnit,
			UnitPrice:    item.UnitPrice,
			StartDate:    item.StartDate,
			EndDate:      item.EndDate,
			PackageId:    item.PackageId,
		})
	}

	if err := persistInvoice(ctx, invoice, rp); err != nil {
		return nil, err
	}
	return invoice, nil
}

// persistInvoice completes an unsaved invoice (package defaults, sequence,
// number) and inserts it with its items in one transaction.
func persistInvoice(ctx context.Context, invoice *Invoice, rp RateProvider) error {
	for i := range invoice.Items {
		if err := invoice.Items[i].ApplyDefaults(ctx, invoice, rp); err != nil {
			return err
		}
		if err := invoice.Items[i].Validate(); err != nil {
			return err
		}
	}

	invoice.FiscalYear = invoice.IssueDate.Year()

	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sequence, err := nextInvoiceSequence(tx, invoice.Kind, invoice.FiscalYear)
		if err != nil {
			return err
		}
		invoice.Sequence = sequence
		invoice.Number = FormatInvoiceNumber(invoice.Kind, invoice.FiscalYear, sequence)
		return tx.Create(invoice).Error
	})
}

func GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	return utils.FetchModel[Invoice](ctx, id, "Items", "Items.Package", "Discount", "Customer", "PaidPayment")
}

func GetInvoiceByNumber(ctx context.Context, number string) (*Invoice, error) {
	db := config.GetDB()
	var result Invoice
	err := db.WithContext(ctx).
		Preload("Items").Preload("Items.Package").
		Preload("Discount").Preload("Customer").Preload("PaidPayment").
		Where("number = ?", number).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func GetInvoices(ctx context.Context, kind *InvoiceKind, fiscalYear *int) ([]*Invoice, error) {
	db := config.GetDB()
	var results []*Invoice

	dbCtx := db.WithContext(ctx).Preload("Items").Preload("Discount").Preload("Customer").Preload("PaidPayment")
	if kind != nil {
		dbCtx = dbCtx.Where("kind = ?", *kind)
	}
	if fiscalYear != nil {
		dbCtx = dbCtx.Where("fiscal_year = ?", *fiscalYear)
	}
	err := dbCtx.Order("fiscal_year, kind, sequence").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// IsPaid reports whether a payment has settled this invoice. Relies on the
// PaidPayment association being preloaded (GetInvoice does).
func (inv *Invoice) IsPaid() bool {
	return inv.PaidPayment != nil
}

// CanBePaid reports whether a payment may be opened for this invoice: kind
// must be Invoice or one of the explicitly allowed pre-final kinds, and the
// invoice must be neither prepaid nor already settled.
func (inv *Invoice) CanBePaid(kinds ...InvoiceKind) bool {
	if inv.Kind != KindInvoice && !slices.Contains(kinds, inv.Kind) {
		return false
	}
	return !inv.Prepaid && !inv.IsPaid()
}

// IsEditable reports whether the invoice may still change: a final Invoice
// only within its issuing calendar month, anything else only while no
// descendant document has been derived from it.
func (inv *Invoice) IsEditable(ctx context.Context) (bool, error) {
	if inv.Kind == KindInvoice {
		now := time.Now()
		return inv.IssueDate.Year() == now.Year() && inv.IssueDate.Month() == now.Month(), nil
	}
	count, err := utils.ResourceCountWhere[Invoice](ctx, "parent_id = ?", inv.ID)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

type DuplicateOptions struct {
	IssueDate *time.Time
	DueDate   *time.Time
	TaxDate   *time.Time
}

// Duplicate builds an unsaved copy of the invoice chained to it via ParentId.
// Package-linked items of a Draft are blanked so the duplicate re-derives
// description and price from the live package; every other transition keeps
// the stored snapshot verbatim. The source invoice is never mutated.
func (inv *Invoice) Duplicate(kind InvoiceKind, opts DuplicateOptions) (*Invoice, error) {
	if !kind.IsPayable() {
		return nil, fmt.Errorf("%w: cannot derive a %s from a %s", utils.ErrorInvalidOperation, kind, inv.Kind)
	}

	dup := &Invoice{
		ID:                uuid.NewString(),
		Kind:              kind,
		CustomerId:        inv.CustomerId,
		DiscountId:        inv.DiscountId,
		Discount:          inv.Discount,
		ParentId:          &inv.ID,
		Category:          inv.Category,
		VatRate:           inv.VatRate,
		Currency:          inv.Currency,
		CustomerReference: inv.CustomerReference,
		CustomerNote:      inv.CustomerNote,
		Extra:             maps.Clone(inv.Extra),
	}
	if opts.IssueDate != nil {
		dup.IssueDate = *opts.IssueDate
	}
	if opts.DueDate != nil {
		dup.DueDate = *opts.DueDate
	}
	if opts.TaxDate != nil {
		dup.TaxDate = *opts.TaxDate
	}
	dup.applyDateDefaults()

	for _, item := range inv.Items {
		copied := InvoiceItem{
			Description:  item.Description,
			Quantity:     item.Quantity,
			QuantityUnit: item.QuantityUnit,
			UnitPrice:    item.UnitPrice,
			StartDate:    item.StartDate,
			EndDate:      item.EndDate,
			PackageId:    item.PackageId,
			Package:      item.Package,
		}
		if inv.Kind == KindDraft && item.PackageId != nil {
			// drafts are mutable previews: re-price from live package data
			copied.Description = ""
			copied.UnitPrice = decimal.Zero
			copied.StartDate = nil
			copied.EndDate = nil
			copied.Package = nil
		}
		dup.Items = append(dup.Items, copied)
	}
	return dup, nil
}

// DuplicateInvoice loads an invoice, derives a new one of the given kind and
// persists it with a freshly allocated sequence and number.
func DuplicateInvoice(ctx context.Context, sourceId string, kind InvoiceKind, opts DuplicateOptions, rp RateProvider) (*Invoice, error) {
	source, err := GetInvoice(ctx, sourceId)
	if err != nil {
		return nil, err
	}
	dup, err := source.Duplicate(kind, opts)
	if err != nil {
		return nil, err
	}
	if err := persistInvoice(ctx, dup, rp); err != nil {
		return nil, err
	}
	return GetInvoice(ctx, dup.ID)
}
