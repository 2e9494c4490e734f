package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/WeblateOrg/website-sub000/config"
	"github.com/WeblateOrg/website-sub000/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment is owned by the gateway integration; the core only opens payments
// for payable invoices and records which invoice a settled payment covers.
type Payment struct {
	ID             string          `gorm:"type:char(36);primary_key" json:"id"`
	Status         PaymentStatus   `gorm:"size:20;not null" json:"status"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Currency       CurrencyCode    `gorm:"size:3;not null" json:"currency"`
	DraftInvoiceId *string         `gorm:"type:char(36);uniqueIndex" json:"draft_invoice_id"`
	PaidInvoiceId  *string         `gorm:"type:char(36);index" json:"paid_invoice_id"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// CreatePayment opens a pending payment for the invoice. Legal only for an
// invoice that can currently be paid, and only once.
func (inv *Invoice) CreatePayment(ctx context.Context) (*Payment, error) {
	if !inv.CanBePaid(KindDraft) {
		return nil, fmt.Errorf("%w: invoice %s cannot be paid", utils.ErrorInvalidOperation, inv.Number)
	}

	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&Payment{}).
		Where("draft_invoice_id = ?", inv.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: invoice %s already has a payment", utils.ErrorInvalidOperation, inv.Number)
	}

	payment := Payment{
		ID:             uuid.NewString(),
		Status:         PaymentStatusPending,
		Amount:         inv.TotalAmount(),
		Currency:       inv.Currency,
		DraftInvoiceId: &inv.ID,
	}
	if err := db.WithContext(ctx).Create(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race with a concurrent create; the unique index on
			// draft_invoice_id is the authoritative guard
			return nil, fmt.Errorf("%w: invoice %s already has a payment", utils.ErrorInvalidOperation, inv.Number)
		}
		return nil, err
	}
	return &payment, nil
}

// SettlePayment marks a payment accepted and links the invoice it settled.
// Called by the gateway success handler after the final invoice exists.
func SettlePayment(ctx context.Context, paymentId string, paidInvoiceId string) (*Payment, error) {
	payment, err := utils.FetchModel[Payment](ctx, paymentId)
	if err != nil {
		return nil, err
	}
	if payment.PaidInvoiceId != nil {
		return nil, fmt.Errorf("%w: payment %s is already settled", utils.ErrorInvalidOperation, payment.ID)
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(payment).Updates(map[string]interface{}{
		"Status":        PaymentStatusAccepted,
		"PaidInvoiceId": paidInvoiceId,
	}).Error; err != nil {
		return nil, err
	}
	return payment, nil
}
