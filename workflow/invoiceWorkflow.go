package workflow

import (
	"context"
	"errors"

	"github.com/WeblateOrg/website-sub000/config"
	"github.com/WeblateOrg/website-sub000/models"
	"github.com/WeblateOrg/website-sub000/utils"
	"github.com/sirupsen/logrus"
)

// DuplicateInvoice derives a new invoice of the target kind from a source
// invoice and persists it with a fresh number.
func DuplicateInvoice(ctx context.Context, logger *logrus.Logger, sourceId string, kind models.InvoiceKind, opts models.DuplicateOptions, rp models.RateProvider) (*models.Invoice, error) {
	invoice, err := models.DuplicateInvoice(ctx, sourceId, kind, opts, rp)
	if err != nil {
		config.LogError(logger, "invoiceWorkflow.go", "DuplicateInvoice", "models.DuplicateInvoice", sourceId, err)
		return nil, err
	}
	return invoice, nil
}

// CreatePaymentForInvoice opens a pending payment for a draft or final
// invoice that is still payable.
func CreatePaymentForInvoice(ctx context.Context, logger *logrus.Logger, invoiceId string) (*models.Payment, error) {
	invoice, err := models.GetInvoice(ctx, invoiceId)
	if err != nil {
		config.LogError(logger, "invoiceWorkflow.go", "CreatePaymentForInvoice", "models.GetInvoice", invoiceId, err)
		return nil, err
	}
	payment, err := invoice.CreatePayment(ctx)
	if err != nil {
		if !errors.Is(err, utils.ErrorInvalidOperation) {
			config.LogError(logger, "invoiceWorkflow.go", "CreatePaymentForInvoice", "invoice.CreatePayment", invoiceId, err)
		}
		return nil, err
	}
	return payment, nil
}

// InvoiceQRCode renders the payment QR string for an invoice against the
// bank account held in the invoice currency. Currencies without a domestic
// QR standard, or without a configured account, yield an empty string.
func InvoiceQRCode(ctx context.Context, logger *logrus.Logger, invoiceId string) (string, error) {
	invoice, err := models.GetInvoice(ctx, invoiceId)
	if err != nil {
		config.LogError(logger, "invoiceWorkflow.go", "InvoiceQRCode", "models.GetInvoice", invoiceId, err)
		return "", err
	}
	account, err := models.GetBankAccount(ctx, invoice.Currency)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return "", nil
		}
		config.LogError(logger, "invoiceWorkflow.go", "InvoiceQRCode", "models.GetBankAccount", invoice.Currency, err)
		return "", err
	}
	return invoice.PaymentQRString(account), nil
}
