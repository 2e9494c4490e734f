package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// InvoiceKind is the numeric document-kind code. It is the leading component
// of the invoice number, so the values are part of the external contract and
// must never be renumbered.
type InvoiceKind int

const (
	KindDraft    InvoiceKind = 0
	KindInvoice  InvoiceKind = 10
	KindProforma InvoiceKind = 20
	KindQuote    InvoiceKind = 30
)

func (k InvoiceKind) String() string {
	switch k {
	case KindDraft:
		return "Draft"
	case KindInvoice:
		return "Invoice"
	case KindProforma:
		return "Proforma"
	case KindQuote:
		return "Quote"
	}
	return fmt.Sprintf("InvoiceKind(%d)", int(k))
}

func (k InvoiceKind) Valid() bool {
	switch k {
	case KindDraft, KindInvoice, KindProforma, KindQuote:
		return true
	}
	return false
}

// IsDraft reports whether the kind is a pre-final document.
func (k InvoiceKind) IsDraft() bool {
	return k == KindDraft || k == KindQuote
}

// IsPayable reports whether the kind is a payable form.
func (k InvoiceKind) IsPayable() bool {
	return k == KindInvoice || k == KindProforma
}

// convert input to enum type, rejecting unknown codes at the boundary
func (k *InvoiceKind) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		return errors.New("invoice kind must be a numeric code")
	}
	kind := InvoiceKind(code)
	if !kind.Valid() {
		return fmt.Errorf("invalid invoice kind code %d", code)
	}
	*k = kind
	return nil
}

type InvoiceCategory string

const (
	CategoryHosting     InvoiceCategory = "Hosting"
	CategorySupport     InvoiceCategory = "Support"
	CategoryDevelopment InvoiceCategory = "Development"
	CategoryDonation    InvoiceCategory = "Donation"
)

func (c InvoiceCategory) Valid() bool {
	switch c {
	case CategoryHosting, CategorySupport, CategoryDevelopment, CategoryDonation:
		return true
	}
	return false
}

type CurrencyCode string

const (
	CurrencyEUR CurrencyCode = "EUR"
	CurrencyCZK CurrencyCode = "CZK"
	CurrencyUSD CurrencyCode = "USD"
	CurrencyGBP CurrencyCode = "GBP"
)

func (c CurrencyCode) Valid() bool {
	switch c {
	case CurrencyEUR, CurrencyCZK, CurrencyUSD, CurrencyGBP:
		return true
	}
	return false
}

func (c *CurrencyCode) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return errors.New("currency must be a string")
	}
	code := CurrencyCode(str)
	if !code.Valid() {
		return fmt.Errorf("unsupported currency %q", str)
	}
	*c = code
	return nil
}

type QuantityUnit string

const (
	UnitBlank QuantityUnit = ""
	UnitHours QuantityUnit = "hours"
)

func (u QuantityUnit) Valid() bool {
	return u == UnitBlank || u == UnitHours
}

// Display returns the unit label for the given quantity, singular for 1.
func (u QuantityUnit) Display(quantity int) string {
	if u != UnitHours {
		return ""
	}
	if quantity == 1 {
		return "hour"
	}
	return "hours"
}

type RecurrencePeriod string

const (
	PeriodNone    RecurrencePeriod = ""
	PeriodMonthly RecurrencePeriod = "m"
	PeriodYearly  RecurrencePeriod = "y"
)

// PeriodEnd returns the last covered day of the period starting at start:
// start + period length - 1 day.
func (p RecurrencePeriod) PeriodEnd(start time.Time) time.Time {
	switch p {
	case PeriodMonthly:
		return start.AddDate(0, 1, -1)
	case PeriodYearly:
		return start.AddDate(1, 0, -1)
	}
	return start
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "Pending"
	PaymentStatusAccepted PaymentStatus = "Accepted"
	PaymentStatusRejected PaymentStatus = "Rejected"
)
