package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoiceSequence is a dedicated counter row per (kind, fiscal year).
// The row is read under FOR UPDATE inside the invoice create transaction, so
// two concurrent creations serialize instead of both reading the same
// maximum. The unique index on invoices (kind, fiscal_year, sequence) stays
// as the backstop.
type InvoiceSequence struct {
	Kind       InvoiceKind `gorm:"primaryKey;autoIncrement:false" json:"kind"`
	FiscalYear int         `gorm:"primaryKey;autoIncrement:false" json:"fiscal_year"`
	LastValue  int         `gorm:"not null;default:0" json:"last_value"`
	UpdatedAt  time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// nextInvoiceSequence reserves the next sequence number for (kind, year).
// Must run inside the same transaction that inserts the invoice.
func nextInvoiceSequence(tx *gorm.DB, kind InvoiceKind, year int) (int, error) {
	var series InvoiceSequence
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("kind = ? AND fiscal_year = ?", kind, year).
		First(&series).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// First number of the series. Seed from invoices that predate the
		// counter rows so an existing series continues without a gap.
		var max sql.NullInt64
		if err := tx.Model(&Invoice{}).
			Where("kind = ? AND fiscal_year = ?", kind, year).
			Select("MAX(sequence)").Scan(&max).Error; err != nil {
			return 0, err
		}
		seed := InvoiceSequence{Kind: kind, FiscalYear: year, LastValue: int(max.Int64)}
		// Two transactions can both miss the row and seed it concurrently.
		// The losing insert is a no-op; the locked re-read below serializes
		// both on whichever row won.
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return 0, err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("kind = ? AND fiscal_year = ?", kind, year).
			First(&series).Error; err != nil {
			return 0, err
		}
	case err != nil:
		return 0, err
	}

	series.LastValue++
	if err := tx.Model(&InvoiceSequence{}).
		Where("kind = ? AND fiscal_year = ?", kind, year).
		Update("last_value", series.LastValue).Error; err != nil {
		return 0, err
	}
	return series.LastValue, nil
}

// FormatInvoiceNumber renders the display number: two-digit kind code,
// two-digit year, six-digit sequence. The result appears on legal documents
// and is matched against bank statement memo fields, so the format is frozen.
func FormatInvoiceNumber(kind InvoiceKind, year int, sequence int) string {
	return fmt.Sprintf("%02d%02d%06d", int(kind), year%100, sequence)
}
