package models

import (
	"context"
	"errors"
	"time"

	"github.com/WeblateOrg/website-sub000/config"
	"github.com/WeblateOrg/website-sub000/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BankAccount is the fixed receiving account for one currency. Payment
// instructions and QR payloads are rendered from these records.
type BankAccount struct {
	ID            int          `gorm:"primary_key" json:"id"`
	Currency      CurrencyCode `gorm:"size:3;not null;uniqueIndex" json:"currency" binding:"required"`
	AccountNumber string       `gorm:"size:50;not null" json:"account_number" binding:"required"`
	IBAN          string       `gorm:"size:34;not null" json:"iban" binding:"required"`
	BIC           string       `gorm:"size:11;not null" json:"bic" binding:"required"`
	Holder        string       `gorm:"size:100;not null" json:"holder" binding:"required"`
	CreatedAt     time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetBankAccount returns the account record for a currency.
func GetBankAccount(ctx context.Context, currency CurrencyCode) (*BankAccount, error) {
	db := config.GetDB()
	var result BankAccount
	err := db.WithContext(ctx).Where("currency = ?", currency).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SeedBankAccounts upserts the per-currency account records, keyed by
// currency. Used by the seed tool; records are otherwise immutable.
func SeedBankAccounts(ctx context.Context, accounts []BankAccount) error {
	db := config.GetDB()
	for i := range accounts {
		if err := utils.ValidateInput(&accounts[i]); err != nil {
			return err
		}
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "currency"}},
		DoUpdates: clause.AssignmentColumns([]string{"account_number", "iban", "bic", "holder"}),
	}).Create(&accounts).Error
}
