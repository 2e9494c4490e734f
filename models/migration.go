package models

import "gorm.io/gorm"

// Migrate creates or updates the schema for every model the core owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Customer{},
		&Discount{},
		&Package{},
		&BankAccount{},
		&InvoiceSequence{},
		&Invoice{},
		&InvoiceItem{},
		&Payment{},
	)
}
