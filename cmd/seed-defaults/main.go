package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/WeblateOrg/website-sub000/config"
	"github.com/WeblateOrg/website-sub000/models"
)

// Seeds the bank accounts the QR payment rendering depends on. Idempotent:
// existing rows are updated in place, keyed by currency.
func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	if err := models.Migrate(db); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	accounts := []models.BankAccount{
		{
			Currency:      models.CurrencyEUR,
			AccountNumber: os.Getenv("BANK_EUR_ACCOUNT"),
			IBAN:          os.Getenv("BANK_EUR_IBAN"),
			BIC:           os.Getenv("BANK_EUR_BIC"),
			Holder:        os.Getenv("BANK_HOLDER"),
		},
		{
			Currency:      models.CurrencyCZK,
			AccountNumber: os.Getenv("BANK_CZK_ACCOUNT"),
			IBAN:          os.Getenv("BANK_CZK_IBAN"),
			BIC:           os.Getenv("BANK_CZK_BIC"),
			Holder:        os.Getenv("BANK_HOLDER"),
		},
	}
	if err := models.SeedBankAccounts(ctx, accounts); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed bank accounts: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("seeded", len(accounts), "bank accounts")
}
