package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RateProvider supplies daily CZK-based exchange rates. Satisfied by
// rates.Provider; models only depend on this surface so monetary derivations
// stay testable without the fetching stack.
type RateProvider interface {
	// Rate returns the CZK price of one unit of currency on the given day.
	Rate(ctx context.Context, currency string, day time.Time) (decimal.Decimal, error)
	// CrossRate returns the price of one unit of target in units of source,
	// derived through the CZK fixing.
	CrossRate(ctx context.Context, source, target string, day time.Time) (decimal.Decimal, error)
	// Convert converts an amount between two currencies on the given day.
	Convert(ctx context.Context, amount decimal.Decimal, from, to string, day time.Time) (decimal.Decimal, error)
}
