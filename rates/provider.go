package rates

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// BaseCurrency is the currency the fixing quotes everything against.
const BaseCurrency = "CZK"

// maxFallbackDays bounds the walk to the previous trading day across
// weekends and bank holidays.
const maxFallbackDays = 5

// FetchError reports exhaustion of the daily fallback chain. Callers must
// fail; there is no meaningful rate to default to.
type FetchError struct {
	Day      time.Time
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("no exchange rates for %s after %d attempts: %v",
		e.Day.Format("2006-01-02"), e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Provider resolves daily exchange rates through the layered cache, falling
// back to the previous day when a fixing is not published.
type Provider struct {
	client *Client
	cache  *Cache
	logger *logrus.Logger
}

func NewProvider(client *Client, cache *Cache, logger *logrus.Logger) *Provider {
	return &Provider{client: client, cache: cache, logger: logger}
}

// Rate returns the CZK price of one unit of currency on the given day.
// The base currency is always 1, without a lookup.
func (p *Provider) Rate(ctx context.Context, currency string, day time.Time) (decimal.Decimal, error) {
	if currency == BaseCurrency {
		return decimal.New(1, 0), nil
	}
	table, err := p.dayTable(ctx, day)
	if err != nil {
		return decimal.Zero, err
	}
	rate, ok := table[currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("currency %s not present in rate table for %s", currency, day.Format("2006-01-02"))
	}
	return rate, nil
}

// CrossRate returns the price of one unit of target in units of source,
// derived through the base-currency fixing: rate(target)/rate(source).
func (p *Provider) CrossRate(ctx context.Context, source, target string, day time.Time) (decimal.Decimal, error) {
	sourceRate, err := p.Rate(ctx, source, day)
	if err != nil {
		return decimal.Zero, err
	}
	targetRate, err := p.Rate(ctx, target, day)
	if err != nil {
		return decimal.Zero, err
	}
	return targetRate.Div(sourceRate), nil
}

// Convert converts an amount between two currencies on the given day.
func (p *Provider) Convert(ctx context.Context, amount decimal.Decimal, from, to string, day time.Time) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	fromRate, err := p.Rate(ctx, from, day)
	if err != nil {
		return decimal.Zero, err
	}
	toRate, err := p.Rate(ctx, to, day)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(fromRate).Div(toRate), nil
}

// dayTable resolves one day's full table: cache first, then fetch, walking
// back one calendar day per failure so weekends and holidays resolve to the
// last published fixing.
func (p *Provider) dayTable(ctx context.Context, day time.Time) (map[string]decimal.Decimal, error) {
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	var lastErr error
	current := day
	for attempt := 0; attempt <= maxFallbackDays; attempt++ {
		if table, ok := p.cache.Get(current); ok {
			return table, nil
		}
		table, err := p.client.FetchDay(ctx, current)
		if err == nil {
			if cacheErr := p.cache.Put(current, table); cacheErr != nil && p.logger != nil {
				p.logger.WithField("day", dayKey(current)).Warnf("failed to cache rate table: %v", cacheErr)
			}
			return table, nil
		}
		lastErr = err
		if p.logger != nil {
			p.logger.WithField("day", dayKey(current)).Infof("rate fetch failed, trying previous day: %v", err)
		}
		current = current.AddDate(0, 0, -1)
	}
	return nil, &FetchError{Day: day, Attempts: maxFallbackDays + 1, Err: lastErr}
}
