package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/WeblateOrg/website-sub000/config"
	"github.com/WeblateOrg/website-sub000/rates"
)

// Warms the exchange-rate cache for a date range so invoice computation never
// waits on the rate source during business hours. Run from cron.
func main() {
	days := flag.Int("days", 7, "Number of days back from today to prefetch")
	cacheDir := flag.String("cache-dir", "data/rates", "Directory for the on-disk rate cache")
	flag.Parse()

	_ = godotenv.Load()
	logger := config.GetLogger()
	config.ConnectRedis()

	provider := rates.NewProvider(rates.NewClient(logger), rates.NewCache(*cacheDir), logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	failed := 0
	for i := 0; i < *days; i++ {
		day := time.Now().UTC().AddDate(0, 0, -i)
		if _, err := provider.Rate(ctx, "EUR", day); err != nil {
			fmt.Fprintf(os.Stderr, "prefetch failed for %s: %v\n", day.Format("2006-01-02"), err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
	fmt.Println("prefetched", *days, "days of exchange rates")
}
